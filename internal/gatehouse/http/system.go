package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// HealthResponse is shared by the liveness and readiness probes.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

// LivezHandler always reports ok while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler additionally pings the database.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:   "ok",
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: "ok",
		}
		status := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, status, response)
	}
}

// SiteResponse is the public portal presentation payload.
type SiteResponse struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
}

// SiteHandler serves GET /site: the login page reads this to brand itself.
func SiteHandler(settings *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, err := settings.Site(r.Context())
		if err != nil {
			errInternal.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, SiteResponse{Name: site.Name, Subtitle: site.Subtitle})
	}
}
