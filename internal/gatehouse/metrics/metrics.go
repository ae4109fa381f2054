// Package metrics registers the Prometheus instruments for the sign-on
// broker. Counters are package-level and registered once via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
	ResultDenied = "denied"
)

var (
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_logins_total",
		Help: "Portal login attempts by result.",
	}, []string{"result"})

	CodeRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_code_redemptions_total",
		Help: "Authorization code redemptions by result.",
	}, []string{"result"})

	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_token_refreshes_total",
		Help: "Refresh token rotations by result.",
	}, []string{"result"})

	PermissionDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_permission_denials_total",
		Help: "Launch and token permission denials by reason.",
	}, []string{"reason"})

	AuditWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_audit_write_failures_total",
		Help: "Audit log writes that failed and were dropped.",
	})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
