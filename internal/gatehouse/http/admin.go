package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// AdminHandler groups the admin-session management endpoints: permission
// grants, application registry, groups, user directory actions, portal
// settings and the audit view.
type AdminHandler struct {
	Permissions *service.PermissionService
	Apps        *service.AppService
	Groups      *service.GroupService
	Users       *service.UserService
	Settings    *service.SettingsService
	Audit       *service.AuditService
}

// PermissionResponse mirrors a stored grant. ValidFrom/ValidTo are unix
// seconds; a ValidTo at the no-expiry sentinel means the grant never lapses.
type PermissionResponse struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id,omitempty"`
	GroupID   *string `json:"group_id,omitempty"`
	AppID     string  `json:"app_id"`
	ValidFrom int64   `json:"valid_from"`
	ValidTo   int64   `json:"valid_to"`
}

// HandleGrantPermission serves POST /admin/permissions.
func (h *AdminHandler) HandleGrantPermission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	p := domain.Permission{AppID: r.Form.Get("app_id")}
	if p.AppID == "" {
		errMissingParameter.withDescription("app_id is required").WriteError(w)
		return
	}
	if v := r.Form.Get("user_id"); v != "" {
		p.UserID = &v
	}
	if v := r.Form.Get("group_id"); v != "" {
		p.GroupID = &v
	}

	var err error
	if p.ValidFrom, err = formUnix(r, "valid_from", time.Now().Unix()); err != nil {
		errMissingParameter.withDescription("valid_from must be unix seconds").WriteError(w)
		return
	}
	if p.ValidTo, err = formUnix(r, "valid_to", 0); err != nil {
		errMissingParameter.withDescription("valid_to must be unix seconds").WriteError(w)
		return
	}

	granted, err := h.Permissions.Grant(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionOwner):
			errMissingParameter.withDescription("exactly one of user_id or group_id is required").WriteError(w)
		case errors.Is(err, service.ErrPermissionWindow):
			errMissingParameter.withDescription("valid_to precedes valid_from").WriteError(w)
		case errors.Is(err, store.ErrNotFound):
			errNotFound.withDescription("no such application").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, PermissionResponse{
		ID:        granted.ID,
		UserID:    granted.UserID,
		GroupID:   granted.GroupID,
		AppID:     granted.AppID,
		ValidFrom: granted.ValidFrom,
		ValidTo:   granted.ValidTo,
	})
}

// HandleRevokePermission serves DELETE /admin/permissions/{id}.
func (h *AdminHandler) HandleRevokePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.Permissions.Revoke(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errNotFound.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AppResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Status  string `json:"status"`
}

func appResponse(app domain.App) AppResponse {
	return AppResponse{ID: app.ID, Name: app.Name, BaseURL: app.BaseURL, Status: app.Status}
}

type GroupResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AuditEntryResponse struct {
	ID        string              `json:"id"`
	Event     string              `json:"event"`
	Details   domain.AuditDetails `json:"details"`
	CreatedAt time.Time           `json:"created_at"`
}

// HandleRegisterApp serves POST /admin/apps.
func (h *AdminHandler) HandleRegisterApp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	app, err := h.Apps.Register(r.Context(), r.Form.Get("name"), r.Form.Get("base_url"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBaseURL):
			errMissingParameter.withDescription("base_url must be an absolute URL").WriteError(w)
		case errors.Is(err, store.ErrAlreadyExists):
			errConflict.withDescription("application already registered").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, appResponse(app))
}

// HandleListApps serves GET /admin/apps.
func (h *AdminHandler) HandleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Apps.List(r.Context())
	if err != nil {
		errInternal.WriteError(w)
		return
	}
	out := make([]AppResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, appResponse(app))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleSetAppStatus serves POST /admin/apps/{id}/status, the pause/resume
// toggle.
func (h *AdminHandler) HandleSetAppStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	err := h.Apps.SetStatus(r.Context(), r.PathValue("id"), r.Form.Get("status"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAppStatus):
			errMissingParameter.withDescription("status must be active or inactive").WriteError(w)
		case errors.Is(err, store.ErrNotFound):
			errNotFound.WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteApp serves DELETE /admin/apps/{id}.
func (h *AdminHandler) HandleDeleteApp(w http.ResponseWriter, r *http.Request) {
	if err := h.Apps.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errNotFound.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateGroup serves POST /admin/groups.
func (h *AdminHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	group, err := h.Groups.Create(r.Context(), r.Form.Get("name"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGroupName):
			errMissingParameter.withDescription("name is required").WriteError(w)
		case errors.Is(err, store.ErrAlreadyExists):
			errConflict.withDescription("group already exists").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, GroupResponse{ID: group.ID, Name: group.Name})
}

// HandleListGroups serves GET /admin/groups.
func (h *AdminHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Groups.List(r.Context())
	if err != nil {
		errInternal.WriteError(w)
		return
	}
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupResponse{ID: g.ID, Name: g.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleDeleteGroup serves DELETE /admin/groups/{id}.
func (h *AdminHandler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Groups.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errNotFound.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignUserGroup serves POST /admin/users/{id}/group. An empty
// group_id detaches the user from any group.
func (h *AdminHandler) HandleAssignUserGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	var groupID *string
	if v := r.Form.Get("group_id"); v != "" {
		groupID = &v
	}

	if err := h.Users.AssignGroup(r.Context(), r.PathValue("id"), groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errNotFound.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteUser serves DELETE /admin/users/{id}.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errNotFound.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateSettings serves POST /admin/settings.
func (h *AdminHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	err := h.Settings.UpdateSite(r.Context(), domain.SiteSettings{
		Name:     r.Form.Get("name"),
		Subtitle: r.Form.Get("subtitle"),
	})
	if err != nil {
		errInternal.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAudit serves GET /admin/audit?limit=N.
func (h *AdminHandler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errMissingParameter.withDescription("limit must be a positive integer").WriteError(w)
			return
		}
		limit = n
	}

	entries, err := h.Audit.Recent(r.Context(), limit)
	if err != nil {
		errInternal.WriteError(w)
		return
	}
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{ID: e.ID, Event: e.Event, Details: e.Details, CreatedAt: e.CreatedAt})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func formUnix(r *http.Request, field string, fallback int64) (int64, error) {
	v := r.Form.Get(field)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
