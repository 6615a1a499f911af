package rbac

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/authz"
	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/routing"
)

// PermissionsWindow is the window protecting authorization management itself.
const PermissionsWindow = "permissions"

// Handler wires HTTP endpoints for authorization management.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    authn.Gate
	perms   authz.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate authn.Gate, perms authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, perms: perms}
}

// MountRoutes registers authorization-management routes.
func (h *Handler) MountRoutes(rt *routing.Builder) {
	window := authz.WindowByName(PermissionsWindow)
	guard := func(next http.HandlerFunc, actions ...authz.Action) http.Handler {
		return chi.Chain(h.gate.Require, h.perms.RequireWindow(window, actions...)).HandlerFunc(next)
	}

	rt.Handle(http.MethodGet, "/api/roles", guard(h.listRoles, authz.ActionRead))
	rt.Handle(http.MethodGet, "/api/windows", guard(h.listWindows, authz.ActionRead))
	rt.Handle(http.MethodGet, "/api/permissions/:idRole", guard(h.listRolePermissions, authz.ActionRead))
	rt.Handle(http.MethodGet, "/api/permissions/:idRole/:idWindow", guard(h.getPermission, authz.ActionRead))
	rt.Handle(http.MethodPut, "/api/permissions/:idRole/:idWindow", guard(h.upsertPermission, authz.ActionUpdate))
	rt.Handle(http.MethodDelete, "/api/permissions/:idRole/:idWindow", guard(h.deletePermission, authz.ActionDelete))
}

// MountAdminRoutes registers the coarse administrator-only report routes.
// They sit behind the role gate rather than a window permission.
func (h *Handler) MountAdminRoutes(rt *routing.Builder, requireAdmin func(http.Handler) http.Handler) {
	rt.Handle(http.MethodGet, "/api/admin/access-overview",
		chi.Chain(h.gate.Require, requireAdmin).HandlerFunc(h.accessOverview))
}

type roleResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type windowResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type permissionResponse struct {
	RoleID   int64 `json:"roleId"`
	WindowID int64 `json:"windowId"`
	authz.PermissionSet
}

func toPermissionResponse(p RoleWindowPermission) permissionResponse {
	return permissionResponse{RoleID: p.RoleID, WindowID: p.WindowID, PermissionSet: p.Set}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = roleResponse{ID: role.ID, Name: role.Name, IsActive: role.IsActive}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.service.ListWindows(r.Context())
	if err != nil {
		h.logger.Error("list windows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]windowResponse, len(windows))
	for i, win := range windows {
		out[i] = windowResponse{ID: win.ID, Name: win.Name, IsActive: win.IsActive}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "idRole")
	if !ok {
		return
	}
	perms, err := h.service.ListRolePermissions(r.Context(), roleID)
	if err != nil {
		h.logger.Error("list role permissions", slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = toPermissionResponse(p)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "idRole")
	if !ok {
		return
	}
	windowID, ok := pathID(w, r, "idWindow")
	if !ok {
		return
	}
	p, err := h.service.GetPermission(r.Context(), roleID, windowID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(p))
}

func (h *Handler) upsertPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "idRole")
	if !ok {
		return
	}
	windowID, ok := pathID(w, r, "idWindow")
	if !ok {
		return
	}
	var set authz.PermissionSet
	if err := httpx.DecodeJSON(r, &set); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	p, err := h.service.UpsertPermission(r.Context(), roleID, windowID, set)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(p))
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(w, r, "idRole")
	if !ok {
		return
	}
	windowID, ok := pathID(w, r, "idWindow")
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), roleID, windowID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type accessOverviewResponse struct {
	Roles         []roleResponse   `json:"roles"`
	Windows       []windowResponse `json:"windows"`
	ActiveRoles   int              `json:"activeRoles"`
	ActiveWindows int              `json:"activeWindows"`
}

func (h *Handler) accessOverview(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("access overview roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	windows, err := h.service.ListWindows(r.Context())
	if err != nil {
		h.logger.Error("access overview windows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := accessOverviewResponse{
		Roles:   make([]roleResponse, len(roles)),
		Windows: make([]windowResponse, len(windows)),
	}
	for i, role := range roles {
		out.Roles[i] = roleResponse{ID: role.ID, Name: role.Name, IsActive: role.IsActive}
		if role.IsActive {
			out.ActiveRoles++
		}
	}
	for i, win := range windows {
		out.Windows[i] = windowResponse{ID: win.ID, Name: win.Name, IsActive: win.IsActive}
		if win.IsActive {
			out.ActiveWindows++
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

// pathID parses a numeric path parameter, responding with a validation
// problem on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(routing.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return 0, false
	}
	return id, true
}
