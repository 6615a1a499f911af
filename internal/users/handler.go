package users

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/authz"
	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/routing"
)

// UsersWindow is the window protecting user management.
const UsersWindow = "users"

// Handler wires HTTP endpoints for user management.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     authn.Gate
	perms    authz.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate authn.Gate, perms authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, perms: perms, validate: validator.New()}
}

// MountRoutes registers user-management routes.
func (h *Handler) MountRoutes(rt *routing.Builder) {
	window := authz.WindowByName(UsersWindow)
	guard := func(next http.HandlerFunc, actions ...authz.Action) http.Handler {
		return chi.Chain(h.gate.Require, h.perms.RequireWindow(window, actions...)).HandlerFunc(next)
	}

	rt.Handle(http.MethodGet, "/api/users", guard(h.list, authz.ActionRead))
	rt.Handle(http.MethodGet, "/api/users/:id", guard(h.get, authz.ActionRead))
	rt.Handle(http.MethodPost, "/api/users", guard(h.create, authz.ActionCreate))
	rt.Handle(http.MethodPut, "/api/users/:id", guard(h.update, authz.ActionUpdate))
	rt.Handle(http.MethodDelete, "/api/users/:id", guard(h.deactivate, authz.ActionDelete))
	rt.Handle(http.MethodPost, "/api/users/:id/roles", guard(h.assignRole, authz.ActionUpdate))
	rt.Handle(http.MethodDelete, "/api/users/:id/roles/:idRole", guard(h.removeRole, authz.ActionUpdate))
}

type createUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	Password string  `json:"password" validate:"required,min=8"`
	RoleIDs  []int64 `json:"roleIds" validate:"required,min=1"`
}

type updateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	IsActive bool    `json:"isActive"`
	RoleIDs  []int64 `json:"roleIds" validate:"required,min=1"`
}

type assignRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	RoleIDs   []int64   `json:"roleIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		RoleIDs:   u.RoleIDs,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, len(list))
	for i, u := range list {
		out[i] = toUserResponse(u)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Name, req.Password, req.RoleIDs)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.UpdateUser(r.Context(), id, UpdateParams{
		Email:    req.Email,
		Name:     req.Name,
		IsActive: req.IsActive,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req assignRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.AssignRole(r.Context(), id, req.RoleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "idRole")
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), id, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(routing.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return false
	}
	return true
}
