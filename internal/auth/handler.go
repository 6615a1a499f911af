package auth

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/routing"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// loginRateLimit caps login attempts per client IP.
const loginRateLimit = 10

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     authn.Gate
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate authn.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validate: validator.New()}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(rt *routing.Builder) {
	limit := httprate.Limit(loginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	rt.Handle(http.MethodPost, "/api/auth/login", chi.Chain(limit).HandlerFunc(h.login))
	rt.Handle(http.MethodPost, "/api/auth/logout", chi.Chain(h.gate.Require).HandlerFunc(h.logout))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  loginUserBody `json:"user"`
}

type loginUserBody struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	grant, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	roles := make([]string, len(grant.Roles))
	for i, role := range grant.Roles {
		roles[i] = role.Name
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		Token: grant.Token,
		User:  loginUserBody{ID: grant.ID, Email: grant.Email, Name: grant.Name, Roles: roles},
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, shared.ErrTokenRequired)
		return
	}
	if err := h.service.Logout(r.Context(), sub.Token); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
