package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-cms/amparo-cms/internal/auth"
	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/authz"
	"github.com/amparo-cms/amparo-cms/internal/observability"
	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/rbac"
	"github.com/amparo-cms/amparo-cms/internal/routing"
	"github.com/amparo-cms/amparo-cms/internal/shared"
	"github.com/amparo-cms/amparo-cms/internal/users"
)

// AdminRoleName guards the coarse administrator-only endpoints.
const AdminRoleName = "administrator"

// RouterParams groups dependencies for building the HTTP handler.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Gate               authn.Gate
	Authz              authz.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbac.Handler
	Metrics            *observability.Metrics
}

// NewRouter builds the route table once at startup, wraps it in the
// middleware stack and returns the immutable handler. Dispatch afterwards is
// read-only and safe for concurrent use.
func NewRouter(params RouterParams) http.Handler {
	rt := routing.NewBuilder()
	rt.NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.ErrRouteNotFound)
	}))

	rt.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(rt)
	params.UsersHandler.MountRoutes(rt)
	params.PermissionsHandler.MountRoutes(rt)
	params.PermissionsHandler.MountAdminRoutes(rt, params.Authz.RequireRoles(AdminRoleName))

	if params.Metrics != nil {
		rt.Handle(http.MethodGet, "/metrics",
			chi.Chain(params.Gate.Require, params.Authz.RequireRoles(AdminRoleName)).Handler(params.Metrics.Handler()))
	}

	var handler http.Handler = rt.Build()
	stack := MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return handler
}
