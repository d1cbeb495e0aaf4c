package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/tenantflow/tenantflow/internal/audit/http"
	"github.com/tenantflow/tenantflow/internal/auth"
	"github.com/tenantflow/tenantflow/internal/observability"
	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/projects"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/tasks"
	"github.com/tenantflow/tenantflow/internal/tenants"
	"github.com/tenantflow/tenantflow/internal/users"
	"github.com/tenantflow/tenantflow/jobs"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	DB             Pinger
	Authenticator  *auth.Authenticator
	RBACMiddleware rbac.Middleware

	AuthHandler     *auth.Handler
	TenantsHandler  *tenants.Handler
	UsersHandler    *users.Handler
	ProjectsHandler *projects.Handler
	TasksHandler    *tasks.Handler
	AuditHandler    *audithttp.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.DB))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", healthHandler(params.DB))
		params.AuthHandler.MountPublic(r)
		params.TenantsHandler.MountPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Authenticator.Middleware)
			params.AuthHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireScope())
				params.TenantsHandler.MountRoutes(r)
				params.UsersHandler.MountRoutes(r)
				params.ProjectsHandler.MountRoutes(r)
				params.TasksHandler.MountRoutes(r)
				if params.AuditHandler != nil {
					r.With(params.RBACMiddleware.RequireRole(rbac.RoleTenantAdmin)).Group(params.AuditHandler.MountRoutes)
				}
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "route not found", "")
	})
	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
	}
}
