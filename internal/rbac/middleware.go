package rbac

import (
	"log/slog"
	"net/http"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// DenialObserver receives authorization rejections for metrics.
type DenialObserver interface {
	ObserveDenial(kind string)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger   *slog.Logger
	Observer DenialObserver
}

// RequireScope rejects principals without a usable tenant scope.
func (m Middleware) RequireScope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := MustPrincipal(r.Context())
			if err == nil {
				_, err = ScopeFor(p)
			}
			if err != nil {
				m.deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the current principal has at least min authority.
func (m Middleware) RequireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := MustPrincipal(r.Context())
			if err == nil {
				err = Check(p, RoleAtLeast(min))
			}
			if err != nil {
				m.deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	kind := shared.Kind(err)
	if m.Observer != nil {
		m.Observer.ObserveDenial(kind)
	}
	if m.Logger != nil {
		m.Logger.Debug("rbac deny", slog.String("path", r.URL.Path), slog.String("kind", kind))
	}
	httpx.RespondError(w, err)
}
