package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Verifier decodes a bearer credential into a principal.
type Verifier interface {
	Verify(raw string) (rbac.Principal, error)
}

// Authenticator resolves the request principal from the Authorization header.
type Authenticator struct {
	verifier Verifier
	logger   *slog.Logger
	observer rbac.DenialObserver
}

// NewAuthenticator constructs an Authenticator. observer may be nil.
func NewAuthenticator(verifier Verifier, logger *slog.Logger, observer rbac.DenialObserver) *Authenticator {
	return &Authenticator{verifier: verifier, logger: logger, observer: observer}
}

// Resolve extracts and verifies the bearer credential in header.
func (a *Authenticator) Resolve(header string) (rbac.Principal, error) {
	if header == "" {
		return rbac.Principal{}, shared.ErrMissingCredential
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return rbac.Principal{}, shared.ErrMalformedCredential
	}
	return a.verifier.Verify(parts[1])
}

// Middleware stores the verified principal on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Resolve(r.Header.Get("Authorization"))
		if err != nil {
			kind := shared.Kind(err)
			if a.observer != nil {
				a.observer.ObserveDenial(kind)
			}
			if a.logger != nil {
				a.logger.Debug("authentication failed", slog.String("kind", kind), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(r.Context(), p)))
	})
}
