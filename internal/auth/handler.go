package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	validator  *validator.Validate
	loginLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. loginLimit wraps the login route and may be nil.
func NewHandler(logger *slog.Logger, service *Service, loginLimit func(http.Handler) http.Handler) *Handler {
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:     logger,
		service:    service,
		validator:  httpx.NewValidator(),
		loginLimit: loginLimit,
	}
}

// MountPublic registers routes that need no credential.
func (h *Handler) MountPublic(r chi.Router) {
	r.With(h.loginLimit).Post("/auth/login", h.handleLogin)
}

// MountRoutes registers routes for authenticated callers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.Data(w, http.StatusOK, session)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	profile, err := h.service.Me(r.Context(), p.UserID)
	if err != nil {
		h.fail(w, "me", err)
		return
	}
	httpx.Data(w, http.StatusOK, profile)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Kind(err) == shared.KindUnexpected && h.logger != nil {
		h.logger.Error("auth "+op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
