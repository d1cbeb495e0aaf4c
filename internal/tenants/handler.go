package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Handler exposes tenant endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validator   *validator.Validate
	signupLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. signupLimit wraps the registration route and may be nil.
func NewHandler(logger *slog.Logger, service *Service, signupLimit func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if signupLimit == nil {
		signupLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator(), signupLimit: signupLimit}
}

// MountPublic registers the self-service signup.
func (h *Handler) MountPublic(r chi.Router) {
	r.With(h.signupLimit).Post("/auth/register-tenant", h.handleRegister)
}

// MountRoutes registers tenant administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tenants", h.handleList)
	r.Get("/tenants/{tenantID}", h.handleGet)
	r.Put("/tenants/{tenantID}", h.handleUpdate)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	reg, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.fail(w, "register tenant", err)
		return
	}
	httpx.Data(w, http.StatusCreated, reg)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, perPage, err := httpx.PageParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), p, ListFilters{
		Status:           httpx.QueryValue(r, "status"),
		SubscriptionPlan: httpx.QueryValue(r, "subscriptionPlan"),
		Page:             page,
		PerPage:          perPage,
	})
	if err != nil {
		h.fail(w, "list tenants", err)
		return
	}
	httpx.Data(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	details, err := h.service.Get(r.Context(), p, chi.URLParam(r, "tenantID"))
	if err != nil {
		h.fail(w, "get tenant", err)
		return
	}
	httpx.Data(w, http.StatusOK, details)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in UpdateInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tenant, err := h.service.Update(r.Context(), p, chi.URLParam(r, "tenantID"), in)
	if err != nil {
		h.fail(w, "update tenant", err)
		return
	}
	httpx.Data(w, http.StatusOK, tenant)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Kind(err) == shared.KindUnexpected {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
