package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tenants/{tenantID}/users", h.createUser)
	r.Get("/tenants/{tenantID}/users", h.listUsers)
	r.Put("/users/{userID}", h.updateUser)
	r.Delete("/users/{userID}", h.deleteUser)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CreateInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Create(r.Context(), p, chi.URLParam(r, "tenantID"), in)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.Data(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f := ListFilters{Role: httpx.QueryValue(r, "role")}
	if f.Role != "" {
		if _, err := rbac.ParseRole(f.Role); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	users, err := h.service.List(r.Context(), p, chi.URLParam(r, "tenantID"), f)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.Data(w, http.StatusOK, users)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
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
	user, err := h.service.Update(r.Context(), p, chi.URLParam(r, "userID"), in)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.Data(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "userID")); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.Message(w, http.StatusOK, "User deleted")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Kind(err) == shared.KindUnexpected {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
