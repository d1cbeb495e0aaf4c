package projects

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Handler exposes project endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/projects", h.handleCreate)
	r.Get("/projects", h.handleList)
	r.Get("/projects/{projectID}", h.handleGet)
	r.Put("/projects/{projectID}", h.handleUpdate)
	r.Delete("/projects/{projectID}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
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
	project, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, "create project", err)
		return
	}
	httpx.Data(w, http.StatusCreated, project)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), p, ListFilters{
		TenantID: httpx.QueryValue(r, "tenantId"),
		Status:   httpx.QueryValue(r, "status"),
	})
	if err != nil {
		h.fail(w, "list projects", err)
		return
	}
	httpx.Data(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	project, err := h.service.Get(r.Context(), p, chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, "get project", err)
		return
	}
	httpx.Data(w, http.StatusOK, project)
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
	project, err := h.service.Update(r.Context(), p, chi.URLParam(r, "projectID"), in)
	if err != nil {
		h.fail(w, "update project", err)
		return
	}
	httpx.Data(w, http.StatusOK, project)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "projectID")); err != nil {
		h.fail(w, "delete project", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Project deleted")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Kind(err) == shared.KindUnexpected {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
