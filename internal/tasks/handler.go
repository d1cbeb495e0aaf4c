package tasks

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Handler exposes task endpoints.
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

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/projects/{projectID}/tasks", h.handleCreate)
	r.Get("/projects/{projectID}/tasks", h.handleList)
	r.Get("/tasks/{taskID}", h.handleGet)
	r.Put("/tasks/{taskID}", h.handleUpdate)
	r.Patch("/tasks/{taskID}/status", h.handleStatus)
	r.Delete("/tasks/{taskID}", h.handleDelete)
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
	task, err := h.service.Create(r.Context(), p, chi.URLParam(r, "projectID"), in)
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	httpx.Data(w, http.StatusCreated, task)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f := ListFilters{
		Status:     httpx.QueryValue(r, "status"),
		Priority:   httpx.QueryValue(r, "priority"),
		AssignedTo: httpx.QueryValue(r, "assignedTo"),
	}
	if err := h.validator.Var(f.Status, "omitempty,oneof=todo in_progress completed"); err != nil {
		httpx.RespondError(w, shared.Validationf("status must be one of todo, in_progress, completed"))
		return
	}
	if err := h.validator.Var(f.Priority, "omitempty,oneof=low medium high"); err != nil {
		httpx.RespondError(w, shared.Validationf("priority must be one of low, medium, high"))
		return
	}
	if err := h.validator.Var(f.AssignedTo, "omitempty,uuid"); err != nil {
		httpx.RespondError(w, shared.Validationf("assignedTo must be a user id"))
		return
	}
	out, err := h.service.List(r.Context(), p, chi.URLParam(r, "projectID"), f)
	if err != nil {
		h.fail(w, "list tasks", err)
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
	task, err := h.service.Get(r.Context(), p, chi.URLParam(r, "taskID"))
	if err != nil {
		h.fail(w, "get task", err)
		return
	}
	httpx.Data(w, http.StatusOK, task)
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
	task, err := h.service.Update(r.Context(), p, chi.URLParam(r, "taskID"), in)
	if err != nil {
		h.fail(w, "update task", err)
		return
	}
	httpx.Data(w, http.StatusOK, task)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in StatusInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.UpdateStatus(r.Context(), p, chi.URLParam(r, "taskID"), in)
	if err != nil {
		h.fail(w, "update task status", err)
		return
	}
	httpx.Data(w, http.StatusOK, task)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "taskID")); err != nil {
		h.fail(w, "delete task", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Task deleted")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Kind(err) == shared.KindUnexpected {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
