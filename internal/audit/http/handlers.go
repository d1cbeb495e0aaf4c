package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/platform/httpx"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 50
	maxDateRangeHours = 24 * 90
	dateLayout        = "2006-01-02"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Entry, error)
}

// Handler serves the audit log read API.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
}

// NewHandler creates a new audit handler.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.authorizedFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	httpx.Data(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.authorizedFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export audit timeline", err)
		return
	}
	csvBytes, err := audit.WriteCSV(rows)
	if err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-logs.csv\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

// authorizedFilters resolves the tenant filter from the caller's scope and applies the policy row.
func (h *Handler) authorizedFilters(r *http.Request) (audit.TimelineFilters, error) {
	p, err := rbac.MustPrincipal(r.Context())
	if err != nil {
		return audit.TimelineFilters{}, err
	}
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return audit.TimelineFilters{}, err
	}
	filters, err := parseFilters(r)
	if err != nil {
		return audit.TimelineFilters{}, err
	}
	if !scope.Unscoped {
		if filters.TenantID != "" && filters.TenantID != scope.TenantID {
			return audit.TimelineFilters{}, shared.ErrForbidden
		}
		filters.TenantID = scope.TenantID
	}
	if err := rbac.Authorize(p, rbac.ActionAuditList, rbac.Target{TenantID: filters.TenantID}); err != nil {
		return audit.TimelineFilters{}, err
	}
	return filters, nil
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	var filters audit.TimelineFilters

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return audit.TimelineFilters{}, shared.Validationf("from must be YYYY-MM-DD")
		}
		filters.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return audit.TimelineFilters{}, shared.Validationf("to must be YYYY-MM-DD")
		}
		filters.To = to
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if filters.From.After(filters.To) {
			return audit.TimelineFilters{}, shared.Validationf("from is after to")
		}
		if filters.To.Sub(filters.From) > maxDateRangeHours*time.Hour {
			return audit.TimelineFilters{}, shared.Validationf("range exceeds 90 days")
		}
	}

	filters.Page = 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, shared.Validationf("page must be a positive integer")
		}
		filters.Page = parsed
	}
	filters.PageSize = defaultPageSize
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, shared.Validationf("limit must be a positive integer")
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		filters.PageSize = parsed
	}

	filters.TenantID = strings.TrimSpace(q.Get("tenantId"))
	if filters.TenantID != "" && uuid.Validate(filters.TenantID) != nil {
		return audit.TimelineFilters{}, shared.Validationf("tenantId must be a valid id")
	}
	filters.Actor = strings.TrimSpace(q.Get("userId"))
	if filters.Actor != "" && uuid.Validate(filters.Actor) != nil {
		return audit.TimelineFilters{}, shared.Validationf("userId must be a valid id")
	}
	filters.Entity = strings.TrimSpace(q.Get("entityType"))
	filters.Action = strings.TrimSpace(q.Get("action"))
	return filters, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.RespondError(w, err)
}
