package handler

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/catalog"
	"github.com/penshort/budgetdesk/internal/handler/dto"
	"github.com/penshort/budgetdesk/internal/service"
)

// AllocationHandler serves the verified user's allocations. Routes are
// mounted behind middleware.RequireVerified.
type AllocationHandler struct {
	alloc    *service.AllocationService
	reports  *service.ReportService
	projects *catalog.Projects
	logger   *slog.Logger
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(alloc *service.AllocationService, reports *service.ReportService, projects *catalog.Projects, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{alloc: alloc, reports: reports, projects: projects, logger: logger}
}

// List handles GET /api/v1/allocations.
func (h *AllocationHandler) List(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)

	allocations, err := h.alloc.GetUserAllocations(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var total int64
	for _, amount := range allocations {
		total += amount
	}

	writeJSON(w, http.StatusOK, dto.AllocationsResponse{
		Response:    dto.OK(""),
		Allocations: allocations,
		Total:       total,
	})
}

// Summary handles GET /api/v1/allocations/summary.
func (h *AllocationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.alloc.Summary(r.Context(), currentEmail(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SummaryResponse{Response: dto.OK(""), AllocationSummary: summary})
}

// Validate handles POST /api/v1/allocations/{projectID}/validate.
func (h *AllocationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	projectID, amount, ok := h.readAllocation(w, r)
	if !ok {
		return
	}

	if err := h.alloc.ValidateAllocation(r.Context(), currentEmail(r), projectID, amount); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OK(service.MsgAllocationValid))
}

// Put handles PUT /api/v1/allocations/{projectID}. The budget check and the
// write happen atomically.
func (h *AllocationHandler) Put(w http.ResponseWriter, r *http.Request) {
	projectID, amount, ok := h.readAllocation(w, r)
	if !ok {
		return
	}

	summary, err := h.alloc.Allocate(r.Context(), currentEmail(r), projectID, amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SummaryResponse{Response: dto.OK(service.MsgAllocationSaved), AllocationSummary: summary})
}

// Categories handles GET /api/v1/allocations/categories.
func (h *AllocationHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.reports.CategoryBreakdown(r.Context(), currentEmail(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CategoriesResponse{Response: dto.OK(""), Categories: categories})
}

// Export handles GET /api/v1/allocations/export?format=json|csv.
func (h *AllocationHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT", "Format must be json or csv.")
		return
	}

	rows, err := h.reports.Export(r.Context(), currentEmail(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, dto.ExportResponse{Response: dto.OK(""), Rows: rows})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="allocations.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(service.ExportHeader)
	for _, row := range rows {
		_ = cw.Write(row.Record())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.WarnContext(r.Context(), "export_write_failed", slog.String("error", err.Error()))
	}
}

// readAllocation parses the project id and amount. It writes the error
// response and returns ok=false on failure.
func (h *AllocationHandler) readAllocation(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	projectID := chi.URLParam(r, "projectID")
	if h.projects != nil && h.projects.Len() > 0 {
		if _, found := h.projects.Get(projectID); !found {
			writeError(w, http.StatusNotFound, CodeUnknownProject, "Project not found.")
			return "", 0, false
		}
	}

	var req dto.AllocationRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errInvalidBody) {
			writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body.")
			return "", 0, false
		}
		writeServiceError(w, r, h.logger, service.ErrInvalidAmount)
		return "", 0, false
	}

	amount, err := service.ParseAmount(req.Amount.String())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return "", 0, false
	}
	return projectID, amount, true
}

func currentEmail(r *http.Request) string {
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		return sess.Email
	}
	return ""
}
