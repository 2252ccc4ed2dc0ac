// Package http contains the chi handlers that expose reconstructed
// cross-border flow data to presentation collaborators.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "fluxnet/internal/errors"
	"fluxnet/internal/exchange"
	"fluxnet/internal/middleware"
	"fluxnet/internal/services"
)

// FlowService is the service surface the handler consumes.
type FlowService interface {
	Aggregate(ctx context.Context, g exchange.Granularity, from, to time.Time) (*exchange.Table, error)
	Summary(ctx context.Context, from, to time.Time) (*services.Summary, error)
	TopDays(ctx context.Context, n int, from, to time.Time) (*services.TopDays, error)
	Partners(ctx context.Context) ([]string, error)
}

// FlowHandler handles flow-data HTTP requests.
type FlowHandler struct {
	service FlowService
	logger  *slog.Logger
}

// NewFlowHandler creates a new flow handler.
func NewFlowHandler(service FlowService, logger *slog.Logger) *FlowHandler {
	return &FlowHandler{
		service: service,
		logger:  logger.With(slog.String("component", "flow_handler")),
	}
}

// Routes returns the flow routes.
func (h *FlowHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetFlows)
	r.Get("/summary", h.GetSummary)
	r.Get("/partners", h.GetPartners)
	r.Get("/top-days", h.GetTopDays)

	return r
}

// GetFlows handles GET /api/flows?granularity=&from=&to=.
func (h *FlowHandler) GetFlows(w http.ResponseWriter, r *http.Request) {
	granularity := exchange.Monthly // the dashboard's default view
	if raw := r.URL.Query().Get("granularity"); raw != "" {
		parsed, err := exchange.ParseGranularity(raw)
		if err != nil {
			h.writeError(w, r, apierrors.ErrValidation("granularity", err.Error()))
			return
		}
		granularity = parsed
	}

	from, to, apiErr := parseRange(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	table, err := h.service.Aggregate(r.Context(), granularity, from, to)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      "success",
		"granularity": string(granularity),
		"count":       len(table.Records),
		"data":        table.Records,
	})
}

// GetSummary handles GET /api/flows/summary?from=&to=.
func (h *FlowHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to, apiErr := parseRange(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	summary, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetPartners handles GET /api/flows/partners.
func (h *FlowHandler) GetPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.service.Partners(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   partners,
		"count":  len(partners),
	})
}

// GetTopDays handles GET /api/flows/top-days?n=&from=&to=.
func (h *FlowHandler) GetTopDays(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			h.writeError(w, r, apierrors.ErrValidation("n", "must be an integer between 1 and 100"))
			return
		}
		n = parsed
	}

	from, to, apiErr := parseRange(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	top, err := h.service.TopDays(r.Context(), n, from, to)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   top,
	})
}

// parseRange reads the optional from/to date parameters. The "to" bound
// is inclusive of the whole named day.
func parseRange(r *http.Request) (from, to time.Time, apiErr *apierrors.APIError) {
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, apierrors.ErrValidation("from", "expected YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, apierrors.ErrValidation("to", "expected YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, apierrors.ErrValidation("to", "must not precede from")
	}
	return from, to, nil
}

// handleServiceError maps load-failure taxonomy onto API error codes. A
// failed load is fatal for the data source and is surfaced as such —
// never substituted with empty data.
func (h *FlowHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		schemaErr *exchange.SchemaError
		tsErr     *exchange.TimestampResolutionError
		flowErr   *exchange.NoFlowDataError
	)

	switch {
	case errors.As(err, &schemaErr):
		h.writeError(w, r, apierrors.ErrDatasetUnusable("SCHEMA_ERROR", err))
	case errors.As(err, &tsErr):
		h.writeError(w, r, apierrors.ErrDatasetUnusable("TIMESTAMP_RESOLUTION_ERROR", err))
	case errors.As(err, &flowErr):
		h.writeError(w, r, apierrors.ErrDatasetUnusable("NO_FLOW_DATA_ERROR", err))
	default:
		h.logger.ErrorContext(r.Context(), "unexpected service error",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.writeError(w, r, apierrors.ErrInternalServer)
	}
}

func (h *FlowHandler) writeError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("error_code", apiErr.ErrorCode),
			slog.String("path", r.URL.Path),
		)
	}
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apierrors.NewErrorResponse(apiErr))
}
