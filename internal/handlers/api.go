package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/deck"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	version      = "1.0.0"
	requestLimit = 10 * time.Second
	deckFilename = "dashboard_summary.pptx"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard serves GET /api/dashboard?region=..&category=..&year_from=..&year_to=..
func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestLimit)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	def, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset is not available"), requestID)
		return
	}

	sel, err := selectionFromQuery(r.URL.Query(), def)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Malformed filter parameters"), requestID)
		return
	}

	dashboard, err := h.analytics.Dashboard(ctx, sel)
	if err != nil {
		errors.WriteError(w, h.logger, dashboardError(err), requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, dashboard, map[string]string{
		"Cache-Control": "no-store",
	})
}

type filtersResponse struct {
	Options models.FilterOptions `json:"options"`
	Default models.Selection     `json:"default"`
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	opts, err := h.analytics.Options(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset is not available"), requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, filtersResponse{
		Options: opts,
		Default: models.Selection{
			Regions:    opts.Regions,
			Categories: opts.Categories,
			YearFrom:   opts.MinYear,
			YearTo:     opts.MaxYear,
		},
	}, map[string]string{
		"Cache-Control": "public, max-age=60",
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	if stats["loaded"] != true {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("Dataset not loaded"), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
		"records":   stats["record_count"],
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload re-reads the dataset. A failed reload leaves the current table
// in place and reports 503.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	start := time.Now()
	if _, err := h.analytics.Reload(r.Context()); err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset reload failed"), requestID)
		return
	}

	h.logger.Info("dataset reloaded on request", "duration", time.Since(start), "request_id", requestID)
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) HandleDeck(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := deck.WritePPTX(&buf, deck.Summary()); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build slide deck"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition", `attachment; filename="`+deckFilename+`"`)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("client went away", "error", err, "request_id", observability.GetRequestID(r.Context()))
	}
}

func dashboardError(err error) error {
	if stderrors.Is(err, services.ErrInvalidSelection) {
		return errors.ValidationWrap(err, "Invalid filter selection")
	}
	return errors.ServiceUnavailableWrap(err, "Dataset is not available")
}
