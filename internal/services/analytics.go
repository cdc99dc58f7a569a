package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

var ErrInvalidSelection = errors.New("invalid selection")

// Recompute filters t by sel and runs every aggregate over the result.
func Recompute(t *models.Table, sel models.Selection) models.Dashboard {
	view := ApplyFilter(t, sel)

	return models.Dashboard{
		Selection: models.Selection{
			Regions:    nonNil(slices.Clone(sel.Regions)),
			Categories: nonNil(slices.Clone(sel.Categories)),
			YearFrom:   sel.YearFrom,
			YearTo:     sel.YearTo,
		},
		RowCount: view.Len(),
		KPIs: models.KPIs{
			TotalSales:      TotalSales(view),
			TotalProfit:     TotalProfit(view),
			AvgProfitMargin: AverageProfitMargin(view),
		},
		SalesByCategory:     SalesByCategory(view),
		SalesByRegion:       SalesByRegion(view),
		MonthlyTrend:        MonthlySalesTrend(view),
		TopProducts:         TopProductsBySales(view, TopProductsLimit),
		ProfitBySubCategory: ProfitBySubCategory(view),
	}
}

// TableStore is the part of dataset.Store the analytics service needs.
type TableStore interface {
	Get(ctx context.Context) (*models.Table, error)
	Reload(ctx context.Context) (*models.Table, error)
	Current() *models.Table
}

type Analytics struct {
	store   TableStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAnalytics binds the pipeline to store. metrics may be nil.
func NewAnalytics(store TableStore, logger *slog.Logger, metrics *observability.Metrics) *Analytics {
	return &Analytics{
		store:   store,
		logger:  logger.With("component", "analytics"),
		metrics: metrics,
	}
}

func (a *Analytics) Options(ctx context.Context) (models.FilterOptions, error) {
	t, err := a.store.Get(ctx)
	if err != nil {
		return models.FilterOptions{}, err
	}
	return t.Options(), nil
}

func (a *Analytics) DefaultSelection(ctx context.Context) (models.Selection, error) {
	t, err := a.store.Get(ctx)
	if err != nil {
		return models.Selection{}, err
	}
	return DefaultSelection(t), nil
}

// Dashboard validates sel against the current table and recomputes. Invalid
// selections wrap ErrInvalidSelection.
func (a *Analytics) Dashboard(ctx context.Context, sel models.Selection) (models.Dashboard, error) {
	t, err := a.store.Get(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	if err := ValidateSelection(t, sel); err != nil {
		return models.Dashboard{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	_, span := observability.StartSpan(ctx, "recompute")
	start := time.Now()

	dashboard := Recompute(t, sel)

	elapsed := time.Since(start)
	span.SetTag("rows", strconv.Itoa(dashboard.RowCount))
	span.Finish()
	if a.metrics != nil {
		a.metrics.ObserveRecompute(dashboard.RowCount, elapsed)
	}

	a.logger.Debug("dashboard recomputed",
		"span", span,
		"request_id", observability.GetRequestID(ctx),
		"regions", len(sel.Regions),
		"categories", len(sel.Categories),
		"year_from", sel.YearFrom,
		"year_to", sel.YearTo,
	)
	return dashboard, nil
}

func (a *Analytics) Reload(ctx context.Context) (*models.Table, error) {
	return a.store.Reload(ctx)
}

// Stats describes the loaded table. It never triggers a load.
func (a *Analytics) Stats() map[string]any {
	t := a.store.Current()
	if t == nil {
		return map[string]any{"loaded": false}
	}

	opts := t.Options()
	return map[string]any{
		"loaded":        true,
		"record_count":  t.Len(),
		"missing_dates": t.MissingDates(),
		"regions":       len(opts.Regions),
		"categories":    len(opts.Categories),
		"min_year":      opts.MinYear,
		"max_year":      opts.MaxYear,
		"loaded_at":     t.LoadedAt(),
		"source_time":   t.SourceTime(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
