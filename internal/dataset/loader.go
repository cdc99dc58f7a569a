// Package dataset loads the sales table from a file, an S3 object or a SQLite
// database and keeps the loaded copy for the life of the process.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 8
)

var (
	ErrMissingColumn = errors.New("missing expected column")
	ErrEmptyDataset  = errors.New("dataset is empty")
)

// Expected column headers.
const (
	ColOrderDate   = "Order Date"
	ColRegion      = "Region"
	ColCategory    = "Category"
	ColSubCategory = "Sub-Category"
	ColProductName = "Product Name"
	ColSales       = "Sales"
	ColProfit      = "Profit"
	ColQuantity    = "Quantity"
	ColDiscount    = "Discount"
)

var expectedColumns = []string{
	ColOrderDate, ColRegion, ColCategory, ColSubCategory, ColProductName,
	ColSales, ColProfit, ColQuantity, ColDiscount,
}

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006 15:04",
	"02-01-2006",
	"Jan 2, 2006",
}

// Loader reads a Source into a Table, going through the on-disk cache when
// one is configured.
type Loader struct {
	source Source
	cache  *Cache
	logger *slog.Logger
}

func NewLoader(source Source, cache *Cache, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		cache:  cache,
		logger: logger.With("component", "dataset"),
	}
}

func (l *Loader) Source() Source { return l.source }

func (l *Loader) Load(ctx context.Context) (*models.Table, error) {
	modTime, err := l.source.ModTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", l.source.Name(), err)
	}

	if l.cache != nil && !modTime.IsZero() {
		if table, err := l.cache.Load(l.source.Name(), modTime); err == nil {
			l.logger.Info("loaded from cache", "source", l.source.Name(), "records", table.Len())
			return table, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			l.logger.Warn("ignoring unreadable cache", "source", l.source.Name(), "error", err)
		}
	}

	start := time.Now()
	l.logger.Info("processing dataset", "source", l.source.Name())

	rows, err := Read(ctx, l.source)
	if err != nil {
		return nil, err
	}
	table := models.NewTable(rows, modTime)

	if l.cache != nil && !modTime.IsZero() {
		if err := l.cache.Save(l.source.Name(), table); err != nil {
			l.logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	l.logger.Info("dataset processing complete",
		"records", table.Len(),
		"missing_dates", table.MissingDates(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(table.Len())/duration.Seconds()))

	return table, nil
}

// Read parses every record of src. Bad dates become missing; bad numbers and
// absent columns are errors.
func Read(ctx context.Context, src Source) ([]models.Transaction, error) {
	records, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer records.Close()

	header, err := records.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	var batches []*[]models.Transaction
	batch := make([][]string, 0, batchSize)
	firstLine := 2

	flush := func() {
		slot := new([]models.Transaction)
		batches = append(batches, slot)
		lines, startLine := batch, firstLine
		g.Go(func() error {
			parsed, err := parseBatch(gctx, lines, cols, startLine)
			if err != nil {
				return err
			}
			*slot = parsed
			return nil
		})
		firstLine += len(batch)
		batch = make([][]string, 0, batchSize)
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, err
		}

		record, err := records.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("read line %d: %w", firstLine+len(batch), err)
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			flush()
		}
	}
	if len(batch) > 0 {
		flush()
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, b := range batches {
		total += len(*b)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyDataset)
	}

	rows := make([]models.Transaction, 0, total)
	for _, b := range batches {
		rows = append(rows, *b...)
	}
	return rows, nil
}

type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(expectedColumns))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var missing []string
	for _, name := range expectedColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columnIndex) get(record []string, name string) string {
	i := c[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseBatch(ctx context.Context, lines [][]string, cols columnIndex, firstLine int) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(lines))
	for i, record := range lines {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tx, err := parseTransaction(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", firstLine+i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func parseTransaction(record []string, cols columnIndex) (models.Transaction, error) {
	tx := models.Transaction{
		Region:      cols.get(record, ColRegion),
		Category:    cols.get(record, ColCategory),
		SubCategory: cols.get(record, ColSubCategory),
		ProductName: cols.get(record, ColProductName),
	}

	if date, ok := ParseOrderDate(cols.get(record, ColOrderDate)); ok {
		tx.OrderDate = date
		tx.HasDate = true
		tx.Year = date.Year()
		tx.Month = int(date.Month())
	}

	var err error
	if tx.Sales, err = parseAmount(cols.get(record, ColSales)); err != nil {
		return tx, fmt.Errorf("column %q: %w", ColSales, err)
	}
	if tx.Profit, err = parseAmount(cols.get(record, ColProfit)); err != nil {
		return tx, fmt.Errorf("column %q: %w", ColProfit, err)
	}
	if tx.Discount, err = parseAmount(cols.get(record, ColDiscount)); err != nil {
		return tx, fmt.Errorf("column %q: %w", ColDiscount, err)
	}
	qty, err := parseAmount(cols.get(record, ColQuantity))
	if err != nil {
		return tx, fmt.Errorf("column %q: %w", ColQuantity, err)
	}
	tx.Quantity = int(qty)

	return tx, nil
}

// ParseOrderDate tries each supported layout. The second result is false when
// none matches.
func ParseOrderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount reads an empty or NaN cell as 0 and tolerates a leading $ and
// thousands separators. Infinities are rejected.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) {
		return 0, nil
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
