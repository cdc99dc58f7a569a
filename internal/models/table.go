package models

import (
	"slices"
	"time"
)

// Table is the loaded dataset. It is never modified after NewTable returns;
// rows are handed out by value.
type Table struct {
	rows         []Transaction
	regions      []string
	categories   []string
	minYear      int
	maxYear      int
	missingDates int
	loadedAt     time.Time
	sourceTime   time.Time
}

// NewTable takes ownership of rows. sourceTime is the modification time of
// the data the rows were read from.
func NewTable(rows []Transaction, sourceTime time.Time) *Table {
	t := &Table{
		rows:       rows,
		loadedAt:   time.Now(),
		sourceTime: sourceTime,
	}

	seenRegion := make(map[string]bool)
	seenCategory := make(map[string]bool)
	for _, r := range rows {
		if !seenRegion[r.Region] {
			seenRegion[r.Region] = true
			t.regions = append(t.regions, r.Region)
		}
		if !seenCategory[r.Category] {
			seenCategory[r.Category] = true
			t.categories = append(t.categories, r.Category)
		}

		if !r.HasDate {
			t.missingDates++
			continue
		}
		if t.minYear == 0 || r.Year < t.minYear {
			t.minYear = r.Year
		}
		if r.Year > t.maxYear {
			t.maxYear = r.Year
		}
	}

	return t
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Row(i int) Transaction { return t.rows[i] }

// Options returns copies of the observed regions and categories (first-seen
// order) and the year span of dated rows.
func (t *Table) Options() FilterOptions {
	return FilterOptions{
		Regions:    slices.Clone(t.regions),
		Categories: slices.Clone(t.categories),
		MinYear:    t.minYear,
		MaxYear:    t.maxYear,
	}
}

func (t *Table) MissingDates() int { return t.missingDates }

func (t *Table) LoadedAt() time.Time { return t.loadedAt }

func (t *Table) SourceTime() time.Time { return t.sourceTime }

// View is a read-only subset of a table, stored as row indices.
type View struct {
	table   *Table
	indices []int
}

// NewView returns a view over the given row indices of t.
func NewView(t *Table, indices []int) View {
	return View{table: t, indices: indices}
}

// All returns a view of every row in t.
func All(t *Table) View {
	indices := make([]int, t.Len())
	for i := range indices {
		indices[i] = i
	}
	return NewView(t, indices)
}

func (v View) Len() int { return len(v.indices) }

func (v View) At(i int) Transaction { return v.table.rows[v.indices[i]] }
