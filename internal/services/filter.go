package services

import (
	"fmt"
	"slices"

	"sales-dashboard/internal/models"
)

// ApplyFilter returns the rows of t whose region and category are in the
// selection's sets and whose year lies in [YearFrom, YearTo]. Rows without a
// date never match.
func ApplyFilter(t *models.Table, sel models.Selection) models.View {
	regions := toSet(sel.Regions)
	categories := toSet(sel.Categories)

	indices := make([]int, 0)
	if len(regions) == 0 || len(categories) == 0 || sel.YearFrom > sel.YearTo {
		return models.NewView(t, indices)
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		if !row.HasDate || row.Year < sel.YearFrom || row.Year > sel.YearTo {
			continue
		}
		if _, ok := regions[row.Region]; !ok {
			continue
		}
		if _, ok := categories[row.Category]; !ok {
			continue
		}
		indices = append(indices, i)
	}
	return models.NewView(t, indices)
}

// DefaultSelection selects every observed region and category over the full
// year span.
func DefaultSelection(t *models.Table) models.Selection {
	opts := t.Options()
	return models.Selection{
		Regions:    opts.Regions,
		Categories: opts.Categories,
		YearFrom:   opts.MinYear,
		YearTo:     opts.MaxYear,
	}
}

// ValidateSelection reports the first value of sel that t never observed, or
// a year range that is inverted or outside the observed span.
func ValidateSelection(t *models.Table, sel models.Selection) error {
	opts := t.Options()

	for _, r := range sel.Regions {
		if !slices.Contains(opts.Regions, r) {
			return fmt.Errorf("unknown region %q", r)
		}
	}
	for _, c := range sel.Categories {
		if !slices.Contains(opts.Categories, c) {
			return fmt.Errorf("unknown category %q", c)
		}
	}

	if sel.YearFrom > sel.YearTo {
		return fmt.Errorf("year_from %d is after year_to %d", sel.YearFrom, sel.YearTo)
	}
	if sel.YearFrom < opts.MinYear || sel.YearTo > opts.MaxYear {
		return fmt.Errorf("year range %d-%d outside observed range %d-%d",
			sel.YearFrom, sel.YearTo, opts.MinYear, opts.MaxYear)
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
