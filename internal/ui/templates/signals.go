package templates

import "sales-dashboard/internal/models"

// Series is one chart's labels and values, index aligned.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Charts is the chart payload the page's renderCharts script consumes.
type Charts struct {
	Category    Series `json:"category"`
	Region      Series `json:"region"`
	Monthly     Series `json:"monthly"`
	TopProducts Series `json:"topProducts"`
	SubCategory Series `json:"subCategory"`
}

// Signals is the client-side state of the page. Field names match the
// data-bind attributes in Dashboard.
type Signals struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	YearFrom   int      `json:"yearFrom"`
	YearTo     int      `json:"yearTo"`
	RowCount   int      `json:"rowCount"`
	Charts     Charts   `json:"charts"`
}

func NewCharts(d models.Dashboard) Charts {
	monthly := Series{
		Labels: make([]string, 0, len(d.MonthlyTrend)),
		Values: make([]float64, 0, len(d.MonthlyTrend)),
	}
	for _, p := range d.MonthlyTrend {
		monthly.Labels = append(monthly.Labels, monthLabel(p.Year, p.Month))
		monthly.Values = append(monthly.Values, p.Sales)
	}

	return Charts{
		Category:    groupSeries(d.SalesByCategory),
		Region:      groupSeries(d.SalesByRegion),
		Monthly:     monthly,
		TopProducts: groupSeries(d.TopProducts),
		SubCategory: groupSeries(d.ProfitBySubCategory),
	}
}

func NewSignals(d models.Dashboard) Signals {
	regions := d.Selection.Regions
	if regions == nil {
		regions = []string{}
	}
	categories := d.Selection.Categories
	if categories == nil {
		categories = []string{}
	}

	return Signals{
		Regions:    regions,
		Categories: categories,
		YearFrom:   d.Selection.YearFrom,
		YearTo:     d.Selection.YearTo,
		RowCount:   d.RowCount,
		Charts:     NewCharts(d),
	}
}

func groupSeries(groups []models.GroupValue) Series {
	s := Series{
		Labels: make([]string, 0, len(groups)),
		Values: make([]float64, 0, len(groups)),
	}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Key)
		s.Values = append(s.Values, g.Value)
	}
	return s
}
