package models

import "time"

// Transaction is one sale line of the dataset. Year and Month are derived from
// OrderDate and are zero when HasDate is false.
type Transaction struct {
	OrderDate   time.Time
	HasDate     bool
	Year        int
	Month       int
	Region      string
	Category    string
	SubCategory string
	ProductName string
	Sales       float64
	Profit      float64
	Quantity    int
	Discount    float64
}

// Selection is a complete filter: region and category sets plus an inclusive
// year range. An empty set matches nothing.
type Selection struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	YearFrom   int      `json:"year_from"`
	YearTo     int      `json:"year_to"`
}

// FilterOptions lists the values a selection may draw from.
type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	MinYear    int      `json:"min_year"`
	MaxYear    int      `json:"max_year"`
}

type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type MonthlyPoint struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
}

type KPIs struct {
	TotalSales      float64 `json:"total_sales"`
	TotalProfit     float64 `json:"total_profit"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
}

// Dashboard is everything the page shows for one selection.
type Dashboard struct {
	Selection           Selection      `json:"selection"`
	RowCount            int            `json:"row_count"`
	KPIs                KPIs           `json:"kpis"`
	SalesByCategory     []GroupValue   `json:"sales_by_category"`
	SalesByRegion       []GroupValue   `json:"sales_by_region"`
	MonthlyTrend        []MonthlyPoint `json:"monthly_trend"`
	TopProducts         []GroupValue   `json:"top_products"`
	ProfitBySubCategory []GroupValue   `json:"profit_by_sub_category"`
}
