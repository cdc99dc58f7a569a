package services

import (
	"math"
	"testing"
	"time"

	"sales-dashboard/internal/models"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func viewOf(rows ...models.Transaction) models.View {
	return models.All(models.NewTable(rows, time.Now()))
}

// Three rows: two East/Tech (one with zero sales) and one West/Office.
func threeRowView() models.View {
	return viewOf(
		tx("East", "Tech", "Phones", "Phone", 2016, 1, 100, 10),
		tx("East", "Tech", "Phones", "Phone", 2016, 2, 0, 0),
		tx("West", "Office", "Paper", "Paper", 2016, 2, 50, -5),
	)
}

func TestAggregates_ThreeRowExample(t *testing.T) {
	v := threeRowView()

	if got := TotalSales(v); !approx(got, 150) {
		t.Errorf("TotalSales() = %v, want 150", got)
	}
	if got := TotalProfit(v); !approx(got, 5) {
		t.Errorf("TotalProfit() = %v, want 5", got)
	}

	assertGroups(t, "SalesByCategory", SalesByCategory(v), []models.GroupValue{{Key: "Office", Value: 50}, {Key: "Tech", Value: 100}})
	assertGroups(t, "SalesByRegion", SalesByRegion(v), []models.GroupValue{{Key: "East", Value: 100}, {Key: "West", Value: 50}})
	assertGroups(t, "ProfitBySubCategory", ProfitBySubCategory(v), []models.GroupValue{{Key: "Paper", Value: -5}, {Key: "Phones", Value: 10}})
}

func TestAggregates_EmptyView(t *testing.T) {
	v := models.NewView(sampleTable(), nil)

	if TotalSales(v) != 0 || TotalProfit(v) != 0 || AverageProfitMargin(v) != 0 {
		t.Errorf("scalar KPIs on empty view = %v, %v, %v; want all 0",
			TotalSales(v), TotalProfit(v), AverageProfitMargin(v))
	}

	if got := SalesByCategory(v); got == nil || len(got) != 0 {
		t.Errorf("SalesByCategory() = %#v, want empty non-nil", got)
	}
	if got := SalesByRegion(v); got == nil || len(got) != 0 {
		t.Errorf("SalesByRegion() = %#v, want empty non-nil", got)
	}
	if got := MonthlySalesTrend(v); got == nil || len(got) != 0 {
		t.Errorf("MonthlySalesTrend() = %#v, want empty non-nil", got)
	}
	if got := TopProductsBySales(v, TopProductsLimit); got == nil || len(got) != 0 {
		t.Errorf("TopProductsBySales() = %#v, want empty non-nil", got)
	}
	if got := ProfitBySubCategory(v); got == nil || len(got) != 0 {
		t.Errorf("ProfitBySubCategory() = %#v, want empty non-nil", got)
	}
}

// The dashboard reports the mean of per-row margins. Total profit over total
// sales is a different number for the same rows; both are pinned here so a
// change of definition is a deliberate one.
func TestAverageProfitMargin_Interpretations(t *testing.T) {
	v := threeRowView()

	// Rows with sales: 10/100 = 10%, -5/50 = -10%. The zero-sales row has no
	// ratio and is left out of the mean.
	if got := AverageProfitMargin(v); !approx(got, 0) {
		t.Errorf("mean of row margins = %v, want 0", got)
	}

	ratioOfTotals := TotalProfit(v) / TotalSales(v) * 100
	if !approx(ratioOfTotals, 10.0/3.0) {
		t.Errorf("total profit / total sales = %v, want 3.333...", ratioOfTotals)
	}
	if approx(AverageProfitMargin(v), ratioOfTotals) {
		t.Error("the two margin definitions should differ on this data")
	}
}

func TestAverageProfitMargin(t *testing.T) {
	tests := []struct {
		name string
		rows []models.Transaction
		want float64
	}{
		{
			name: "single row",
			rows: []models.Transaction{tx("East", "Tech", "Phones", "P", 2016, 1, 200, 50)},
			want: 25,
		},
		{
			name: "unweighted mean",
			rows: []models.Transaction{
				tx("East", "Tech", "Phones", "P", 2016, 1, 1000, 100),
				tx("East", "Tech", "Phones", "Q", 2016, 1, 10, 5),
			},
			want: 30,
		},
		{
			name: "zero total sales with nonzero profit",
			rows: []models.Transaction{
				tx("East", "Tech", "Phones", "P", 2016, 1, 0, 40),
				tx("East", "Tech", "Phones", "Q", 2016, 1, 0, -10),
			},
			want: 0,
		},
		{
			name: "negative total sales",
			rows: []models.Transaction{
				tx("East", "Tech", "Phones", "P", 2016, 1, -50, 5),
				tx("East", "Tech", "Phones", "Q", 2016, 1, 10, 5),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageProfitMargin(viewOf(tt.rows...)); !approx(got, tt.want) {
				t.Errorf("AverageProfitMargin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupSumsEqualTotals(t *testing.T) {
	table := sampleTable()
	v := ApplyFilter(table, DefaultSelection(table))
	total := TotalSales(v)

	for name, groups := range map[string][]models.GroupValue{
		"category": SalesByCategory(v),
		"region":   SalesByRegion(v),
	} {
		var sum float64
		for _, g := range groups {
			sum += g.Value
		}
		if !approx(sum, total) {
			t.Errorf("sum of sales by %s = %v, want %v", name, sum, total)
		}
	}

	var profit float64
	for _, g := range ProfitBySubCategory(v) {
		profit += g.Value
	}
	if !approx(profit, TotalProfit(v)) {
		t.Errorf("sum of profit by sub-category = %v, want %v", profit, TotalProfit(v))
	}
}

func TestMonthlySalesTrend(t *testing.T) {
	v := viewOf(
		tx("East", "Tech", "Phones", "P", 2016, 3, 10, 0),
		tx("East", "Tech", "Phones", "P", 2015, 12, 5, 0),
		tx("East", "Tech", "Phones", "P", 2016, 3, 20, 0),
		tx("East", "Tech", "Phones", "P", 2016, 1, 7, 0),
		undated("East", "Tech", 1000),
	)

	got := MonthlySalesTrend(v)
	want := []models.MonthlyPoint{
		{Year: 2015, Month: 12, Sales: 5},
		{Year: 2016, Month: 1, Sales: 7},
		{Year: 2016, Month: 3, Sales: 30},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(got), len(want), got)
	}

	for i, p := range got {
		if p.Year != want[i].Year || p.Month != want[i].Month || !approx(p.Sales, want[i].Sales) {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
		if p.Date.Day() != 1 || p.Date.Year() != p.Year || int(p.Date.Month()) != p.Month {
			t.Errorf("point %d date = %v", i, p.Date)
		}
		if i > 0 && !p.Date.After(got[i-1].Date) {
			t.Errorf("dates not strictly increasing at %d", i)
		}
	}
}

func TestTopProductsBySales(t *testing.T) {
	v := viewOf(
		tx("East", "Tech", "Phones", "Gamma", 2016, 1, 300, 0),
		tx("East", "Tech", "Phones", "Alpha", 2016, 1, 100, 0),
		tx("East", "Tech", "Phones", "Beta", 2016, 1, 100, 0),
		tx("East", "Tech", "Phones", "Delta", 2016, 1, 50, 0),
		tx("East", "Tech", "Phones", "Alpha", 2016, 2, 100, 0),
		tx("East", "Tech", "Phones", "Epsilon", 2016, 1, 10, 0),
		tx("East", "Tech", "Phones", "Zeta", 2016, 1, 100, 0),
		tx("East", "Tech", "Phones", "Eta", 2016, 1, 1, 0),
	)

	got := TopProductsBySales(v, TopProductsLimit)
	want := []models.GroupValue{
		{Key: "Gamma", Value: 300},
		{Key: "Alpha", Value: 200},
		{Key: "Beta", Value: 100},
		{Key: "Zeta", Value: 100},
		{Key: "Delta", Value: 50},
	}
	assertGroups(t, "TopProductsBySales", got, want)
}

func TestTopProductsBySales_FewerThanLimit(t *testing.T) {
	got := TopProductsBySales(threeRowView(), TopProductsLimit)
	// "Phone" and "Paper" are the only distinct products.
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Key != "Phone" || got[1].Key != "Paper" {
		t.Errorf("order = %+v, want Phone then Paper", got)
	}
}

func TestRecompute(t *testing.T) {
	table := sampleTable()
	sel := models.Selection{Regions: []string{"East", "West"}, Categories: []string{"Technology"}, YearFrom: 2014, YearTo: 2017}

	d := Recompute(table, sel)

	if d.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", d.RowCount)
	}
	if !approx(d.KPIs.TotalSales, 600) || !approx(d.KPIs.TotalProfit, 85) {
		t.Errorf("KPIs = %+v", d.KPIs)
	}
	// (10% + 15%) / 2
	if !approx(d.KPIs.AvgProfitMargin, 12.5) {
		t.Errorf("AvgProfitMargin = %v, want 12.5", d.KPIs.AvgProfitMargin)
	}
	assertGroups(t, "TopProducts", d.TopProducts, []models.GroupValue{{Key: "Phone A", Value: 600}})
	if len(d.MonthlyTrend) != 2 {
		t.Errorf("MonthlyTrend = %+v", d.MonthlyTrend)
	}

	sel.Regions[0] = "mutated"
	if d.Selection.Regions[0] != "East" {
		t.Error("dashboard selection should not alias the caller's slice")
	}
}

func TestRecompute_EmptySelection(t *testing.T) {
	d := Recompute(sampleTable(), models.Selection{YearFrom: 2014, YearTo: 2017})

	if d.RowCount != 0 || d.KPIs != (models.KPIs{}) {
		t.Errorf("empty dashboard = %+v", d)
	}
	if d.Selection.Regions == nil || d.Selection.Categories == nil {
		t.Error("selection sets should be empty, not nil")
	}
	if d.SalesByCategory == nil || d.TopProducts == nil || d.MonthlyTrend == nil {
		t.Error("aggregate tables should be empty, not nil")
	}
}

func assertGroups(t *testing.T, name string, got, want []models.GroupValue) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %+v, want %+v", name, got, want)
	}
	for i := range want {
		if got[i].Key != want[i].Key || !approx(got[i].Value, want[i].Value) {
			t.Errorf("%s[%d] = %+v, want %+v", name, i, got[i], want[i])
		}
	}
}
