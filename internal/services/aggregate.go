package services

import (
	"cmp"
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

const TopProductsLimit = 5

func TotalSales(v models.View) float64 {
	var total float64
	for i := 0; i < v.Len(); i++ {
		total += v.At(i).Sales
	}
	return total
}

func TotalProfit(v models.View) float64 {
	var total float64
	for i := 0; i < v.Len(); i++ {
		total += v.At(i).Profit
	}
	return total
}

// AverageProfitMargin is the mean of the per-row profit/sales ratios, as a
// percentage. It is 0 unless total sales are positive. Rows with zero sales
// have no ratio and do not count towards the mean.
func AverageProfitMargin(v models.View) float64 {
	if TotalSales(v) <= 0 {
		return 0
	}

	var sum float64
	var n int
	for i := 0; i < v.Len(); i++ {
		row := v.At(i)
		if row.Sales == 0 {
			continue
		}
		sum += row.Profit / row.Sales
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}

func SalesByCategory(v models.View) []models.GroupValue {
	return sumBy(v, func(t models.Transaction) (string, float64) { return t.Category, t.Sales })
}

func SalesByRegion(v models.View) []models.GroupValue {
	return sumBy(v, func(t models.Transaction) (string, float64) { return t.Region, t.Sales })
}

func ProfitBySubCategory(v models.View) []models.GroupValue {
	return sumBy(v, func(t models.Transaction) (string, float64) { return t.SubCategory, t.Profit })
}

// MonthlySalesTrend sums sales per calendar month, oldest first. Months with
// no sales are absent.
func MonthlySalesTrend(v models.View) []models.MonthlyPoint {
	type yearMonth struct{ year, month int }

	groups := make(map[yearMonth]float64)
	for i := 0; i < v.Len(); i++ {
		row := v.At(i)
		if !row.HasDate {
			continue
		}
		groups[yearMonth{row.Year, row.Month}] += row.Sales
	}

	result := make([]models.MonthlyPoint, 0, len(groups))
	for ym, sales := range groups {
		result = append(result, models.MonthlyPoint{
			Year:  ym.year,
			Month: ym.month,
			Date:  time.Date(ym.year, time.Month(ym.month), 1, 0, 0, 0, 0, time.UTC),
			Sales: sales,
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlyPoint) int {
		return a.Date.Compare(b.Date)
	})
	return result
}

// TopProductsBySales returns the n products with the largest summed sales,
// largest first. Equal sums keep product-name order.
func TopProductsBySales(v models.View, n int) []models.GroupValue {
	result := sumBy(v, func(t models.Transaction) (string, float64) { return t.ProductName, t.Sales })
	slices.SortStableFunc(result, func(a, b models.GroupValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// sumBy groups the view by key and sums value, returning one entry per key
// present, keys ascending.
func sumBy(v models.View, fn func(models.Transaction) (string, float64)) []models.GroupValue {
	groups := make(map[string]float64)
	for i := 0; i < v.Len(); i++ {
		key, value := fn(v.At(i))
		groups[key] += value
	}

	result := make([]models.GroupValue, 0, len(groups))
	for key, value := range groups {
		result = append(result, models.GroupValue{Key: key, Value: value})
	}
	slices.SortFunc(result, func(a, b models.GroupValue) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return result
}
