// Package templates renders the dashboard HTML as templ components.
package templates

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Currency formats v as $1,234.56; negative values keep the sign after the
// dollar.
func Currency(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func Percent(v float64) string {
	return humanize.FormatFloat("#,###.##", v) + "%"
}

func Count(n int) string {
	return humanize.Comma(int64(n))
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
