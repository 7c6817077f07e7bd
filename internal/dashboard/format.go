package dashboard

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ecorecovery/pkg/contracts/domain"
)

// Numbers are grouped with commas, the way the dashboard has always shown
// rupiah amounts.
var printer = message.NewPrinter(language.English)

// FormatAmount renders a currency amount rounded to whole rupiah with
// thousands separators, e.g. 2450000.4 -> "2,450,000".
func FormatAmount(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// FormatTotal renders a metric total. Totals are truncated to an integer
// before grouping.
func FormatTotal(v float64) string {
	return printer.Sprintf("%d", int64(math.Trunc(v)))
}

// FormatScore renders a vulnerability score with three decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatCell renders one table cell of r.
func FormatCell(r domain.Record, col domain.Column) string {
	if v, ok := r.Number(col); ok {
		if col == domain.ColVulnSynth {
			return FormatScore(v)
		}
		return FormatAmount(v)
	}
	v, _ := r.Category(col)
	return v
}
