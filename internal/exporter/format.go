package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"ecorecovery/pkg/contracts/domain"
)

// Format is a download file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported download formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX}
}

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName joins base and the format extension.
func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// header returns the export header in canonical column order.
func header() []string {
	cols := domain.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

// formatNumber renders a number with the fewest digits that parse back to
// the same float64.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// csvRow renders one record in canonical column order.
func csvRow(rec domain.Record, row []string) []string {
	for i, c := range domain.Columns() {
		if v, ok := rec.Number(c); ok {
			row[i] = formatNumber(v)
			continue
		}
		row[i], _ = rec.Category(c)
	}
	return row
}
