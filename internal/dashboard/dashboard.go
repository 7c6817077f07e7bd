// Package dashboard turns a loaded dataset and the current query state into
// the complete view model of one dashboard interaction. Render is pure: it
// never touches the network and produces identical output for identical
// input, so every interaction simply recomputes the view.
package dashboard

import (
	"net/url"
	"strconv"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/dataset"
	"ecorecovery/pkg/contracts/domain"
)

// Texts shown around the charts and the table.
const (
	PriorityChartTitle    = "Jumlah entitas per kategori prioritas"
	SensitivityChartTitle = `Jumlah entitas dalam status "Bahaya" per scenario`
)

// State is the user-controlled input of one interaction.
type State struct {
	Selection dataset.Selection
	TopN      int
}

// StateFromQuery resolves the filter selection from q. top is taken as
// already validated and is clamped again by the ranking.
func StateFromQuery(q url.Values, ds *dataset.Dataset, top int) State {
	return State{
		Selection: dataset.SelectionFromQuery(q, ds),
		TopN:      analytics.ClampTopN(top),
	}
}

// Filter is one multi-select control.
type Filter struct {
	Column   domain.Column `json:"column"`
	Label    string        `json:"label"`
	Options  []string      `json:"options"`
	Selected []string      `json:"selected"`
}

// IsSelected reports whether v is currently selected.
func (f Filter) IsSelected(v string) bool {
	for _, s := range f.Selected {
		if s == v {
			return true
		}
	}
	return false
}

// Metric is one scalar tile.
type Metric struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// Row is a formatted table row; Cells follow Table.Columns.
type Row struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// Table is the ranked table.
type Table struct {
	Columns []domain.Column `json:"columns"`
	SortBy  domain.Column   `json:"sort_by"`
	TopN    int             `json:"top_n"`
	Rows    []Row           `json:"rows"`
}

// View is everything the presentation layer needs for one interaction.
type View struct {
	Filters          []Filter                  `json:"filters"`
	Summary          analytics.Summary         `json:"summary"`
	Metrics          []Metric                  `json:"metrics"`
	Groups           analytics.GroupCounts     `json:"groups"`
	Sensitivity      []analytics.ScenarioCount `json:"sensitivity"`
	PriorityChart    charts.StackedBars        `json:"priority_chart"`
	SensitivityChart charts.Bars               `json:"sensitivity_chart"`
	Table            Table                     `json:"table"`
	// Rows is the whole filtered set, in dataset order, used by exports.
	Rows []domain.Record `json:"-"`
	// Query re-encodes the selection for chart and download links.
	Query url.Values `json:"-"`
}

var filterLabels = map[domain.Column]string{
	domain.ColKelurahan: "Kelurahan",
	domain.ColType:      "Tipe entitas",
	domain.ColPriority:  "Kategori prioritas",
}

// Render runs filter, aggregation and formatting for state over ds.
func Render(ds *dataset.Dataset, state State) View {
	rows := ds.Filter(state.Selection)

	view := View{
		Filters: Filters(ds, state.Selection),
		Rows:    rows,
		Query:   state.Selection.Query(ds),
	}

	view.Summary = analytics.Summarize(rows)
	view.Metrics = Metrics(view.Summary)

	view.Groups = analytics.GroupCount(rows, []domain.Column{domain.ColKelurahan, domain.ColPriority})
	view.PriorityChart = PriorityChart(view.Groups)

	view.Sensitivity = analytics.SensitivityDanger(rows, domain.SensitivityScenarios())
	view.SensitivityChart = SensitivityChart(view.Sensitivity)

	view.Table = RankedTable(rows, state.TopN)
	return view
}

// Filters builds the filter controls: every distinct value of ds as an
// option, with the values of sel marked selected.
func Filters(ds *dataset.Dataset, sel dataset.Selection) []Filter {
	out := make([]Filter, 0, len(domain.FilterColumns()))
	for _, col := range domain.FilterColumns() {
		out = append(out, Filter{
			Column:   col,
			Label:    filterLabels[col],
			Options:  ds.Distinct(col),
			Selected: sel.For(col).Values(),
		})
	}
	return out
}

// Metrics builds the four scalar tiles. The entity count is a plain integer;
// only the rupiah totals are grouped.
func Metrics(s analytics.Summary) []Metric {
	return []Metric{
		{Key: "entities", Label: "Entitas tampil", Value: float64(s.Entities), Display: strconv.Itoa(s.Entities)},
		{Key: "total_mmb", Label: "Total MMB (Rp)", Value: s.TotalMMB, Display: FormatTotal(s.TotalMMB)},
		{Key: "total_hibah_100pct", Label: "Total Hibah 100% (Rp)", Value: s.TotalHibah100, Display: FormatTotal(s.TotalHibah100)},
		{Key: "total_cicilan_aman", Label: "Total Cicilan Aman (Rp/bln)", Value: s.TotalCicilanAman, Display: FormatTotal(s.TotalCicilanAman)},
	}
}

// PriorityChart lays out kelurahan x priority counts as stacked bars.
// Kelurahan and priority values are sorted so colors stay stable between
// interactions.
func PriorityChart(groups analytics.GroupCounts) charts.StackedBars {
	kelurahan := dataset.NewSet(groups.Values(0)...).Values()
	priorities := dataset.NewSet(groups.Values(1)...).Values()

	counts := make([][]float64, len(priorities))
	for i, p := range priorities {
		counts[i] = make([]float64, len(kelurahan))
		for j, k := range kelurahan {
			counts[i][j] = float64(groups.Lookup(k, p))
		}
	}
	return charts.StackedBars{
		Title:      PriorityChartTitle,
		XLabel:     "kelurahan",
		YLabel:     "count",
		Categories: kelurahan,
		Series:     priorities,
		Counts:     counts,
	}
}

// SensitivityChart lays out the danger count per scenario.
func SensitivityChart(counts []analytics.ScenarioCount) charts.Bars {
	bars := charts.Bars{
		Title:  SensitivityChartTitle,
		Labels: make([]string, len(counts)),
		Values: make([]float64, len(counts)),
	}
	for i, c := range counts {
		bars.Labels[i] = string(c.Scenario)
		bars.Values[i] = float64(c.Count)
	}
	return bars
}

// RankedTable ranks rows by vulnerability and formats the first n.
func RankedTable(rows []domain.Record, n int) Table {
	n = analytics.ClampTopN(n)
	top := analytics.TopN(rows, domain.ColVulnSynth, n)

	table := Table{
		Columns: domain.TableColumns(),
		SortBy:  domain.ColVulnSynth,
		TopN:    n,
		Rows:    make([]Row, 0, len(top)),
	}
	for _, r := range top {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = FormatCell(r, col)
		}
		table.Rows = append(table.Rows, Row{ID: r.ID, Cells: cells})
	}
	return table
}
