// Package analytics computes the dashboard metrics over a filtered record
// sequence. Every function is pure and total: empty input yields zero values
// and empty, non-nil collections.
package analytics

import (
	"sort"
	"strings"

	"ecorecovery/pkg/contracts/domain"
)

// Predicate selects records for ConditionalSum.
type Predicate func(domain.Record) bool

// Count returns the number of records.
func Count(records []domain.Record) int {
	return len(records)
}

// Sum totals a numeric column. Non-numeric columns sum to 0.
func Sum(records []domain.Record, col domain.Column) float64 {
	return ConditionalSum(records, nil, col)
}

// ConditionalSum totals col over the records matching pred. A nil predicate
// matches every record.
func ConditionalSum(records []domain.Record, pred Predicate, col domain.Column) float64 {
	if !col.IsNumeric() {
		return 0
	}
	var total float64
	for _, r := range records {
		if pred != nil && !pred(r) {
			continue
		}
		v, _ := r.Number(col)
		total += v
	}
	return total
}

// CategoryIn returns a predicate matching records whose col value is one of
// values.
func CategoryIn(col domain.Column, values ...string) Predicate {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return func(r domain.Record) bool {
		v, ok := r.Category(col)
		if !ok {
			return false
		}
		_, hit := allowed[v]
		return hit
	}
}

// Group is one distinct combination of key values and its record count.
type Group struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// GroupCounts is the result of GroupCount, ordered by first appearance of
// each key combination in the input.
type GroupCounts struct {
	Columns []domain.Column `json:"columns"`
	Groups  []Group         `json:"groups"`
	index   map[string]int
}

// Lookup returns the count for a key combination, 0 when absent.
func (g GroupCounts) Lookup(keys ...string) int {
	if i, ok := g.index[groupKey(keys)]; ok {
		return g.Groups[i].Count
	}
	return 0
}

// Total returns the sum of all group counts.
func (g GroupCounts) Total() int {
	total := 0
	for _, grp := range g.Groups {
		total += grp.Count
	}
	return total
}

// Values returns the distinct values seen at key position pos, in first
// appearance order.
func (g GroupCounts) Values(pos int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, grp := range g.Groups {
		if pos < 0 || pos >= len(grp.Keys) {
			continue
		}
		v := grp.Keys[pos]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GroupCount counts records per distinct combination of cols. Columns that
// are not categorical contribute an empty key component.
func GroupCount(records []domain.Record, cols []domain.Column) GroupCounts {
	result := GroupCounts{
		Columns: append([]domain.Column(nil), cols...),
		Groups:  make([]Group, 0),
		index:   make(map[string]int),
	}
	for _, r := range records {
		keys := make([]string, len(cols))
		for i, c := range cols {
			keys[i], _ = r.Category(c)
		}
		k := groupKey(keys)
		if i, ok := result.index[k]; ok {
			result.Groups[i].Count++
			continue
		}
		result.index[k] = len(result.Groups)
		result.Groups = append(result.Groups, Group{Keys: keys, Count: 1})
	}
	return result
}

// groupKey joins key parts with a separator that cannot appear in CSV text.
func groupKey(keys []string) string {
	return strings.Join(keys, "\x00")
}

// ScenarioCount is the danger count for one sensitivity scenario.
type ScenarioCount struct {
	Scenario domain.Column `json:"scenario"`
	Count    int           `json:"count"`
}

// SensitivityDanger counts, per scenario column, the records whose value is
// the danger marker. Output follows the order of scenarios.
func SensitivityDanger(records []domain.Record, scenarios []domain.Column) []ScenarioCount {
	out := make([]ScenarioCount, len(scenarios))
	for i, s := range scenarios {
		out[i].Scenario = s
		for _, r := range records {
			if v, ok := r.Category(s); ok && v == domain.DangerMarker {
				out[i].Count++
			}
		}
	}
	return out
}

// Bounds of the ranked table size.
const (
	MinTopN     = 5
	MaxTopN     = 30
	DefaultTopN = 15
)

// ClampTopN forces n into [MinTopN, MaxTopN].
func ClampTopN(n int) int {
	if n < MinTopN {
		return MinTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// TopN returns the first n records sorted by col descending, ties kept in
// input order. n is clamped with ClampTopN. The input is not modified.
func TopN(records []domain.Record, col domain.Column, n int) []domain.Record {
	n = ClampTopN(n)
	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].Number(col)
		b, _ := sorted[j].Number(col)
		return a > b
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summary holds the four scalar dashboard metrics.
type Summary struct {
	Entities         int     `json:"entities"`
	TotalMMB         float64 `json:"total_mmb"`
	TotalHibah100    float64 `json:"total_hibah_100pct"`
	TotalCicilanAman float64 `json:"total_cicilan_aman"`
}

// Summarize computes the scalar metrics. The grant total only counts records
// in the grant priority tiers.
func Summarize(records []domain.Record) Summary {
	return Summary{
		Entities:         Count(records),
		TotalMMB:         Sum(records, domain.ColMMB),
		TotalHibah100:    ConditionalSum(records, CategoryIn(domain.ColPriority, domain.GrantPriorityTiers()...), domain.ColHibah100Pct),
		TotalCicilanAman: Sum(records, domain.ColCicilanAman),
	}
}
