package dataset

import (
	"net/url"
	"sort"
	"strings"

	"ecorecovery/pkg/contracts/domain"
)

// Set is a set of categorical values. A nil or empty Set matches nothing.
type Set map[string]struct{}

// NewSet builds a Set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of values.
func (s Set) Len() int {
	return len(s)
}

// Values returns the members in ascending order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Selection is the current filter state: one Set per filter column.
type Selection struct {
	Kelurahan Set
	Type      Set
	Priority  Set
}

// For returns the Set bound to a filter column, or nil for any other column.
func (s Selection) For(col domain.Column) Set {
	switch col {
	case domain.ColKelurahan:
		return s.Kelurahan
	case domain.ColType:
		return s.Type
	case domain.ColPriority:
		return s.Priority
	}
	return nil
}

func (s *Selection) set(col domain.Column, v Set) {
	switch col {
	case domain.ColKelurahan:
		s.Kelurahan = v
	case domain.ColType:
		s.Type = v
	case domain.ColPriority:
		s.Priority = v
	}
}

// SelectionFromQuery resolves a Selection from query parameters named after
// the filter columns. An absent parameter selects every distinct value of ds;
// a present parameter selects exactly its non-blank values, so `kelurahan=`
// selects nothing.
func SelectionFromQuery(q url.Values, ds *Dataset) Selection {
	sel := ds.DefaultSelection()
	for _, col := range domain.FilterColumns() {
		values, present := q[string(col)]
		if !present {
			continue
		}
		s := make(Set, len(values))
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			s[v] = struct{}{}
		}
		sel.set(col, s)
	}
	return sel
}

// Query encodes the selection back into query parameters. Columns whose set
// equals the dataset default are omitted so links stay short.
func (s Selection) Query(ds *Dataset) url.Values {
	q := url.Values{}
	def := ds.DefaultSelection()
	for _, col := range domain.FilterColumns() {
		cur := s.For(col)
		if sameSet(cur, def.For(col)) {
			continue
		}
		if cur.Len() == 0 {
			q[string(col)] = []string{""}
			continue
		}
		q[string(col)] = cur.Values()
	}
	return q
}

func sameSet(a, b Set) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b.Has(v) {
			return false
		}
	}
	return true
}
