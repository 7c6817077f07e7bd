// Package dataset holds the immutable in-memory dataset produced by a load and
// the filter engine over its categorical columns.
//
// A Dataset keeps an inverted index of column -> value -> roaring bitmap of row
// positions. A Selection compiles to an OR of bitmaps within each filter
// column and an AND across columns; the resulting bitmap is iterated in
// ascending order so filtered records keep their original order.
package dataset

import (
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"ecorecovery/pkg/contracts/domain"
)

// Dataset is an immutable, indexed sequence of records. It is safe for
// concurrent use.
type Dataset struct {
	records  []domain.Record
	inverted map[domain.Column]map[string]*roaring.Bitmap
	loadedAt time.Time
	source   string
}

// New indexes records. The slice is copied.
func New(records []domain.Record) *Dataset {
	return NewFromSource(records, "", time.Time{})
}

// NewFromSource indexes records and remembers where and when they came from.
func NewFromSource(records []domain.Record, source string, loadedAt time.Time) *Dataset {
	d := &Dataset{
		records:  make([]domain.Record, len(records)),
		inverted: make(map[domain.Column]map[string]*roaring.Bitmap),
		loadedAt: loadedAt,
		source:   source,
	}
	copy(d.records, records)

	for _, col := range domain.Columns() {
		if col.IsCategorical() {
			d.inverted[col] = make(map[string]*roaring.Bitmap)
		}
	}
	for i, r := range d.records {
		for col, values := range d.inverted {
			v, _ := r.Category(col)
			bitmap, ok := values[v]
			if !ok {
				bitmap = roaring.New()
				values[v] = bitmap
			}
			bitmap.Add(uint32(i))
		}
	}
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []domain.Record {
	out := make([]domain.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Source returns the reference the dataset was loaded from.
func (d *Dataset) Source() string {
	return d.source
}

// LoadedAt returns when the dataset was fetched.
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Distinct returns the sorted distinct values of a categorical column. Other
// columns yield nil.
func (d *Dataset) Distinct(col domain.Column) []string {
	values, ok := d.inverted[col]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DefaultSelection selects every distinct value of each filter column.
func (d *Dataset) DefaultSelection() Selection {
	var sel Selection
	for _, col := range domain.FilterColumns() {
		sel.set(col, NewSet(d.Distinct(col)...))
	}
	return sel
}

// Filter returns the records matching sel in original order. It is
// equivalent to Filter(d.Records(), sel.Kelurahan, sel.Type, sel.Priority).
func (d *Dataset) Filter(sel Selection) []domain.Record {
	bitmap := d.compile(sel)
	out := make([]domain.Record, 0, bitmap.GetCardinality())
	it := bitmap.Iterator()
	for it.HasNext() {
		out = append(out, d.records[it.Next()])
	}
	return out
}

// Count returns the number of records matching sel without materializing them.
func (d *Dataset) Count(sel Selection) int {
	return int(d.compile(sel).GetCardinality())
}

func (d *Dataset) compile(sel Selection) *roaring.Bitmap {
	var result *roaring.Bitmap
	for _, col := range domain.FilterColumns() {
		set := sel.For(col)
		if set.Len() == 0 {
			return roaring.New()
		}

		// Union of all selected values
		colBitmap := roaring.New()
		for v := range set {
			if bitmap, ok := d.inverted[col][v]; ok {
				colBitmap.Or(bitmap)
			}
		}

		if result == nil {
			result = colBitmap
		} else {
			result = roaring.And(result, colBitmap)
		}
		if result.IsEmpty() {
			return result
		}
	}
	if result == nil {
		return roaring.New()
	}
	return result
}
