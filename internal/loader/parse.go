package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"ecorecovery/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a dataset CSV document. The header row must name every
// required column; extra columns are ignored and header names are trimmed.
// Empty numeric cells read as 0. Any malformed row, bad number or duplicate
// id fails the whole document with a *ParseError.
func ParseCSV(r io.Reader) ([]domain.Record, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	index := make(map[domain.Column]int, len(header))
	for i, name := range header {
		col := domain.Column(strings.TrimSpace(name))
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	var missing []string
	for _, col := range domain.Columns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Line: 1, Missing: missing}
	}

	records := make([]domain.Record, 0)
	seen := make(map[string]int)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, &ParseError{
				Line:   line,
				Column: string(domain.ColID),
				Reason: "duplicate id " + strconv.Quote(rec.ID) + " (first seen on line " + strconv.Itoa(first) + ")",
			}
		}
		seen[rec.ID] = line
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, index map[domain.Column]int, line int) (domain.Record, error) {
	var rec domain.Record
	for _, col := range domain.Columns() {
		cell := row[index[col]]
		if !col.IsNumeric() {
			_ = rec.SetCategory(col, cell)
			continue
		}

		v, err := parseNumber(cell)
		if err != nil {
			return rec, &ParseError{Line: line, Column: string(col), Reason: "invalid number " + strconv.Quote(cell), Err: err}
		}
		_ = rec.SetNumber(col, v)
	}
	if err := rec.Validate(); err != nil {
		return rec, &ParseError{Line: line, Reason: err.Error(), Err: err}
	}
	return rec, nil
}

func parseNumber(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func csvParseError(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Line: ce.Line, Reason: ce.Err.Error(), Err: err}
	}
	return &ParseError{Err: err}
}
