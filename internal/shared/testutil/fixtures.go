package testutil

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"ecorecovery/pkg/contracts/domain"
)

// SampleRecords returns a small dataset spanning two kelurahan, both entity
// types, three priority tiers and a mix of sensitivity outcomes.
func SampleRecords() []domain.Record {
	return []domain.Record{
		{
			ID: "HH-001", Type: "household", Kelurahan: "Pancuran Gerobak", Priority: "Prioritas Hibah",
			VulnSynth: 0.812, MMB: 2450000, Hibah100Pct: 5000000, HibahProp: 2500000,
			EMIRaw: 350000, CicilanAman: 300000,
			Sens10: "Bahaya", Sens25: "Bahaya", Sens50: "Bahaya",
		},
		{
			ID: "UM-002", Type: "business", Kelurahan: "Aek Habil", Priority: "Prioritas",
			VulnSynth: 0.421, MMB: 1800000, Hibah100Pct: 4000000, HibahProp: 1000000,
			EMIRaw: 250000, CicilanAman: 260000,
			Sens10: "Aman", Sens25: "Bahaya", Sens50: "Bahaya",
		},
		{
			ID: "HH-003", Type: "household", Kelurahan: "Aek Habil", Priority: "Normal",
			VulnSynth: 0.3, MMB: 1200000, EMIRaw: 100000, CicilanAman: 150000,
			Sens10: "Aman", Sens25: "Aman", Sens50: "Bahaya",
		},
		{
			ID: "UM-004", Type: "business", Kelurahan: "Pancuran Gerobak", Priority: "Prioritas",
			VulnSynth: 0.655, MMB: 2100000.5, Hibah100Pct: 3500000, HibahProp: 1750000,
			EMIRaw: 300000, CicilanAman: 275000,
			Sens10: "Aman", Sens25: "Aman", Sens50: "Aman",
		},
	}
}

// RecordsCSV encodes records with the canonical header, the way the
// upstream data source publishes them.
func RecordsCSV(records []domain.Record) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	cols := domain.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = string(c)
	}
	_ = w.Write(header)

	row := make([]string, len(cols))
	for _, rec := range records {
		for i, c := range cols {
			if v, ok := rec.Number(c); ok {
				row[i] = strconv.FormatFloat(v, 'f', -1, 64)
				continue
			}
			row[i], _ = rec.Category(c)
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}
