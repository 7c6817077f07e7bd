package domain

import (
	"fmt"
	"math"
)

// Record represents one assessed entity (household or business) of the
// disaster-recovery prioritization dataset. It is the Single Source of Truth
// for a dataset row across the loader, filter engine, analytics, exporters
// and the HTTP API.
//
// All scoring fields are computed upstream and are carried here unchanged.
// A Record is immutable once the loader has produced it.
//
// Usage:
//
//	rec := Record{
//	    ID:        "HH-001",
//	    Type:      "household",
//	    Kelurahan: "Pancuran Gerobak",
//	    Priority:  "Prioritas Hibah",
//	    VulnSynth: 0.812,
//	    MMB:       2450000,
//	    Sens10:    "Aman",
//	}
type Record struct {
	// ID is an opaque identifier, unique within the dataset
	ID string `json:"id" csv:"id" validate:"required"`

	// Type is the entity kind (e.g. household, business)
	Type string `json:"type" csv:"type"`

	// Kelurahan is the administrative sub-district the entity belongs to
	Kelurahan string `json:"kelurahan" csv:"kelurahan"`

	// Priority is the assigned priority tier
	Priority string `json:"priority" csv:"priority"`

	// VulnSynth is the synthetic vulnerability score; higher is more vulnerable.
	// Only used for ranking.
	VulnSynth float64 `json:"vuln_synth" csv:"vuln_synth" validate:"min=0"`

	// MMB is the monthly basic-needs estimate (Rp)
	MMB float64 `json:"MMB" csv:"MMB" validate:"min=0"`

	// Hibah100Pct is the full grant amount (Rp)
	Hibah100Pct float64 `json:"hibah_100pct" csv:"hibah_100pct" validate:"min=0"`

	// HibahProp is the proportional grant amount (Rp)
	HibahProp float64 `json:"hibah_prop" csv:"hibah_prop" validate:"min=0"`

	// EMIRaw is the raw installment amount (Rp/month)
	EMIRaw float64 `json:"EMI_raw" csv:"EMI_raw" validate:"min=0"`

	// CicilanAman is the installment amount deemed affordable (Rp/month)
	CicilanAman float64 `json:"cicilan_aman" csv:"cicilan_aman" validate:"min=0"`

	// Sens10, Sens25 and Sens50 hold the status under the three sales
	// sensitivity scenarios. DangerMarker flags the "danger" outcome.
	Sens10 string `json:"sens_10" csv:"sens_10"`
	Sens25 string `json:"sens_25" csv:"sens_25"`
	Sens50 string `json:"sens_50" csv:"sens_50"`
}

// Column names a dataset column exactly as it appears in the CSV header.
type Column string

const (
	ColID          Column = "id"
	ColType        Column = "type"
	ColKelurahan   Column = "kelurahan"
	ColPriority    Column = "priority"
	ColVulnSynth   Column = "vuln_synth"
	ColMMB         Column = "MMB"
	ColHibah100Pct Column = "hibah_100pct"
	ColHibahProp   Column = "hibah_prop"
	ColEMIRaw      Column = "EMI_raw"
	ColCicilanAman Column = "cicilan_aman"
	ColSens10      Column = "sens_10"
	ColSens25      Column = "sens_25"
	ColSens50      Column = "sens_50"
)

// DangerMarker is the sensitivity status value counted as "danger".
const DangerMarker = "Bahaya"

// columns is the canonical CSV column order.
var columns = []Column{
	ColID, ColType, ColKelurahan, ColPriority,
	ColVulnSynth, ColMMB, ColHibah100Pct, ColHibahProp, ColEMIRaw, ColCicilanAman,
	ColSens10, ColSens25, ColSens50,
}

// Columns returns the required dataset columns in canonical order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// FilterColumns are the categorical columns exposed as dashboard filters, in
// the order the dashboard presents them.
func FilterColumns() []Column {
	return []Column{ColKelurahan, ColType, ColPriority}
}

// SensitivityScenarios returns the scenario columns in display order.
func SensitivityScenarios() []Column {
	return []Column{ColSens10, ColSens25, ColSens50}
}

// GrantPriorityTiers are the priority values whose full grant amount is
// totalled by the dashboard.
func GrantPriorityTiers() []string {
	return []string{"Prioritas", "Prioritas Hibah"}
}

// TableColumns are the columns shown in the ranked table.
func TableColumns() []Column {
	return []Column{
		ColID, ColType, ColKelurahan, ColPriority,
		ColVulnSynth, ColMMB, ColHibah100Pct, ColHibahProp, ColEMIRaw, ColCicilanAman,
	}
}

// IsNumeric reports whether the column holds a number.
func (c Column) IsNumeric() bool {
	switch c {
	case ColVulnSynth, ColMMB, ColHibah100Pct, ColHibahProp, ColEMIRaw, ColCicilanAman:
		return true
	}
	return false
}

// IsCategorical reports whether the column holds a categorical value.
// The id column is neither numeric nor categorical.
func (c Column) IsCategorical() bool {
	switch c {
	case ColType, ColKelurahan, ColPriority, ColSens10, ColSens25, ColSens50:
		return true
	}
	return false
}

// Number returns the value of a numeric column.
func (r Record) Number(c Column) (float64, bool) {
	switch c {
	case ColVulnSynth:
		return r.VulnSynth, true
	case ColMMB:
		return r.MMB, true
	case ColHibah100Pct:
		return r.Hibah100Pct, true
	case ColHibahProp:
		return r.HibahProp, true
	case ColEMIRaw:
		return r.EMIRaw, true
	case ColCicilanAman:
		return r.CicilanAman, true
	}
	return 0, false
}

// Category returns the value of a categorical column or the id.
func (r Record) Category(c Column) (string, bool) {
	switch c {
	case ColID:
		return r.ID, true
	case ColType:
		return r.Type, true
	case ColKelurahan:
		return r.Kelurahan, true
	case ColPriority:
		return r.Priority, true
	case ColSens10:
		return r.Sens10, true
	case ColSens25:
		return r.Sens25, true
	case ColSens50:
		return r.Sens50, true
	}
	return "", false
}

// SetNumber assigns a numeric column. Used by parsers building a record
// column by column.
func (r *Record) SetNumber(c Column, v float64) error {
	switch c {
	case ColVulnSynth:
		r.VulnSynth = v
	case ColMMB:
		r.MMB = v
	case ColHibah100Pct:
		r.Hibah100Pct = v
	case ColHibahProp:
		r.HibahProp = v
	case ColEMIRaw:
		r.EMIRaw = v
	case ColCicilanAman:
		r.CicilanAman = v
	default:
		return fmt.Errorf("column %q is not numeric", c)
	}
	return nil
}

// SetCategory assigns a categorical column or the id.
func (r *Record) SetCategory(c Column, v string) error {
	switch c {
	case ColID:
		r.ID = v
	case ColType:
		r.Type = v
	case ColKelurahan:
		r.Kelurahan = v
	case ColPriority:
		r.Priority = v
	case ColSens10:
		r.Sens10 = v
	case ColSens25:
		r.Sens25 = v
	case ColSens50:
		r.Sens50 = v
	default:
		return fmt.Errorf("column %q is not categorical", c)
	}
	return nil
}

// Validate checks the per-record invariants: a non-empty id and finite,
// non-negative numeric fields.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	for _, c := range columns {
		if !c.IsNumeric() {
			continue
		}
		v, _ := r.Number(c)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", c)
		}
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", c, v)
		}
	}
	return nil
}
