package dataset

import "ecorecovery/pkg/contracts/domain"

// Filter returns the records whose kelurahan, type and priority are all in
// the given sets, preserving input order. An empty set for any column yields
// no records.
func Filter(records []domain.Record, kel, typ, pri Set) []domain.Record {
	out := make([]domain.Record, 0)
	if kel.Len() == 0 || typ.Len() == 0 || pri.Len() == 0 {
		return out
	}
	for _, r := range records {
		if kel.Has(r.Kelurahan) && typ.Has(r.Type) && pri.Has(r.Priority) {
			out = append(out, r)
		}
	}
	return out
}
