package strata

import "github.com/strata-db/strata/schema"

// FilterForExport returns a copy of row with the model's filtered
// fields removed. Keys the schema does not declare are kept untouched,
// so rows that have been joined or annotated survive the pass. The
// input is never modified.
func (m *Model) FilterForExport(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		if f := m.schema.Field(k); f != nil && f.Meta.Has(schema.Filtered) {
			continue
		}
		out[k] = v
	}
	return out
}

// FilterAllForExport applies FilterForExport to every row.
func (m *Model) FilterAllForExport(rows []Row) []Row {
	out := make([]Row, len(rows))
	for ii, row := range rows {
		out[ii] = m.FilterForExport(row)
	}
	return out
}
