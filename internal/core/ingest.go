package core

import (
	"fmt"
	"strconv"
)

// FormattedSuffix marks the supplementary display-formatted value a cell
// may carry next to its raw value. Formatted fields are consumed only by
// display code, never by aggregation.
const FormattedSuffix = "_formatted"

type (
	// Column is one entry of the table's column metadata. Label is the
	// human-facing header; ID is the source's positional identifier.
	// Either may be blank.
	Column struct {
		Label string
		ID    string
	}

	// Cell is a single spreadsheet cell as delivered by the source: a
	// raw value (string, number or nil) and an optional pre-formatted
	// display string.
	Cell struct {
		Value     any
		Formatted string
	}

	// Table is a raw tabular response: ordered column metadata plus the
	// cell matrix. Rows may be ragged and may contain nil cells.
	Table struct {
		Cols []Column
		Rows [][]*Cell
	}

	// Row is one transaction record. Fields preserves source fidelity
	// under the original header strings; the normalized map is what all
	// lookups go through. A row's identity is positional: rows are
	// never merged or deduplicated by content.
	Row struct {
		// Index is the row's position within its source.
		Index int
		// Source names the data source the row was ingested from.
		Source string
		// Fields maps original header -> raw value, plus formatted
		// variants under header+FormattedSuffix.
		Fields map[string]any

		norm *FieldMap
	}
)

// FieldMap is an insertion-ordered map from normalized key to value.
// Setting an existing key overwrites the value but keeps the key's
// original position, so the last-write-wins behavior on colliding
// headers stays deterministic and assertable.
type FieldMap struct {
	keys []string
	vals map[string]any
}

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{vals: make(map[string]any)}
}

// Set stores v under key, overwriting in place if key already exists.
// The empty key is ignored.
func (m *FieldMap) Set(key string, v any) {
	if key == "" {
		return
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *FieldMap) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *FieldMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of stored keys.
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// Norm looks up a row value by normalized key.
func (r Row) Norm(key string) (any, bool) {
	if r.norm == nil {
		return nil, false
	}
	return r.norm.Get(key)
}

// NormString returns the value under key rendered as a string, or ""
// when the key is absent.
func (r Row) NormString(key string) string {
	v, ok := r.Norm(key)
	if !ok {
		return ""
	}
	return ValueString(v)
}

// FirstString returns the first non-blank value among keys.
func (r Row) FirstString(keys ...string) string {
	for _, k := range keys {
		if s := r.NormString(k); s != "" {
			return s
		}
	}
	return ""
}

// NormKeys returns the row's normalized keys in insertion order.
func (r Row) NormKeys() []string {
	if r.norm == nil {
		return nil
	}
	return r.norm.Keys()
}

// ValueString renders a raw cell value for matching and display.
// Numbers keep their shortest representation so codes like 22348 do not
// grow a decimal point.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// HeaderNames resolves the column metadata to one header string per
// column: the label when present, else the ID, else a positional
// placeholder like "col3".
func HeaderNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		switch {
		case c.Label != "":
			out[i] = c.Label
		case c.ID != "":
			out[i] = c.ID
		default:
			out[i] = "col" + strconv.Itoa(i)
		}
	}
	return out
}

// Ingest converts a raw table into normalized rows tagged with source.
// Each cell is recorded under both its original header and the header's
// normalized form; absent or nil cells become the empty string. When
// two distinct headers normalize to the same key, the later column
// overwrites the earlier one in the normalized map (last-write-wins, an
// accepted ambiguity of the lossy normalizer). The transformation is
// pure: the input table is not retained.
func Ingest(t Table, source string) []Row {
	headers := HeaderNames(t.Cols)
	rows := make([]Row, 0, len(t.Rows))
	for i, cells := range t.Rows {
		row := Row{
			Index:  i,
			Source: source,
			Fields: make(map[string]any, len(cells)),
			norm:   NewFieldMap(),
		}
		for j, cell := range cells {
			header := "col" + strconv.Itoa(j)
			if j < len(headers) {
				header = headers[j]
			}
			var v any = ""
			if cell != nil && cell.Value != nil {
				v = cell.Value
			}
			row.Fields[header] = v
			row.norm.Set(NormalizeKey(header), v)
			if cell != nil && cell.Formatted != "" {
				row.Fields[header+FormattedSuffix] = cell.Formatted
				row.norm.Set(NormalizeKey(header+FormattedSuffix), cell.Formatted)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TableFromValues adapts a plain values matrix (as returned by the
// Sheets API) into a Table, taking the first row as the header row.
func TableFromValues(values [][]any) Table {
	var t Table
	if len(values) == 0 {
		return t
	}
	for _, h := range values[0] {
		t.Cols = append(t.Cols, Column{Label: ValueString(h)})
	}
	for _, vals := range values[1:] {
		cells := make([]*Cell, len(vals))
		for i, v := range vals {
			cells[i] = &Cell{Value: v}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
