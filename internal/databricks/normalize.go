package databricks

import (
	"bytes"
	"encoding/json"
	"strconv"

	"genie-dashboard/internal/domain"
)

// Normalize converts a statement manifest and result into named-field rows.
// The typed encoding is used when it has rows; otherwise the plain encoding
// is read positionally. The two are never merged.
func Normalize(manifest *ResultManifest, result *StatementResult) *domain.QueryResult {
	columns := Columns(manifest)
	out := &domain.QueryResult{
		Data:    make([]domain.ResultRow, 0),
		Columns: columns,
	}
	if result == nil {
		return out
	}

	if len(result.DataTypedArray) > 0 {
		for _, row := range result.DataTypedArray {
			rec := make(domain.ResultRow, len(columns))
			for i, col := range columns {
				var cell *TypedValue
				if i < len(row.Values) {
					cell = &row.Values[i]
				}
				rec[col.Name] = typedCell(cell)
			}
			out.Data = append(out.Data, rec)
		}
		return out
	}

	for _, row := range result.DataArray {
		rec := make(domain.ResultRow, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col.Name] = row[i]
			} else {
				rec[col.Name] = nil
			}
		}
		out.Data = append(out.Data, rec)
	}
	return out
}

// Columns maps the manifest schema to column descriptors. Type names are
// copied verbatim.
func Columns(manifest *ResultManifest) []domain.ColumnInfo {
	columns := make([]domain.ColumnInfo, 0)
	if manifest == nil {
		return columns
	}
	for _, c := range manifest.Schema.Columns {
		columns = append(columns, domain.ColumnInfo{Name: c.Name, Type: c.TypeName})
	}
	return columns
}

// typedCell returns the first populated field in str, int, double, bool order.
func typedCell(v *TypedValue) any {
	if v == nil {
		return nil
	}
	if v.Str != nil {
		return *v.Str
	}
	if n, ok := rawNumber(v.Int); ok {
		return n
	}
	if n, ok := rawNumber(v.Double); ok {
		return n
	}
	if v.Bool != nil {
		return *v.Bool
	}
	return nil
}

// rawNumber decodes a number that may arrive as a JSON number or a JSON
// string. Strings are returned unchanged; integral numbers become int64.
func rawNumber(raw json.RawMessage) (any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return s, true
	}
	text := string(raw)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}
