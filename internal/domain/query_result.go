package domain

// ColumnInfo describes one result column. Type is the upstream type tag,
// copied verbatim.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultRow maps column name to a scalar value (string, number, bool or nil).
type ResultRow map[string]any

// QueryResult is the normalized shape shared by the ask and saved-query flows.
// Every row carries exactly one key per column.
type QueryResult struct {
	Data    []ResultRow  `json:"data"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnNames returns the column names in manifest order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the number of rows in the result.
func (r *QueryResult) RowCount() int {
	return len(r.Data)
}
