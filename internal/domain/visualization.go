package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ChartKind is the discriminator of a VisualizationConfig.
type ChartKind string

// Supported chart kinds.
const (
	ChartBar   ChartKind = "bar"
	ChartLine  ChartKind = "line"
	ChartPie   ChartKind = "pie"
	ChartArea  ChartKind = "area"
	ChartTable ChartKind = "table"
)

// Visualization is one variant of the chart-kind union. Keys returns the
// result fields the variant projects; they must exist among the result's
// columns for rendering to succeed.
type Visualization interface {
	Kind() ChartKind
	Keys() []string
	Validate() error
}

// BarChart plots yAxisKey against xAxisKey as bars.
type BarChart struct {
	XAxisKey string `json:"xAxisKey"`
	YAxisKey string `json:"yAxisKey"`
	Title    string `json:"title,omitempty"`
}

// LineChart plots yAxisKey against xAxisKey as a line.
type LineChart struct {
	XAxisKey string `json:"xAxisKey"`
	YAxisKey string `json:"yAxisKey"`
	Title    string `json:"title,omitempty"`
}

// AreaChart plots yAxisKey against xAxisKey as a filled area.
type AreaChart struct {
	XAxisKey string `json:"xAxisKey"`
	YAxisKey string `json:"yAxisKey"`
	Title    string `json:"title,omitempty"`
}

// PieChart slices valueKey by nameKey.
type PieChart struct {
	NameKey  string `json:"nameKey"`
	ValueKey string `json:"valueKey"`
	Title    string `json:"title,omitempty"`
}

// TableView renders rows as a table. An empty Columns list means all columns.
type TableView struct {
	Columns []string `json:"columns,omitempty"`
	Title   string   `json:"title,omitempty"`
}

func (BarChart) Kind() ChartKind  { return ChartBar }
func (LineChart) Kind() ChartKind { return ChartLine }
func (AreaChart) Kind() ChartKind { return ChartArea }
func (PieChart) Kind() ChartKind  { return ChartPie }
func (TableView) Kind() ChartKind { return ChartTable }

func (c BarChart) Keys() []string  { return []string{c.XAxisKey, c.YAxisKey} }
func (c LineChart) Keys() []string { return []string{c.XAxisKey, c.YAxisKey} }
func (c AreaChart) Keys() []string { return []string{c.XAxisKey, c.YAxisKey} }
func (c PieChart) Keys() []string  { return []string{c.NameKey, c.ValueKey} }
func (c TableView) Keys() []string { return append([]string(nil), c.Columns...) }

func (c BarChart) Validate() error  { return requireAxes(ChartBar, c.XAxisKey, c.YAxisKey) }
func (c LineChart) Validate() error { return requireAxes(ChartLine, c.XAxisKey, c.YAxisKey) }
func (c AreaChart) Validate() error { return requireAxes(ChartArea, c.XAxisKey, c.YAxisKey) }

func (c PieChart) Validate() error {
	if strings.TrimSpace(c.NameKey) == "" || strings.TrimSpace(c.ValueKey) == "" {
		return ErrValidation("pie visualization requires nameKey and valueKey")
	}
	return nil
}

func (c TableView) Validate() error {
	for _, col := range c.Columns {
		if strings.TrimSpace(col) == "" {
			return ErrValidation("table visualization columns must not be empty")
		}
	}
	return nil
}

func requireAxes(kind ChartKind, x, y string) error {
	if strings.TrimSpace(x) == "" || strings.TrimSpace(y) == "" {
		return ErrValidation("%s visualization requires xAxisKey and yAxisKey", kind)
	}
	return nil
}

// VisualizationConfig wraps a Visualization variant and (de)serializes it as
// a JSON object tagged by "type".
type VisualizationConfig struct {
	Visualization
}

// NewVisualization wraps a variant.
func NewVisualization(v Visualization) VisualizationConfig {
	return VisualizationConfig{Visualization: v}
}

// IsZero reports whether no variant is set.
func (c VisualizationConfig) IsZero() bool {
	return c.Visualization == nil
}

// Title returns the variant's title, if any.
func (c VisualizationConfig) Title() string {
	switch v := c.Visualization.(type) {
	case BarChart:
		return v.Title
	case LineChart:
		return v.Title
	case AreaChart:
		return v.Title
	case PieChart:
		return v.Title
	case TableView:
		return v.Title
	}
	return ""
}

// Validate checks that a variant is set and well-formed.
func (c VisualizationConfig) Validate() error {
	if c.Visualization == nil {
		return ErrValidation("visualization is required")
	}
	return c.Visualization.Validate()
}

// MissingKeys returns the referenced keys that are absent from columns.
func (c VisualizationConfig) MissingKeys(columns []ColumnInfo) []string {
	if c.Visualization == nil {
		return nil
	}
	have := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		have[col.Name] = struct{}{}
	}
	var missing []string
	for _, k := range c.Keys() {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// ProjectedColumns returns the column names the variant displays, in display
// order. A table without an explicit subset projects every column.
func (c VisualizationConfig) ProjectedColumns(columns []ColumnInfo) []string {
	if t, ok := c.Visualization.(TableView); ok && len(t.Columns) == 0 {
		names := make([]string, len(columns))
		for i, col := range columns {
			names[i] = col.Name
		}
		return names
	}
	if c.Visualization == nil {
		return nil
	}
	return c.Keys()
}

// MarshalJSON implements json.Marshaler.
func (c VisualizationConfig) MarshalJSON() ([]byte, error) {
	if c.Visualization == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(c.Visualization)
	if err != nil {
		return nil, err
	}
	tag := fmt.Sprintf(`{"type":%q`, c.Kind())
	if bytes.Equal(body, []byte("{}")) {
		return []byte(tag + "}"), nil
	}
	out := make([]byte, 0, len(tag)+len(body))
	out = append(out, tag...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *VisualizationConfig) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.Visualization = nil
		return nil
	}
	var head struct {
		Type ChartKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ErrValidation("invalid visualization: %v", err)
	}

	var (
		v   Visualization
		err error
	)
	switch head.Type {
	case ChartBar:
		var b BarChart
		err = json.Unmarshal(data, &b)
		v = b
	case ChartLine:
		var l LineChart
		err = json.Unmarshal(data, &l)
		v = l
	case ChartArea:
		var a AreaChart
		err = json.Unmarshal(data, &a)
		v = a
	case ChartPie:
		var p PieChart
		err = json.Unmarshal(data, &p)
		v = p
	case ChartTable:
		var t TableView
		err = json.Unmarshal(data, &t)
		v = t
	case "":
		return ErrValidation("visualization type is required")
	default:
		return ErrValidation("unsupported visualization type %q", head.Type)
	}
	if err != nil {
		return ErrValidation("invalid %s visualization: %v", head.Type, err)
	}
	c.Visualization = v
	return nil
}
