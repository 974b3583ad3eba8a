package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"genie-dashboard/internal/domain"
)

const gridColumns = 12

// reloadScript reloads the page whenever the widget set changes.
const reloadScript = `(function () {
  var es = new EventSource("/api/widgets/events");
  ["widget.created", "widget.updated", "widget.deleted"].forEach(function (t) {
    es.addEventListener(t, function () { window.location.reload(); });
  });
})();`

func page(title string, body ...gomponents.Node) gomponents.Node {
	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Genie Dashboard")),
			html.Link(html.Rel("stylesheet"), html.Href("/ui/static/app.css")),
		),
		html.Body(
			html.Main(
				html.Class("layout"),
				gomponents.Group(body),
			),
		),
	)
}

func dashboardPage(panels []panel) gomponents.Node {
	var content gomponents.Node
	if len(panels) == 0 {
		content = html.Div(html.Class("empty"),
			gomponents.Text("No widgets yet. Ask a question and lock a result to pin it here."))
	} else {
		cells := make([]gomponents.Node, 0, len(panels))
		for _, p := range panels {
			cells = append(cells, widgetCell(p))
		}
		content = html.Div(html.Class("grid"), gomponents.Group(cells))
	}

	return page("Dashboard",
		html.Div(
			html.Class("topbar"),
			html.H1(html.Class("page-title"), gomponents.Text("Dashboard")),
			html.P(html.Class("muted"), gomponents.Textf("%d widgets", len(panels))),
		),
		content,
		html.Script(gomponents.Raw(reloadScript)),
	)
}

func errorPage(title, message string) gomponents.Node {
	return page(title,
		html.H1(html.Class("page-title"), gomponents.Text(title)),
		html.P(gomponents.Text(message)),
	)
}

// gridStyle places the widget on the 12 column grid, clamping spans that
// would overflow the right edge.
func gridStyle(l domain.WidgetLayout) string {
	x := min(max(l.X, 0), gridColumns-1)
	w := min(max(l.W, 1), gridColumns-x)
	h := max(l.H, 1)
	return fmt.Sprintf("grid-column: %d / span %d; grid-row: %d / span %d;", x+1, w, max(l.Y, 0)+1, h)
}

func widgetCell(p panel) gomponents.Node {
	vis := p.Widget.Visualization
	title := vis.Title()
	if title == "" {
		title = "Untitled widget"
	}

	var body gomponents.Node
	switch {
	case p.Err != nil:
		body = html.P(html.Class("error"), gomponents.Text("Query failed: "+p.Err.Error()))
	case vis.IsZero():
		body = html.P(html.Class("error"), gomponents.Text("Widget has no visualization."))
	case len(p.Missing) > 0:
		body = html.P(html.Class("error"),
			gomponents.Textf("Result is missing column(s): %s", strings.Join(p.Missing, ", ")))
	default:
		body = resultTable(vis, p.Result)
	}

	var kind string
	if !vis.IsZero() {
		kind = string(vis.Kind())
	}
	return html.Section(
		html.Class("widget"),
		html.ID("widget-"+p.Widget.ID),
		html.Style(gridStyle(p.Widget.Layout)),
		html.Span(html.Class("kind"), gomponents.Text(kind)),
		html.H2(gomponents.Text(title)),
		body,
	)
}

// measureKey returns the numeric key plotted by chart kinds, or "" for tables.
func measureKey(v domain.VisualizationConfig) string {
	switch c := v.Visualization.(type) {
	case domain.BarChart:
		return c.YAxisKey
	case domain.LineChart:
		return c.YAxisKey
	case domain.AreaChart:
		return c.YAxisKey
	case domain.PieChart:
		return c.ValueKey
	}
	return ""
}

func resultTable(vis domain.VisualizationConfig, res *domain.QueryResult) gomponents.Node {
	cols := vis.ProjectedColumns(res.Columns)
	measure := measureKey(vis)

	var peak float64
	if measure != "" {
		for _, row := range res.Data {
			if f, ok := toFloat(row[measure]); ok {
				peak = math.Max(peak, math.Abs(f))
			}
		}
	}

	head := make([]gomponents.Node, 0, len(cols)+1)
	for _, c := range cols {
		head = append(head, html.Th(gomponents.Text(c)))
	}
	if peak > 0 {
		head = append(head, html.Th())
	}

	rows := make([]gomponents.Node, 0, len(res.Data))
	for _, row := range res.Data {
		cells := make([]gomponents.Node, 0, len(cols)+1)
		for _, c := range cols {
			cells = append(cells, html.Td(gomponents.Text(formatCell(row[c]))))
		}
		if peak > 0 {
			f, _ := toFloat(row[measure])
			pct := math.Abs(f) / peak * 100
			cells = append(cells, html.Td(
				html.Div(html.Class("bar"), html.Style(fmt.Sprintf("width: %.0f%%", pct))),
			))
		}
		rows = append(rows, html.Tr(gomponents.Group(cells)))
	}

	if len(rows) == 0 {
		return html.P(html.Class("muted"), gomponents.Text("No rows."))
	}
	return html.Table(
		html.THead(html.Tr(gomponents.Group(head))),
		html.TBody(gomponents.Group(rows)),
	)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
