package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"genie-dashboard/internal/domain"
)

func newWidgetsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "widgets",
		Aliases: []string{"widget"},
		Short:   "Manage dashboard widgets",
	}

	cmd.AddCommand(newWidgetsListCmd(client))
	cmd.AddCommand(newWidgetsGetCmd(client))
	cmd.AddCommand(newWidgetsDeleteCmd(client))
	cmd.AddCommand(newWidgetsLockCmd(client))
	cmd.AddCommand(newWidgetsMoveCmd(client))

	return cmd
}

func newWidgetsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widgets in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			widgets, err := client.ListWidgets(cmd.Context())
			if err != nil {
				return err
			}
			return printWidgets(cmd, widgets)
		},
	}
}

func newWidgetsGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := client.GetWidget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printWidget(cmd, w)
		},
	}
}

func newWidgetsDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a widget from the dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteWidget(cmd.Context(), args[0]); err != nil {
				return err
			}
			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), map[string]any{"success": true, "id": args[0]}); ok {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "Widget %s deleted\n", args[0])
			return nil
		},
	}
}

type chartFlags struct {
	chart   string
	x       string
	y       string
	name    string
	value   string
	columns []string
	title   string
}

func (f *chartFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.chart, "chart", "table", "Chart kind (bar, line, area, pie, table)")
	fs.StringVar(&f.x, "x-key", "", "X axis column for bar, line and area charts")
	fs.StringVar(&f.y, "y-key", "", "Y axis column for bar, line and area charts")
	fs.StringVar(&f.name, "name-key", "", "Slice label column for pie charts")
	fs.StringVar(&f.value, "value-key", "", "Slice value column for pie charts")
	fs.StringSliceVar(&f.columns, "columns", nil, "Columns shown by a table (default all)")
	fs.StringVar(&f.title, "title", "", "Widget title")
}

func (f *chartFlags) visualization() (domain.VisualizationConfig, error) {
	var v domain.Visualization
	switch domain.ChartKind(f.chart) {
	case domain.ChartBar:
		v = domain.BarChart{XAxisKey: f.x, YAxisKey: f.y, Title: f.title}
	case domain.ChartLine:
		v = domain.LineChart{XAxisKey: f.x, YAxisKey: f.y, Title: f.title}
	case domain.ChartArea:
		v = domain.AreaChart{XAxisKey: f.x, YAxisKey: f.y, Title: f.title}
	case domain.ChartPie:
		v = domain.PieChart{NameKey: f.name, ValueKey: f.value, Title: f.title}
	case domain.ChartTable:
		v = domain.TableView{Columns: f.columns, Title: f.title}
	default:
		return domain.VisualizationConfig{}, fmt.Errorf("unsupported chart kind %q", f.chart)
	}
	cfg := domain.NewVisualization(v)
	if err := cfg.Validate(); err != nil {
		return domain.VisualizationConfig{}, err
	}
	return cfg, nil
}

type layoutFlags struct {
	x, y, w, h int
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.x, "col", 0, "Grid column (0-based)")
	fs.IntVar(&f.y, "row", 0, "Grid row (0-based)")
	fs.IntVar(&f.w, "width", domain.DefaultWidgetLayout.W, "Width in grid columns")
	fs.IntVar(&f.h, "height", domain.DefaultWidgetLayout.H, "Height in grid rows")
}

// apply overrides the fields of base whose flags were set.
func (f *layoutFlags) apply(fs *pflag.FlagSet, base domain.WidgetLayout) domain.WidgetLayout {
	if fs.Changed("col") {
		base.X = f.x
	}
	if fs.Changed("row") {
		base.Y = f.y
	}
	if fs.Changed("width") {
		base.W = f.w
	}
	if fs.Changed("height") {
		base.H = f.h
	}
	return base
}

func (f *layoutFlags) changed(fs *pflag.FlagSet) bool {
	for _, name := range []string{"col", "row", "width", "height"} {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

func newWidgetsLockCmd(client *Client) *cobra.Command {
	var (
		sql            string
		conversationID string
		messageID      string
		dashboardID    string
		chart          chartFlags
		layout         layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock a query onto the dashboard as a widget",
		Long: "Lock a query onto the dashboard. Pass --sql directly, or --conversation " +
			"and --message to lock the SQL of a completed Genie answer.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			viz, err := chart.visualization()
			if err != nil {
				return err
			}

			if sql == "" {
				if conversationID == "" || messageID == "" {
					return fmt.Errorf("either --sql or both --conversation and --message are required")
				}
				res, err := client.Result(cmd.Context(), conversationID, messageID)
				if err != nil {
					return err
				}
				if res.Status != domain.ConversationCompleted || res.SQL == "" {
					return fmt.Errorf("message %s has no SQL to lock (status %s)", messageID, res.Status)
				}
				sql = res.SQL
			}

			req := domain.CreateWidgetRequest{
				ConversationID: conversationID,
				MessageID:      messageID,
				DashboardID:    dashboardID,
				SQL:            sql,
				Visualization:  viz,
			}
			if layout.changed(cmd.Flags()) {
				l := layout.apply(cmd.Flags(), domain.DefaultWidgetLayout)
				req.Layout = &l
			}

			w, err := client.CreateWidget(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printWidget(cmd, w)
		},
	}

	cmd.Flags().StringVar(&sql, "sql", "", "SQL to lock")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation the SQL came from")
	cmd.Flags().StringVar(&messageID, "message", "", "Message the SQL came from")
	cmd.Flags().StringVar(&dashboardID, "dashboard", "", "Dashboard to lock onto (default \"default\")")
	chart.register(cmd.Flags())
	layout.register(cmd.Flags())

	return cmd
}

func newWidgetsMoveCmd(client *Client) *cobra.Command {
	var layout layoutFlags

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Change a widget's grid position or size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !layout.changed(cmd.Flags()) {
				return fmt.Errorf("at least one of --col, --row, --width or --height is required")
			}
			current, err := client.GetWidget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			next := layout.apply(cmd.Flags(), current.Layout)
			w, err := client.UpdateWidget(cmd.Context(), args[0], domain.WidgetPatch{Layout: &next})
			if err != nil {
				return err
			}
			return printWidget(cmd, w)
		},
	}

	layout.register(cmd.Flags())
	return cmd
}

func widgetRow(w domain.Widget) []string {
	title := ""
	kind := ""
	if !w.Visualization.IsZero() {
		title = w.Visualization.Title()
		kind = string(w.Visualization.Kind())
	}
	return []string{
		w.ID,
		w.DashboardID,
		kind,
		title,
		fmt.Sprintf("%d,%d %dx%d", w.Layout.X, w.Layout.Y, w.Layout.W, w.Layout.H),
		w.UpdatedAt.Format(time.RFC3339),
	}
}

var widgetHeader = []string{"ID", "DASHBOARD", "CHART", "TITLE", "LAYOUT", "UPDATED"}

func printWidgets(cmd *cobra.Command, widgets []domain.Widget) error {
	if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), widgets); ok {
		return err
	}
	rows := make([][]string, 0, len(widgets))
	for _, w := range widgets {
		rows = append(rows, widgetRow(w))
	}
	printTable(os.Stdout, widgetHeader, rows)
	return nil
}

func printWidget(cmd *cobra.Command, w *domain.Widget) error {
	if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), w); ok {
		return err
	}
	printTable(os.Stdout, widgetHeader, [][]string{widgetRow(*w)})
	_, _ = fmt.Fprintf(os.Stdout, "SQL: %s\n", w.DatabricksQueryID)
	return nil
}

func newQueryCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run saved widget queries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "data <widget-id>",
		Short: "Execute a widget's saved query and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client.WidgetData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), res); ok {
				return err
			}
			printRows(os.Stdout, res.Columns, res.Data)
			_, _ = fmt.Fprintf(os.Stdout, "%d row(s)\n", len(res.Data))
			return nil
		},
	})

	return cmd
}
