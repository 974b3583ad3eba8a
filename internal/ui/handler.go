// Package ui renders the read-only dashboard page.
package ui

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	gomponents "maragu.dev/gomponents"

	"genie-dashboard/internal/domain"
	"genie-dashboard/internal/ui/assets"
)

const defaultConcurrency = 4

// WidgetLister is implemented by widget.Service.
type WidgetLister interface {
	List(ctx context.Context) ([]domain.Widget, error)
}

// Handler serves the dashboard page.
type Handler struct {
	widgets     WidgetLister
	queries     domain.QueryExecutor
	concurrency int
	logger      *slog.Logger
}

// NewHandler creates a Handler. concurrency bounds how many widget queries
// run at once while rendering; 0 means 4.
func NewHandler(widgets WidgetLister, queries domain.QueryExecutor, concurrency int, logger *slog.Logger) *Handler {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		widgets:     widgets,
		queries:     queries,
		concurrency: concurrency,
		logger:      logger.With("component", "ui"),
	}
}

// Routes returns the page and its static assets, to be mounted at /ui.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Dashboard)

	static, err := fs.Sub(assets.StaticFS(), "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(static))))
	return r
}

// panel is one widget with its freshly executed result or the error that
// prevented rendering it.
type panel struct {
	Widget  domain.Widget
	Result  *domain.QueryResult
	Err     error
	Missing []string
}

// Dashboard executes every widget's SQL and renders the grid. A widget that
// fails renders its error in place.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.widgets.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list widgets", "error", err)
		renderHTML(w, http.StatusInternalServerError,
			errorPage("Unexpected Error", "The dashboard could not be loaded."))
		return
	}

	panels := h.loadPanels(r.Context(), widgets)
	renderHTML(w, http.StatusOK, dashboardPage(panels))
}

func (h *Handler) loadPanels(ctx context.Context, widgets []domain.Widget) []panel {
	panels := make([]panel, len(widgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i := range widgets {
		panels[i].Widget = widgets[i]
		g.Go(func() error {
			p := &panels[i]
			res, err := h.queries.Execute(gctx, p.Widget.DatabricksQueryID)
			if err != nil {
				h.logger.Warn("widget query failed", "widget_id", p.Widget.ID, "error", err)
				p.Err = err
				return nil
			}
			p.Result = res
			p.Missing = p.Widget.Visualization.MissingKeys(res.Columns)
			return nil
		})
	}
	_ = g.Wait()
	return panels
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
