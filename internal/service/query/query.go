// Package query runs SQL against a Databricks SQL warehouse and normalizes
// the results.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"genie-dashboard/internal/databricks"
	"genie-dashboard/internal/domain"
)

var _ domain.QueryExecutor = (*QueryService)(nil)

const (
	defaultWaitTimeout = "30s"
	defaultMaxAttempts = 30
)

// Options configures a QueryService.
type Options struct {
	WarehouseID string
	WaitTimeout string
	MaxAttempts int
	// Missing lists unset settings. When non-empty every execution returns
	// the demo result instead of calling Databricks.
	Missing []string
	Logger  *slog.Logger
}

// QueryService executes SQL statements and saved widget queries.
//
//nolint:revive // Name chosen for clarity across package boundaries
type QueryService struct {
	api         StatementAPI
	poller      *Poller
	widgets     domain.WidgetReader
	warehouseID string
	waitTimeout string
	maxAttempts int
	missing     []string
	logger      *slog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(api StatementAPI, poller *Poller, opts Options) *QueryService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.WaitTimeout == "" {
		opts.WaitTimeout = defaultWaitTimeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &QueryService{
		api:         api,
		poller:      poller,
		warehouseID: opts.WarehouseID,
		waitTimeout: opts.WaitTimeout,
		maxAttempts: opts.MaxAttempts,
		missing:     opts.Missing,
		logger:      logger.With("component", "query"),
	}
}

// SetWidgetReader configures widget lookup for ExecuteWidget.
func (s *QueryService) SetWidgetReader(r domain.WidgetReader) {
	s.widgets = r
}

// Execute runs sql and returns the normalized result. Without Databricks
// settings it returns a fixed demo result.
func (s *QueryService) Execute(ctx context.Context, sql string) (result *domain.QueryResult, err error) {
	if strings.TrimSpace(sql) == "" {
		return nil, domain.ErrValidation("sql query is required")
	}

	start := time.Now()
	defer func() {
		ExecutionDuration.Observe(time.Since(start).Seconds())
		ExecutionsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	result, err = s.execute(ctx, sql)
	if domain.IsConfigurationMissing(err) {
		s.logger.Warn("databricks statement execution not configured, returning demo data", "error", err)
		return FallbackResult(), nil
	}
	return result, err
}

// ExecuteWidget runs the SQL stored on a widget. Results are not cached.
func (s *QueryService) ExecuteWidget(ctx context.Context, widgetID string) (*domain.QueryResult, error) {
	if s.widgets == nil {
		return nil, errors.New("widget lookup is not configured")
	}
	w, err := s.widgets.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, w.DatabricksQueryID)
}

func (s *QueryService) execute(ctx context.Context, sql string) (*domain.QueryResult, error) {
	if len(s.missing) > 0 {
		return nil, &domain.ConfigurationMissingError{Missing: s.missing}
	}

	resp, err := s.api.SubmitStatement(ctx, databricks.ExecuteStatementRequest{
		WarehouseID:   s.warehouseID,
		Statement:     sql,
		WaitTimeout:   s.waitTimeout,
		OnWaitTimeout: "CONTINUE",
	})
	if err != nil {
		return nil, fmt.Errorf("submit statement: %w", err)
	}

	switch strings.ToUpper(resp.Status.State) {
	case databricks.StateSucceeded:
	case databricks.StateFailed, databricks.StateCanceled, databricks.StateClosed:
		return nil, domain.ErrQueryFailed(resp.Status.Error.ErrorMessage(), "Query failed")
	default:
		s.logger.Debug("statement not finished within wait timeout, polling",
			"statement_id", resp.StatementID, "state", resp.Status.State)
		resp, err = s.poller.Poll(ctx, resp.StatementID, s.maxAttempts)
		if err != nil {
			return nil, err
		}
	}

	return databricks.Normalize(resp.Manifest, resp.Result), nil
}

func outcome(err error) string {
	var (
		failed  *domain.QueryFailedError
		timeout *domain.PollTimeoutError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &failed):
		return "failed"
	case errors.As(err, &timeout):
		return "timeout"
	default:
		return "error"
	}
}

// FallbackResult is the demo dataset served when statement execution is not
// configured.
func FallbackResult() *domain.QueryResult {
	return &domain.QueryResult{
		Data: []domain.ResultRow{
			{"customerID": int64(2000112), "first_name": "Lorraine", "last_name": "James", "total_sales": int64(672)},
			{"customerID": int64(2000134), "first_name": "Charles", "last_name": "Wong", "total_sales": int64(519)},
			{"customerID": int64(2000248), "first_name": "Chad", "last_name": "Mills", "total_sales": int64(498)},
		},
		Columns: []domain.ColumnInfo{
			{Name: "customerID", Type: "LONG"},
			{Name: "first_name", Type: "STRING"},
			{Name: "last_name", Type: "STRING"},
			{Name: "total_sales", Type: "LONG"},
		},
	}
}
