package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"genie-dashboard/internal/databricks"
	"genie-dashboard/internal/domain"
)

// StatementAPI is the part of the Databricks client used for statements.
type StatementAPI interface {
	SubmitStatement(ctx context.Context, req databricks.ExecuteStatementRequest) (*databricks.StatementResponse, error)
	GetStatement(ctx context.Context, statementID string) (*databricks.StatementResponse, error)
}

// Poller fetches statement status at a fixed interval until it is terminal.
type Poller struct {
	api      StatementAPI
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a Poller. A nil clock uses the real clock.
func NewPoller(api StatementAPI, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{api: api, clock: clock, interval: interval, logger: logger}
}

// Poll fetches the statement up to maxAttempts times, sleeping between
// attempts but not after the last one. It returns the SUCCEEDED payload, a
// QueryFailedError on FAILED, CANCELED or CLOSED, or a PollTimeoutError when
// the budget runs out. Fetch errors are returned immediately.
func (p *Poller) Poll(ctx context.Context, statementID string, maxAttempts int) (*databricks.StatementResponse, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	defer func() { PollAttempts.Observe(float64(attempt)) }()

	for {
		attempt++
		resp, err := p.api.GetStatement(ctx, statementID)
		if err != nil {
			return nil, err
		}

		state := strings.ToUpper(resp.Status.State)
		switch state {
		case databricks.StateSucceeded:
			return resp, nil
		case databricks.StateFailed, databricks.StateCanceled, databricks.StateClosed:
			return nil, domain.ErrQueryFailed(resp.Status.Error.ErrorMessage(), "Query failed")
		}

		if attempt >= maxAttempts {
			return nil, &domain.PollTimeoutError{StatementID: statementID, Attempts: attempt}
		}

		p.logger.Debug("statement still running",
			"statement_id", statementID, "state", state, "attempt", attempt)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
}
