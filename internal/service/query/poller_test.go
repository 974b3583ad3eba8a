package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genie-dashboard/internal/databricks"
	"genie-dashboard/internal/domain"
)

// scriptedAPI returns the queued status responses in order, repeating the
// last one once the script runs out.
type scriptedAPI struct {
	mu       sync.Mutex
	submit   *databricks.StatementResponse
	script   []*databricks.StatementResponse
	fetches  int
	submits  []databricks.ExecuteStatementRequest
	fetchErr error
}

func (a *scriptedAPI) SubmitStatement(_ context.Context, req databricks.ExecuteStatementRequest) (*databricks.StatementResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submits = append(a.submits, req)
	return a.submit, nil
}

func (a *scriptedAPI) GetStatement(_ context.Context, _ string) (*databricks.StatementResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	i := a.fetches - 1
	if i >= len(a.script) {
		i = len(a.script) - 1
	}
	return a.script[i], nil
}

// countingClock fires every After immediately and counts the sleeps.
type countingClock struct {
	clockwork.Clock
	mu     sync.Mutex
	sleeps []time.Duration
}

func newCountingClock() *countingClock {
	return &countingClock{Clock: clockwork.NewFakeClock()}
}

func (c *countingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

func (c *countingClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

func state(s string) *databricks.StatementResponse {
	return &databricks.StatementResponse{StatementID: "st-1", Status: databricks.StatementStatus{State: s}}
}

func TestPoller_SucceedsAfterTwoSleeps(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{script: []*databricks.StatementResponse{
		state(databricks.StateRunning),
		state(databricks.StateRunning),
		state(databricks.StateSucceeded),
	}}
	clk := newCountingClock()
	p := NewPoller(api, clk, 250*time.Millisecond, nil)

	resp, err := p.Poll(context.Background(), "st-1", 5)
	require.NoError(t, err)
	assert.Equal(t, databricks.StateSucceeded, resp.Status.State)
	assert.Equal(t, 3, api.fetches)
	assert.Equal(t, 2, clk.Sleeps())
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, clk.sleeps)
}

func TestPoller_TimeoutAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{script: []*databricks.StatementResponse{state(databricks.StateRunning)}}
	clk := newCountingClock()
	p := NewPoller(api, clk, time.Second, nil)

	_, err := p.Poll(context.Background(), "st-1", 3)
	require.Error(t, err)

	var timeout *domain.PollTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, timeout.Attempts)
	assert.Equal(t, "st-1", timeout.StatementID)
	assert.Equal(t, 3, api.fetches)
	assert.Equal(t, 2, clk.Sleeps())
}

func TestPoller_TerminalFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *databricks.StatementResponse
		wantMsg string
	}{
		{
			name: "failed with message",
			resp: &databricks.StatementResponse{Status: databricks.StatementStatus{
				State: databricks.StateFailed,
				Error: &databricks.ErrorInfo{Message: "[TABLE_OR_VIEW_NOT_FOUND] sales"},
			}},
			wantMsg: "[TABLE_OR_VIEW_NOT_FOUND] sales",
		},
		{name: "canceled", resp: state(databricks.StateCanceled), wantMsg: "Query failed"},
		{name: "closed", resp: state(databricks.StateClosed), wantMsg: "Query failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &scriptedAPI{script: []*databricks.StatementResponse{state(databricks.StatePending), tt.resp}}
			clk := newCountingClock()
			p := NewPoller(api, clk, time.Second, nil)

			_, err := p.Poll(context.Background(), "st-1", 10)
			var failed *domain.QueryFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, tt.wantMsg, failed.Message)
			assert.Equal(t, 2, api.fetches)
			assert.Equal(t, 1, clk.Sleeps())
		})
	}
}

func TestPoller_FetchErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{fetchErr: &domain.UpstreamError{Op: "get_statement", StatusCode: 500}}
	clk := newCountingClock()
	p := NewPoller(api, clk, time.Second, nil)

	_, err := p.Poll(context.Background(), "st-1", 5)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 1, api.fetches)
	assert.Equal(t, 0, clk.Sleeps())
}

func TestPoller_ContextCanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{script: []*databricks.StatementResponse{state(databricks.StateRunning)}}
	fake := clockwork.NewFakeClock()
	p := NewPoller(api, fake, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(ctx, "st-1", 5)
		done <- err
	}()

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not return after cancel")
	}
	assert.Equal(t, 1, api.fetches)
}
