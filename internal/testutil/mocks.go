// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"genie-dashboard/internal/domain"
)

// === Widget Repository ===

// MemWidgetRepo is an in-memory domain.WidgetRepository. Set the *Fn hooks
// to inject failures; unset hooks use the in-memory store.
type MemWidgetRepo struct {
	mu      sync.Mutex
	widgets map[string]domain.Widget

	Now func() time.Time

	CreateFn func(ctx context.Context, w *domain.Widget) (*domain.Widget, error)
	UpdateFn func(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error)
	DeleteFn func(ctx context.Context, id string) error
}

var _ domain.WidgetRepository = (*MemWidgetRepo)(nil)

// NewMemWidgetRepo creates an empty MemWidgetRepo.
func NewMemWidgetRepo() *MemWidgetRepo {
	return &MemWidgetRepo{widgets: make(map[string]domain.Widget), Now: time.Now}
}

// Create implements the interface method for testing.
func (m *MemWidgetRepo) Create(ctx context.Context, w *domain.Widget) (*domain.Widget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.widgets[w.ID]; ok {
		return nil, domain.ErrConflict("widget %q already exists", w.ID)
	}
	m.widgets[w.ID] = *w
	out := *w
	return &out, nil
}

// List implements the interface method for testing.
func (m *MemWidgetRepo) List(_ context.Context) ([]domain.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Widget, 0, len(m.widgets))
	for _, w := range m.widgets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetByID implements the interface method for testing.
func (m *MemWidgetRepo) GetByID(_ context.Context, id string) (*domain.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.widgets[id]
	if !ok {
		return nil, domain.ErrNotFound("widget %q not found", id)
	}
	return &w, nil
}

// Update implements the interface method for testing.
func (m *MemWidgetRepo) Update(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.widgets[id]
	if !ok {
		return nil, domain.ErrNotFound("widget %q not found", id)
	}
	patch.Apply(&w, m.Now().UTC())
	m.widgets[id] = w
	return &w, nil
}

// Delete implements the interface method for testing.
func (m *MemWidgetRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.widgets[id]; !ok {
		return domain.ErrNotFound("widget %q not found", id)
	}
	delete(m.widgets, id)
	return nil
}

// Len returns the number of stored widgets.
func (m *MemWidgetRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.widgets)
}

// === Event Publisher ===

// EventRecorder implements domain.WidgetEventPublisher and keeps every event.
type EventRecorder struct {
	mu     sync.Mutex
	Events []domain.WidgetEvent
}

var _ domain.WidgetEventPublisher = (*EventRecorder)(nil)

// Publish implements the interface method for testing.
func (r *EventRecorder) Publish(ev domain.WidgetEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []domain.WidgetEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WidgetEventType, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}

// === Query Executor ===

// MockQueryExecutor implements domain.QueryExecutor for testing.
type MockQueryExecutor struct {
	ExecuteFn func(ctx context.Context, sql string) (*domain.QueryResult, error)

	mu    sync.Mutex
	Calls []string
}

var _ domain.QueryExecutor = (*MockQueryExecutor)(nil)

// Execute implements the interface method for testing.
func (m *MockQueryExecutor) Execute(ctx context.Context, sql string) (*domain.QueryResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, sql)
	m.mu.Unlock()
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, sql)
	}
	panic("unexpected call to MockQueryExecutor.Execute")
}
