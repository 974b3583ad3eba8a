// Package widget manages the widgets locked onto dashboards.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"genie-dashboard/internal/domain"
)

var _ domain.WidgetReader = (*Service)(nil)

// Service provides widget CRUD and announces every change.
type Service struct {
	repo   domain.WidgetRepository
	events domain.WidgetEventPublisher
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new widget Service. events may be nil.
func NewService(repo domain.WidgetRepository, events domain.WidgetEventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
		logger: logger.With("component", "widget"),
	}
}

// Create locks a query result onto a dashboard as a new widget.
func (s *Service) Create(ctx context.Context, req domain.CreateWidgetRequest) (*domain.Widget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w := &domain.Widget{
		ID:                domain.NewID(),
		DashboardID:       req.DashboardID,
		DatabricksQueryID: req.SQL,
		Visualization:     req.Visualization,
		Layout:            domain.DefaultWidgetLayout,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if w.DashboardID == "" {
		w.DashboardID = domain.DefaultDashboardID
	}
	if req.Layout != nil {
		w.Layout = *req.Layout
	}

	created, err := s.repo.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}

	s.logger.Info("widget locked",
		"widget_id", created.ID,
		"dashboard_id", created.DashboardID,
		"chart", created.Visualization.Kind(),
		"conversation_id", req.ConversationID,
		"message_id", req.MessageID)
	s.publish(domain.WidgetCreated, created.ID)
	return created, nil
}

// List returns all widgets ordered by creation time.
func (s *Service) List(ctx context.Context) ([]domain.Widget, error) {
	widgets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if widgets == nil {
		widgets = []domain.Widget{}
	}
	return widgets, nil
}

// Get returns a widget by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Widget, error) {
	return s.repo.GetByID(ctx, id)
}

// Update merges the patch into the widget. Omitted fields are untouched.
func (s *Service) Update(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("widget updated",
		"widget_id", id,
		"visualization", patch.Visualization != nil,
		"layout", patch.Layout != nil)
	s.publish(domain.WidgetUpdated, id)
	return updated, nil
}

// Delete removes a widget.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("widget deleted", "widget_id", id)
	s.publish(domain.WidgetDeleted, id)
	return nil
}

func (s *Service) publish(t domain.WidgetEventType, id string) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.WidgetEvent{Type: t, WidgetID: id, At: s.now().UTC()})
}
