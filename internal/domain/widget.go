package domain

import (
	"strings"
	"time"
)

// DefaultDashboardID is the dashboard every locked widget lands on.
const DefaultDashboardID = "default"

// WidgetLayout is a grid position and span.
type WidgetLayout struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Validate checks that the layout describes a non-empty cell range.
func (l WidgetLayout) Validate() error {
	if l.X < 0 || l.Y < 0 {
		return ErrValidation("layout x and y must be non-negative")
	}
	if l.W < 1 || l.H < 1 {
		return ErrValidation("layout w and h must be at least 1")
	}
	return nil
}

// DefaultWidgetLayout is the position given to a freshly locked widget.
var DefaultWidgetLayout = WidgetLayout{X: 0, Y: 0, W: 6, H: 4}

// Widget is a persisted visualization bound to a fixed SQL string.
//
// DatabricksQueryID holds the literal SQL text, not an opaque query handle.
// It is set at creation and never updated.
type Widget struct {
	ID                string              `json:"id"`
	DashboardID       string              `json:"dashboardId"`
	DatabricksQueryID string              `json:"databricksQueryId"`
	Visualization     VisualizationConfig `json:"visualization"`
	Layout            WidgetLayout        `json:"layout"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// CreateWidgetRequest is the lock action payload. ConversationID and
// MessageID identify the chat result the widget came from; they are not
// persisted.
type CreateWidgetRequest struct {
	ConversationID string              `json:"conversationId,omitempty"`
	MessageID      string              `json:"messageId,omitempty"`
	DashboardID    string              `json:"dashboardId,omitempty"`
	SQL            string              `json:"sql"`
	Visualization  VisualizationConfig `json:"visualization"`
	Layout         *WidgetLayout       `json:"layout,omitempty"`
}

// Validate checks the create request.
func (r *CreateWidgetRequest) Validate() error {
	if strings.TrimSpace(r.SQL) == "" {
		return ErrValidation("sql is required")
	}
	if err := r.Visualization.Validate(); err != nil {
		return err
	}
	if r.Layout != nil {
		return r.Layout.Validate()
	}
	return nil
}

// WidgetPatch is a merge-patch: nil fields are left untouched.
type WidgetPatch struct {
	Visualization *VisualizationConfig `json:"visualization,omitempty"`
	Layout        *WidgetLayout        `json:"layout,omitempty"`
}

// Validate checks the fields that are present.
func (p *WidgetPatch) Validate() error {
	if p.Visualization != nil {
		if err := p.Visualization.Validate(); err != nil {
			return err
		}
	}
	if p.Layout != nil {
		return p.Layout.Validate()
	}
	return nil
}

// Apply merges the patch into w and stamps UpdatedAt.
func (p *WidgetPatch) Apply(w *Widget, now time.Time) {
	if p.Visualization != nil {
		w.Visualization = *p.Visualization
	}
	if p.Layout != nil {
		w.Layout = *p.Layout
	}
	w.UpdatedAt = now
}
