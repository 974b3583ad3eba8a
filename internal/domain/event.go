package domain

import "time"

// WidgetEventType names what happened to a widget.
type WidgetEventType string

// Widget lifecycle events.
const (
	WidgetCreated WidgetEventType = "created"
	WidgetUpdated WidgetEventType = "updated"
	WidgetDeleted WidgetEventType = "deleted"
)

// WidgetEvent notifies dashboard listeners that the widget set changed.
type WidgetEvent struct {
	Type     WidgetEventType `json:"type"`
	WidgetID string          `json:"widgetId"`
	At       time.Time       `json:"at"`
}
