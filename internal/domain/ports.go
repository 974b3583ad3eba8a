package domain

import "context"

// WidgetEventPublisher receives widget lifecycle notifications.
// Implemented by events.Broker.
type WidgetEventPublisher interface {
	Publish(ev WidgetEvent)
}

// QueryExecutor runs SQL and returns normalized results.
// Implemented by query.QueryService.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) (*QueryResult, error)
}

// WidgetReader looks up a single widget.
// Implemented by widget.Service.
type WidgetReader interface {
	Get(ctx context.Context, id string) (*Widget, error)
}
