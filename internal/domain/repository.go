package domain

import "context"

// WidgetRepository persists widgets. Get, Update and Delete return a
// NotFoundError when the id does not exist and leave the store unchanged.
type WidgetRepository interface {
	Create(ctx context.Context, w *Widget) (*Widget, error)
	List(ctx context.Context) ([]Widget, error)
	GetByID(ctx context.Context, id string) (*Widget, error)
	Update(ctx context.Context, id string, patch WidgetPatch) (*Widget, error)
	Delete(ctx context.Context, id string) error
}
