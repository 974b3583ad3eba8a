// Package api provides the HTTP handlers for asking questions, reading
// results and managing dashboard widgets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"genie-dashboard/internal/domain"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ConversationService is implemented by genie.ConversationService.
type ConversationService interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error)
	GetResult(ctx context.Context, conversationID, messageID string) (*domain.ConversationResult, error)
}

// WidgetQueryService is implemented by query.QueryService.
type WidgetQueryService interface {
	ExecuteWidget(ctx context.Context, widgetID string) (*domain.QueryResult, error)
}

// WidgetService is implemented by widget.Service.
type WidgetService interface {
	Create(ctx context.Context, req domain.CreateWidgetRequest) (*domain.Widget, error)
	List(ctx context.Context) ([]domain.Widget, error)
	Get(ctx context.Context, id string) (*domain.Widget, error)
	Update(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error)
	Delete(ctx context.Context, id string) error
}

// EventSource is implemented by events.Broker.
type EventSource interface {
	Subscribe(ctx context.Context) <-chan domain.WidgetEvent
}

// Handler serves the JSON API.
type Handler struct {
	genie   ConversationService
	queries WidgetQueryService
	widgets WidgetService
	events  EventSource
	logger  *slog.Logger
}

// NewHandler creates a Handler. events may be nil, in which case the event
// stream responds 503.
func NewHandler(genie ConversationService, queries WidgetQueryService, widgets WidgetService, events EventSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		genie:   genie,
		queries: queries,
		widgets: widgets,
		events:  events,
		logger:  logger.With("component", "api"),
	}
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
	})
}
