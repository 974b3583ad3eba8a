// Package genie asks natural-language questions through the Databricks Genie
// API and resolves the answers into normalized query results.
package genie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"genie-dashboard/internal/databricks"
	"genie-dashboard/internal/domain"
)

// API is the part of the Databricks client used for Genie conversations.
type API interface {
	StartConversation(ctx context.Context, spaceID, content string) (*databricks.StartConversationResponse, error)
	CreateMessage(ctx context.Context, spaceID, conversationID, content string) (*databricks.GenieMessage, error)
	GetMessage(ctx context.Context, spaceID, conversationID, messageID string) (*databricks.GenieMessage, error)
	GetMessageQueryResult(ctx context.Context, spaceID, conversationID, messageID string) (*databricks.QueryResultResponse, error)
}

// pendingStatuses are the message states in which Genie is still working.
var pendingStatuses = map[string]bool{
	databricks.MessageFilteringContext: true,
	databricks.MessageAskingAI:         true,
	databricks.MessageExecutingQuery:   true,
	databricks.MessagePending:          true,
}

// ConversationService starts Genie conversations and resolves message results.
type ConversationService struct {
	api     API
	spaceID string
	missing []string
	logger  *slog.Logger
}

// NewConversationService creates a ConversationService. When missing is
// non-empty the service answers with demo data instead of calling Genie.
func NewConversationService(api API, spaceID string, missing []string, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConversationService{
		api:     api,
		spaceID: spaceID,
		missing: missing,
		logger:  logger.With("component", "genie"),
	}
}

func (s *ConversationService) configured() error {
	if len(s.missing) > 0 {
		return &domain.ConfigurationMissingError{Missing: s.missing}
	}
	return nil
}

// Ask submits a question, starting a new conversation unless the request
// continues an existing one.
func (s *ConversationService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.ErrValidation("question is required")
	}

	if err := s.configured(); err != nil {
		s.logger.Warn("genie not configured, returning mock response", "error", err)
		return mockAskResponse(question), nil
	}

	if req.ConversationID == "" {
		resp, err := s.api.StartConversation(ctx, s.spaceID, question)
		if err != nil {
			return nil, fmt.Errorf("start conversation: %w", err)
		}
		s.logger.Info("conversation started",
			"conversation_id", resp.ConversationID, "message_id", resp.MessageID)
		return &domain.AskResponse{
			ConversationID: resp.ConversationID,
			MessageID:      resp.MessageID,
			Status:         domain.ConversationPending,
		}, nil
	}

	msg, err := s.api.CreateMessage(ctx, s.spaceID, req.ConversationID, question)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	s.logger.Info("follow-up message created",
		"conversation_id", req.ConversationID, "message_id", msg.ID)
	return &domain.AskResponse{
		ConversationID: req.ConversationID,
		MessageID:      msg.ID,
		Status:         domain.ConversationPending,
	}, nil
}

// GetResult resolves the current state of a message. Callers poll it until
// the status is completed or failed.
func (s *ConversationService) GetResult(ctx context.Context, conversationID, messageID string) (*domain.ConversationResult, error) {
	if conversationID == "" || messageID == "" {
		return nil, domain.ErrValidation("conversationId and messageId are required")
	}

	if err := s.configured(); err != nil {
		s.logger.Warn("genie not configured, returning mock result", "error", err)
		return mockResult(conversationID, messageID), nil
	}

	msg, err := s.api.GetMessage(ctx, s.spaceID, conversationID, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}

	base := domain.ConversationResult{ConversationID: conversationID, MessageID: messageID}
	pending := func() *domain.ConversationResult {
		r := base
		r.Status = domain.ConversationPending
		return &r
	}
	failed := func(msg string) *domain.ConversationResult {
		r := base
		r.Status = domain.ConversationFailed
		r.Error = msg
		return &r
	}

	status := strings.ToUpper(msg.Status)
	if pendingStatuses[status] && len(msg.Attachments) == 0 {
		return pending(), nil
	}
	if status == databricks.MessageFailed || status == databricks.MessageCancelled {
		return failed(domain.ErrQueryFailed(msg.Error.ErrorMessage(), "Query failed").Message), nil
	}

	text, query := pickAttachments(msg.Attachments)

	if query != nil {
		qr, err := s.api.GetMessageQueryResult(ctx, s.spaceID, conversationID, messageID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Only a non-2xx answer falls back to the text attachment.
			var up *domain.UpstreamError
			if !errors.As(err, &up) || up.StatusCode == 0 || (up.StatusCode >= 200 && up.StatusCode <= 299) {
				return nil, fmt.Errorf("get query result: %w", err)
			}
			s.logger.Warn("query result fetch failed", "conversation_id", conversationID,
				"message_id", messageID, "status", up.StatusCode, "error", err)
		} else {
			stmt := qr.StatementResponse
			if stmt == nil {
				stmt = &databricks.StatementResponse{}
			}
			switch strings.ToUpper(stmt.Status.State) {
			case databricks.StatePending, databricks.StateRunning:
				return pending(), nil
			case databricks.StateFailed, databricks.StateCanceled:
				return failed(domain.ErrQueryFailed(stmt.Status.Error.ErrorMessage(), "Query execution failed").Message), nil
			}

			result := databricks.Normalize(stmt.Manifest, stmt.Result)
			r := base
			r.Status = domain.ConversationCompleted
			r.SQL = query.Query
			r.Description = describe(query, text, result.RowCount())
			r.Data = result.Data
			r.Columns = result.Columns
			return &r, nil
		}
	}

	if text != nil {
		r := base
		r.Status = domain.ConversationCompleted
		r.Description = text.Content
		return &r, nil
	}

	return pending(), nil
}

// pickAttachments returns the first attachment with text content and the
// first attachment carrying a query.
func pickAttachments(attachments []databricks.Attachment) (*databricks.TextAttachment, *databricks.QueryAttachment) {
	var (
		text  *databricks.TextAttachment
		query *databricks.QueryAttachment
	)
	for _, a := range attachments {
		if text == nil && a.Text != nil && a.Text.Content != "" {
			text = a.Text
		}
		if query == nil && a.Query != nil {
			query = a.Query
		}
	}
	return text, query
}

func describe(query *databricks.QueryAttachment, text *databricks.TextAttachment, rows int) string {
	switch {
	case query.Description != "":
		return query.Description
	case text != nil:
		return text.Content
	case rows == 1:
		return "Query returned 1 row"
	case rows > 1:
		return fmt.Sprintf("Query returned %d rows", rows)
	default:
		return "Query executed successfully but returned no results"
	}
}

func mockAskResponse(question string) *domain.AskResponse {
	return &domain.AskResponse{
		ConversationID: "mock-conv-" + domain.NewID(),
		MessageID:      "mock-msg-" + domain.NewID(),
		Status:         domain.ConversationCompleted,
		Description:    `Mock response for: "` + question + `"`,
	}
}

func mockResult(conversationID, messageID string) *domain.ConversationResult {
	return &domain.ConversationResult{
		ConversationID: conversationID,
		MessageID:      messageID,
		Status:         domain.ConversationCompleted,
		SQL:            "SELECT * FROM mock_table LIMIT 10",
		Description:    "Mock data response",
		Data: []domain.ResultRow{
			{"category": "A", "value": 100},
			{"category": "B", "value": 200},
			{"category": "C", "value": 150},
			{"category": "D", "value": 300},
		},
		Columns: []domain.ColumnInfo{
			{Name: "category", Type: "STRING"},
			{Name: "value", Type: "INT"},
		},
	}
}
