// Package databricks is a small bearer-token client for the Databricks SQL
// Statement Execution and Genie APIs.
package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"genie-dashboard/internal/domain"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Host       string
	Token      string
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client talks to one Databricks workspace.
type Client struct {
	host   string
	token  string
	http   HTTPDoer
	logger *slog.Logger
}

// NewClient creates a Client. A nil HTTPClient gets an *http.Client with the
// configured timeout.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		host:   strings.TrimRight(cfg.Host, "/"),
		token:  cfg.Token,
		http:   httpClient,
		logger: logger.With("component", "databricks"),
	}
}

// ---------------------------------------------------------------------------
// Statement Execution API
// ---------------------------------------------------------------------------

// SubmitStatement starts a statement on a warehouse. Depending on wait
// timeout the response may already be terminal.
func (c *Client) SubmitStatement(ctx context.Context, req ExecuteStatementRequest) (*StatementResponse, error) {
	var out StatementResponse
	if err := c.do(ctx, "submit_statement", http.MethodPost, "/api/2.0/sql/statements", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatement fetches the status (and result, once succeeded) of a statement.
func (c *Client) GetStatement(ctx context.Context, statementID string) (*StatementResponse, error) {
	var out StatementResponse
	path := "/api/2.0/sql/statements/" + url.PathEscape(statementID)
	if err := c.do(ctx, "get_statement", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Genie API
// ---------------------------------------------------------------------------

type contentRequest struct {
	Content string `json:"content"`
}

// StartConversation opens a new conversation in a space with its first question.
func (c *Client) StartConversation(ctx context.Context, spaceID, content string) (*StartConversationResponse, error) {
	var out StartConversationResponse
	path := genieSpacePath(spaceID) + "/start-conversation"
	if err := c.do(ctx, "start_conversation", http.MethodPost, path, contentRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	if out.ConversationID == "" && out.Conversation != nil {
		out.ConversationID = out.Conversation.ID
	}
	if out.MessageID == "" && out.Message != nil {
		out.MessageID = out.Message.ID
	}
	return &out, nil
}

// CreateMessage adds a follow-up question to an existing conversation.
func (c *Client) CreateMessage(ctx context.Context, spaceID, conversationID, content string) (*GenieMessage, error) {
	var out GenieMessage
	path := conversationPath(spaceID, conversationID) + "/messages"
	if err := c.do(ctx, "create_message", http.MethodPost, path, contentRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	if out.ConversationID == "" {
		out.ConversationID = conversationID
	}
	return &out, nil
}

// GetMessage fetches a message with its status and attachments.
func (c *Client) GetMessage(ctx context.Context, spaceID, conversationID, messageID string) (*GenieMessage, error) {
	var out GenieMessage
	path := conversationPath(spaceID, conversationID) + "/messages/" + url.PathEscape(messageID)
	if err := c.do(ctx, "get_message", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMessageQueryResult fetches the result of the query Genie ran for a message.
func (c *Client) GetMessageQueryResult(ctx context.Context, spaceID, conversationID, messageID string) (*QueryResultResponse, error) {
	var out QueryResultResponse
	path := conversationPath(spaceID, conversationID) + "/messages/" + url.PathEscape(messageID) + "/query-result"
	if err := c.do(ctx, "get_message_query_result", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func genieSpacePath(spaceID string) string {
	return "/api/2.0/genie/spaces/" + url.PathEscape(spaceID)
}

func conversationPath(spaceID, conversationID string) string {
	return genieSpacePath(spaceID) + "/conversations/" + url.PathEscape(conversationID)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
		UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("databricks request failed",
			"op", op, "status", resp.StatusCode, "body", string(snippet))
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
