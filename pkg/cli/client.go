package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"genie-dashboard/internal/domain"
)

// APIError is a non-2xx response from the dashboard API.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// Client talks to the dashboard HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Client for the given host.
func NewClient(host string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(host, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ask submits a question, optionally continuing a conversation.
func (c *Client) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	var out domain.AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/genie/ask", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Result fetches the current state of one message.
func (c *Client) Result(ctx context.Context, conversationID, messageID string) (*domain.ConversationResult, error) {
	path := "/api/genie/result/" + url.PathEscape(conversationID) + "/" + url.PathEscape(messageID)
	var out domain.ConversationResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWidgets returns every widget in creation order.
func (c *Client) ListWidgets(ctx context.Context) ([]domain.Widget, error) {
	var out []domain.Widget
	if err := c.do(ctx, http.MethodGet, "/api/widgets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWidget returns one widget.
func (c *Client) GetWidget(ctx context.Context, id string) (*domain.Widget, error) {
	var out domain.Widget
	if err := c.do(ctx, http.MethodGet, "/api/widgets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWidget locks a query onto the dashboard.
func (c *Client) CreateWidget(ctx context.Context, req domain.CreateWidgetRequest) (*domain.Widget, error) {
	var out domain.Widget
	if err := c.do(ctx, http.MethodPost, "/api/widgets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWidget applies a partial update.
func (c *Client) UpdateWidget(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error) {
	var out domain.Widget
	if err := c.do(ctx, http.MethodPatch, "/api/widgets/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWidget removes a widget.
func (c *Client) DeleteWidget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/widgets/"+url.PathEscape(id), nil, nil)
}

// WidgetData executes a widget's saved query.
func (c *Client) WidgetData(ctx context.Context, id string) (*domain.QueryResult, error) {
	var out domain.QueryResult
	if err := c.do(ctx, http.MethodGet, "/api/query/"+url.PathEscape(id)+"/data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkError turns a non-2xx response into an *APIError. Structured bodies
// supply the message; anything else is reported raw.
func checkError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{HTTPStatus: resp.StatusCode, Code: resp.StatusCode}

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		if body.Code != 0 {
			apiErr.Code = body.Code
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
