package databricks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genie-dashboard/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{Host: srv.URL + "/", Token: "dapi-test"})
}

func TestClient_SubmitStatement(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/2.0/sql/statements", r.URL.Path)
		assert.Equal(t, "Bearer dapi-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body ExecuteStatementRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wh-1", body.WarehouseID)
		assert.Equal(t, "SELECT 1", body.Statement)
		assert.Equal(t, "30s", body.WaitTimeout)
		assert.Equal(t, "CONTINUE", body.OnWaitTimeout)

		_, _ = w.Write([]byte(`{"statement_id": "st-1", "status": {"state": "PENDING"}}`))
	})

	resp, err := c.SubmitStatement(context.Background(), ExecuteStatementRequest{
		WarehouseID:   "wh-1",
		Statement:     "SELECT 1",
		WaitTimeout:   "30s",
		OnWaitTimeout: "CONTINUE",
	})
	require.NoError(t, err)
	assert.Equal(t, "st-1", resp.StatementID)
	assert.Equal(t, StatePending, resp.Status.State)
}

func TestClient_GetStatement(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/2.0/sql/statements/st-9", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"statement_id": "st-9",
			"status": {"state": "FAILED", "error": {"error_code": "BAD_REQUEST", "message": "syntax error"}}
		}`))
	})

	resp, err := c.GetStatement(context.Background(), "st-9")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, resp.Status.State)
	assert.Equal(t, "syntax error", resp.Status.Error.ErrorMessage())
}

func TestClient_NonSuccessStatusIsUpstreamError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_code": "PERMISSION_DENIED", "message": "no access"}`))
	})

	_, err := c.GetStatement(context.Background(), "st-1")
	require.Error(t, err)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "get_statement", upstream.Op)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "PERMISSION_DENIED")
}

func TestClient_TransportErrorIsUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{Host: host, Token: "t"})
	_, err := c.SubmitStatement(context.Background(), ExecuteStatementRequest{Statement: "SELECT 1"})

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 0, upstream.StatusCode)
	assert.Error(t, upstream.Unwrap())
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetStatement(ctx, "st-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_StartConversation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/2.0/genie/spaces/space-1/start-conversation", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "total sales by region", body["content"])

		_, _ = w.Write([]byte(`{"conversation": {"id": "c-1"}, "message": {"id": "m-1", "status": "SUBMITTED"}}`))
	})

	resp, err := c.StartConversation(context.Background(), "space-1", "total sales by region")
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.ConversationID)
	assert.Equal(t, "m-1", resp.MessageID)
}

func TestClient_CreateMessage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/genie/spaces/space-1/conversations/c-1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "m-2", "status": "SUBMITTED"}`))
	})

	msg, err := c.CreateMessage(context.Background(), "space-1", "c-1", "and by month?")
	require.NoError(t, err)
	assert.Equal(t, "m-2", msg.ID)
	assert.Equal(t, "c-1", msg.ConversationID)
}

func TestClient_GetMessageAndQueryResult(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.0/genie/spaces/space-1/conversations/c-1/messages/m-1":
			_, _ = w.Write([]byte(`{
				"id": "m-1",
				"status": "COMPLETED",
				"attachments": [
					{"text": {"content": "Here you go"}},
					{"query": {"query": "SELECT 1", "description": "One"}}
				]
			}`))
		case "/api/2.0/genie/spaces/space-1/conversations/c-1/messages/m-1/query-result":
			_, _ = w.Write([]byte(`{"statement_response": {"status": {"state": "SUCCEEDED"}}}`))
		default:
			http.NotFound(w, r)
		}
	})

	msg, err := c.GetMessage(context.Background(), "space-1", "c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, MessageCompleted, msg.Status)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "Here you go", msg.Attachments[0].Text.Content)
	assert.Equal(t, "SELECT 1", msg.Attachments[1].Query.Query)

	qr, err := c.GetMessageQueryResult(context.Background(), "space-1", "c-1", "m-1")
	require.NoError(t, err)
	require.NotNil(t, qr.StatementResponse)
	assert.Equal(t, StateSucceeded, qr.StatementResponse.Status.State)
}
