package databricks

import "encoding/json"

// Statement states reported by the Statement Execution API.
const (
	StatePending   = "PENDING"
	StateRunning   = "RUNNING"
	StateSucceeded = "SUCCEEDED"
	StateFailed    = "FAILED"
	StateCanceled  = "CANCELED"
	StateClosed    = "CLOSED"
)

// ExecuteStatementRequest is the body of POST /api/2.0/sql/statements.
type ExecuteStatementRequest struct {
	WarehouseID   string `json:"warehouse_id"`
	Statement     string `json:"statement"`
	WaitTimeout   string `json:"wait_timeout,omitempty"`
	OnWaitTimeout string `json:"on_wait_timeout,omitempty"`
}

// StatementResponse is returned by statement submission and status calls,
// and embedded in Genie query-result responses.
type StatementResponse struct {
	StatementID string           `json:"statement_id"`
	Status      StatementStatus  `json:"status"`
	Manifest    *ResultManifest  `json:"manifest,omitempty"`
	Result      *StatementResult `json:"result,omitempty"`
}

// StatementStatus is the execution state of a statement.
type StatementStatus struct {
	State string     `json:"state"`
	Error *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the error object Databricks attaches to failed jobs.
type ErrorInfo struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ErrorMessage returns the message, tolerating a nil receiver.
func (e *ErrorInfo) ErrorMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ResultManifest describes the columns of a result.
type ResultManifest struct {
	Schema struct {
		Columns []ManifestColumn `json:"columns"`
	} `json:"schema"`
}

// ManifestColumn is one column of the manifest schema.
type ManifestColumn struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	Position int    `json:"position"`
}

// StatementResult carries the rows in one of two encodings.
type StatementResult struct {
	DataArray      [][]any    `json:"data_array,omitempty"`
	DataTypedArray []TypedRow `json:"data_typed_array,omitempty"`
}

// TypedRow is one row of the typed encoding.
type TypedRow struct {
	Values []TypedValue `json:"values"`
}

// TypedValue holds at most one populated scalar. Int and Double stay raw
// because the API sends 64-bit values either as JSON numbers or as strings.
type TypedValue struct {
	Str    *string         `json:"str,omitempty"`
	Int    json.RawMessage `json:"int,omitempty"`
	Double json.RawMessage `json:"double,omitempty"`
	Bool   *bool           `json:"bool,omitempty"`
}

// ---------------------------------------------------------------------------
// Genie
// ---------------------------------------------------------------------------

// Genie message states.
const (
	MessageFilteringContext = "FILTERING_CONTEXT"
	MessageAskingAI         = "ASKING_AI"
	MessageExecutingQuery   = "EXECUTING_QUERY"
	MessagePending          = "PENDING"
	MessageCompleted        = "COMPLETED"
	MessageFailed           = "FAILED"
	MessageCancelled        = "CANCELLED"
)

// StartConversationResponse is returned by start-conversation.
type StartConversationResponse struct {
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	Conversation   *Conversation `json:"conversation,omitempty"`
	Message        *GenieMessage `json:"message,omitempty"`
}

// Conversation is the Genie conversation object.
type Conversation struct {
	ID string `json:"id"`
}

// GenieMessage is a Genie message with its attachments.
type GenieMessage struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Content        string       `json:"content"`
	Status         string       `json:"status"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Error          *ErrorInfo   `json:"error,omitempty"`
}

// Attachment is a text answer or a generated query attached to a message.
type Attachment struct {
	AttachmentID string           `json:"attachment_id,omitempty"`
	Text         *TextAttachment  `json:"text,omitempty"`
	Query        *QueryAttachment `json:"query,omitempty"`
}

// TextAttachment is a natural-language answer.
type TextAttachment struct {
	Content string `json:"content"`
}

// QueryAttachment is SQL Genie generated for the question.
type QueryAttachment struct {
	Query       string `json:"query"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
}

// QueryResultResponse is returned by the message query-result endpoint.
type QueryResultResponse struct {
	StatementResponse *StatementResponse `json:"statement_response,omitempty"`
}
