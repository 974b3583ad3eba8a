package domain

// ConversationStatus is the tri-state reported to callers of the ask flow.
type ConversationStatus string

// Conversation result statuses.
const (
	ConversationPending   ConversationStatus = "pending"
	ConversationCompleted ConversationStatus = "completed"
	ConversationFailed    ConversationStatus = "failed"
)

// AskRequest is a natural-language question, optionally continuing an
// existing conversation.
type AskRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId,omitempty"`
}

// AskResponse carries the identifiers issued by the conversation service.
type AskResponse struct {
	ConversationID string             `json:"conversationId"`
	MessageID      string             `json:"messageId"`
	Status         ConversationStatus `json:"status"`
	SQL            string             `json:"sql,omitempty"`
	Description    string             `json:"description,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// ConversationResult is the resolved state of one message.
type ConversationResult struct {
	ConversationID string             `json:"conversationId"`
	MessageID      string             `json:"messageId"`
	Status         ConversationStatus `json:"status"`
	SQL            string             `json:"sql,omitempty"`
	Description    string             `json:"description,omitempty"`
	Data           []ResultRow        `json:"data,omitempty"`
	Columns        []ColumnInfo       `json:"columns,omitempty"`
	Error          string             `json:"error,omitempty"`
}
