// Package eventstream defines transport-neutral events emitted by the
// memory system and the Publisher interface backends implement.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeSaved is emitted after a user/assistant exchange
	// is persisted.
	EventTypeExchangeSaved = "soriva.memory.exchange.saved"

	// EventTypeMemoryCompacted is emitted after a compaction commits.
	EventTypeMemoryCompacted = "soriva.memory.compacted"
)

// ExchangeSavedEvent is the payload for a persisted exchange.
type ExchangeSavedEvent struct {
	SchemaVersion   int       `json:"schema_version"`
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	EmittedAt       time.Time `json:"emitted_at"`
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id"`
	TotalMessages   int       `json:"total_messages"`
	UserTokens      int       `json:"user_tokens"`
	AssistantTokens int       `json:"assistant_tokens"`
}

// MemoryCompactedEvent is the payload for a committed compaction.
type MemoryCompactedEvent struct {
	SchemaVersion     int       `json:"schema_version"`
	EventType         string    `json:"event_type"`
	EventID           string    `json:"event_id"`
	EmittedAt         time.Time `json:"emitted_at"`
	UserID            string    `json:"user_id"`
	ConversationID    string    `json:"conversation_id"`
	MessagesCompacted int       `json:"messages_compacted"`
	MessagesKept      int       `json:"messages_kept"`
	SummaryTokens     int       `json:"summary_tokens"`
}
