package memory

import (
	"encoding/json"
	"time"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
)

// Message roles accepted by AddMessage.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GlobalConversationID is the sentinel conversation id under which a
// user's cross-conversation facts live. It is an ordinary record; "global"
// is a convention enforced by the store, not a separate type.
const GlobalConversationID = "__global__"

// SystemMemorySchemaV1 is the current system-memory blob schema version.
const SystemMemorySchemaV1 = 1

// SystemMemory is the long-term layer: bounded fact, preference and
// decision maps persisted as a versioned JSON blob.
type SystemMemory struct {
	Version     int               `json:"version"`
	Facts       map[string]string `json:"facts"`
	Preferences map[string]string `json:"preferences"`
	Decisions   map[string]string `json:"decisions"`
	LastUpdated time.Time         `json:"last_updated"`
}

// NewSystemMemory returns an empty current-version system memory.
func NewSystemMemory() SystemMemory {
	return SystemMemory{
		Version:     SystemMemorySchemaV1,
		Facts:       map[string]string{},
		Preferences: map[string]string{},
		Decisions:   map[string]string{},
	}
}

// DecodeSystemMemory decodes a persisted blob defensively: a missing,
// empty or malformed blob yields an empty system memory, and nil sub-maps
// are defaulted so callers never nil-check.
func DecodeSystemMemory(raw []byte) SystemMemory {
	m := NewSystemMemory()
	if len(raw) == 0 {
		return m
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return NewSystemMemory()
	}
	if m.Version == 0 {
		m.Version = SystemMemorySchemaV1
	}
	if m.Facts == nil {
		m.Facts = map[string]string{}
	}
	if m.Preferences == nil {
		m.Preferences = map[string]string{}
	}
	if m.Decisions == nil {
		m.Decisions = map[string]string{}
	}
	return m
}

// Encode marshals the system memory for persistence.
func (m SystemMemory) Encode() []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// All field types are marshalable; this cannot fail in practice.
		return []byte("{}")
	}
	return b
}

// Clone returns a deep copy.
func (m SystemMemory) Clone() SystemMemory {
	out := m
	out.Facts = cloneMap(m.Facts)
	out.Preferences = cloneMap(m.Preferences)
	out.Decisions = cloneMap(m.Decisions)
	return out
}

func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// RawMessage is one stored chat turn.
type RawMessage struct {
	ID           int64     `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	TokenCount   int       `json:"token_count"`
	MessageIndex int       `json:"message_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationMemory is the full three-layer view of one record.
type ConversationMemory struct {
	UserID           string       `json:"user_id"`
	ConversationID   string       `json:"conversation_id"`
	SystemMemory     SystemMemory `json:"system_memory"`
	RollingSummary   string       `json:"rolling_summary"`
	SummaryTokens    int          `json:"summary_tokens"`
	TotalMessages    int          `json:"total_messages"`
	LastSummarizedAt *time.Time   `json:"last_summarized_at,omitempty"`
}

// ContextMeta carries record-level diagnostics alongside a context read.
type ContextMeta struct {
	MemoryID         int64      `json:"memory_id"`
	SummaryTokens    int        `json:"summary_tokens"`
	LastSummarizedAt *time.Time `json:"last_summarized_at,omitempty"`
}

// MemoryContext is the read-only view returned by GetMemoryContext.
// RecentMessages is always ascending by message index.
type MemoryContext struct {
	SystemMemory   SystemMemory `json:"system_memory"`
	RollingSummary string       `json:"rolling_summary"`
	RecentMessages []RawMessage `json:"recent_messages"`
	TotalMessages  int          `json:"total_messages"`
	Meta           ContextMeta  `json:"meta"`
}

// CombinedContext is a conversation context whose system memory has been
// merged with the user's global record (conversation values winning).
type CombinedContext struct {
	SystemMemory   SystemMemory `json:"system_memory"`
	RollingSummary string       `json:"rolling_summary"`
	RecentMessages []RawMessage `json:"recent_messages"`
	TotalMessages  int          `json:"total_messages"`
}

// MemoryStats is the read-only diagnostics view returned by GetStats.
type MemoryStats struct {
	UserID           string     `json:"user_id"`
	ConversationID   string     `json:"conversation_id"`
	TotalMessages    int        `json:"total_messages"`
	LiveMessages     int        `json:"live_messages"`
	SummaryTokens    int        `json:"summary_tokens"`
	HasSummary       bool       `json:"has_summary"`
	FactCount        int        `json:"fact_count"`
	PreferenceCount  int        `json:"preference_count"`
	DecisionCount    int        `json:"decision_count"`
	LastSummarizedAt *time.Time `json:"last_summarized_at,omitempty"`
}

// AddMessageInput is the argument to Store.AddMessage. TokenCount and
// Timestamp are optional; zero values are computed/defaulted.
type AddMessageInput struct {
	UserID         string
	ConversationID string
	Role           string
	Content        string
	TokenCount     int
	Timestamp      time.Time
}

// Updates carries the fact/preference/decision entries to merge into a
// record's system memory. Nil maps are skipped.
type Updates struct {
	Facts       map[string]string
	Preferences map[string]string
	Decisions   map[string]string
}

// IsEmpty reports whether the update carries no entries at all.
func (u Updates) IsEmpty() bool {
	return len(u.Facts) == 0 && len(u.Preferences) == 0 && len(u.Decisions) == 0
}

// Scheduler hands maintenance work to a background executor. The worker
// pool implements it; a nil scheduler makes the store run compaction
// inline (still with errors contained).
type Scheduler interface {
	// ScheduleCompaction submits a compaction for the given memory.
	// Returns false when the work was dropped (e.g. queue full).
	ScheduleCompaction(userID, conversationID string) bool
}

// Limits bounds the three memory layers. Zero fields are replaced by the
// corresponding defaults in NewStore.
type Limits struct {
	// SummaryThreshold is the TotalMessages count above which a
	// compaction is triggered after AddMessage.
	SummaryThreshold int

	// MaxRawMessages is the keep window: live raw messages retained by
	// compaction.
	MaxRawMessages int

	// MaxSummaryTokens caps the rolling summary at MaxSummaryTokens*4
	// characters.
	MaxSummaryTokens int

	// MaxMessageContent caps each message's contribution to the rendered
	// summary block.
	MaxMessageContent int

	// MaxFactKeys caps each of the facts/preferences/decisions maps.
	MaxFactKeys int

	// MaxFactValueLength hard-truncates stored map values.
	MaxFactValueLength int
}

// Default limits.
const (
	DefaultSummaryThreshold   = 6
	DefaultMaxRawMessages     = 3
	DefaultMaxSummaryTokens   = 500
	DefaultMaxMessageContent  = 200
	DefaultMaxFactKeys        = 50
	DefaultMaxFactValueLength = 500
)

// DefaultLimits returns the default bounds for all three layers.
func DefaultLimits() Limits {
	return Limits{
		SummaryThreshold:   DefaultSummaryThreshold,
		MaxRawMessages:     DefaultMaxRawMessages,
		MaxSummaryTokens:   DefaultMaxSummaryTokens,
		MaxMessageContent:  DefaultMaxMessageContent,
		MaxFactKeys:        DefaultMaxFactKeys,
		MaxFactValueLength: DefaultMaxFactValueLength,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.SummaryThreshold <= 0 {
		l.SummaryThreshold = d.SummaryThreshold
	}
	if l.MaxRawMessages <= 0 {
		l.MaxRawMessages = d.MaxRawMessages
	}
	if l.MaxSummaryTokens <= 0 {
		l.MaxSummaryTokens = d.MaxSummaryTokens
	}
	if l.MaxMessageContent <= 0 {
		l.MaxMessageContent = d.MaxMessageContent
	}
	if l.MaxFactKeys <= 0 {
		l.MaxFactKeys = d.MaxFactKeys
	}
	if l.MaxFactValueLength <= 0 {
		l.MaxFactValueLength = d.MaxFactValueLength
	}
	return l
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func toRawMessage(m storage.MessageRecord) RawMessage {
	return RawMessage{
		ID:           m.ID,
		Role:         m.Role,
		Content:      m.Content,
		TokenCount:   m.TokenCount,
		MessageIndex: m.MessageIndex,
		CreatedAt:    m.CreatedAt,
	}
}
