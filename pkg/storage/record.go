package storage

import "time"

// MemoryRecord is the persisted form of one conversation memory, keyed by
// (UserID, ConversationID). SystemMemory is an opaque JSON blob owned by
// pkg/memory; the gateway never inspects it.
type MemoryRecord struct {
	ID               int64
	UserID           string
	ConversationID   string
	SystemMemory     []byte
	RollingSummary   string
	SummaryTokens    int
	TotalMessages    int
	LastSummarizedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MessageRecord is one live raw chat turn belonging to a MemoryRecord.
// MessageIndex is gapless per memory; it is the only field updated after
// creation (during compaction reindex).
type MessageRecord struct {
	ID           int64
	MemoryID     int64
	Role         string
	Content      string
	TokenCount   int
	MessageIndex int
	CreatedAt    time.Time
}

// Clone returns a deep copy of the record.
func (r *MemoryRecord) Clone() *MemoryRecord {
	out := *r
	if r.SystemMemory != nil {
		out.SystemMemory = make([]byte, len(r.SystemMemory))
		copy(out.SystemMemory, r.SystemMemory)
	}
	if r.LastSummarizedAt != nil {
		t := *r.LastSummarizedAt
		out.LastSummarizedAt = &t
	}
	return &out
}
