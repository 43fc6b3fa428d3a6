package memory

import "fmt"

// ValidationError reports malformed input to a store operation. It is
// synchronous and never retried; the caller must fix the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CompactionError wraps a failure on the async compaction path. It is
// logged by whoever runs the compaction and never surfaced to the caller
// that triggered it; the next threshold crossing retries naturally.
type CompactionError struct {
	UserID         string
	ConversationID string
	Err            error
}

func (e CompactionError) Error() string {
	return fmt.Sprintf("compaction failed: user=%s conversation=%s: %v", e.UserID, e.ConversationID, e.Err)
}

func (e CompactionError) Unwrap() error {
	return e.Err
}
