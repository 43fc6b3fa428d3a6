// Package extractor defines the pluggable fact extractor consumed by the
// memory layer. A driver distills durable facts and preferences from one
// user/assistant exchange; extraction failures are always treated by
// callers as "no facts found", never a hard error.
package extractor

import (
	"context"
	"regexp"
)

// Driver extracts facts from a conversation exchange.
type Driver interface {
	// ShouldExtract is a cheap gate deciding whether a message is worth
	// an extraction call at all.
	ShouldExtract(message string) bool

	// Extract distills facts and preferences from the exchange. Errors
	// must be caught by the caller and treated as an empty extraction.
	Extract(ctx context.Context, message, reply string) (*Extraction, error)

	// Close releases driver resources.
	Close() error
}

// Extraction is the distilled output of one exchange.
type Extraction struct {
	Facts       map[string]string `json:"facts"`
	Preferences map[string]string `json:"preferences"`
	TokensUsed  int               `json:"tokens_used"`
}

// IsEmpty reports whether the extraction carries nothing.
func (e *Extraction) IsEmpty() bool {
	return e == nil || (len(e.Facts) == 0 && len(e.Preferences) == 0)
}

// extractionGate matches first-person statements likely to carry durable
// facts or preferences. It errs permissive: the gate only exists to skip
// obviously fact-free messages.
var extractionGate = regexp.MustCompile(`(?i)\b(my name is|call me|i am|i'm|i live|i work|i like|i love|i hate|i prefer|i always|i never|remember|my \w+ is)\b`)

// DefaultShouldExtract is the shared gate implementation used by drivers
// that don't bring their own classifier.
func DefaultShouldExtract(message string) bool {
	return extractionGate.MatchString(message)
}
