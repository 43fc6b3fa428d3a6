package memory

import "strings"

// Summarizer folds a block of rendered message lines into the rolling
// summary. The returned text is hard-truncated to the summary budget by
// the compaction engine regardless of strategy, so implementations only
// decide how old and new content combine. The default is plain
// concatenation; a semantic summarizer can be injected without touching
// the transactional compaction logic.
type Summarizer func(oldSummary string, lines []string) string

// summaryBlockSeparator joins the prior summary and a newly compacted
// block.
const summaryBlockSeparator = "\n---\n"

// TruncatingSummarizer is the default strategy: append the rendered block
// to the existing summary, separated by the block separator.
func TruncatingSummarizer(oldSummary string, lines []string) string {
	rendered := strings.Join(lines, "\n")
	if oldSummary == "" {
		return rendered
	}
	return oldSummary + summaryBlockSeparator + rendered
}
