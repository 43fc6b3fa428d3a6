package memory

import (
	"sort"
	"strings"
)

// Prompt section headers, emitted in fixed order.
const (
	promptHeaderFacts       = "[KNOWN FACTS]"
	promptHeaderPreferences = "[USER PREFERENCES]"
	promptHeaderHistory     = "[CONVERSATION HISTORY]"
)

// BuildPromptContext renders a combined context as prompt text: known
// facts, then user preferences, then the rolling summary. Empty sections
// are omitted entirely. Recent raw messages are never included here —
// callers pass those to the model as structured turns.
func BuildPromptContext(c *CombinedContext) string {
	if c == nil {
		return ""
	}

	var sections []string
	if len(c.SystemMemory.Facts) > 0 {
		sections = append(sections, renderSection(promptHeaderFacts, c.SystemMemory.Facts))
	}
	if len(c.SystemMemory.Preferences) > 0 {
		sections = append(sections, renderSection(promptHeaderPreferences, c.SystemMemory.Preferences))
	}
	if c.RollingSummary != "" {
		sections = append(sections, promptHeaderHistory+"\n"+c.RollingSummary)
	}
	return strings.Join(sections, "\n\n")
}

func renderSection(header string, entries map[string]string) string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(header)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(entries[k])
	}
	return b.String()
}
