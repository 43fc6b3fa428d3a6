// Package utils holds small string helpers shared across the memory system.
package utils

// Truncate hard-truncates s to maxLen bytes, keeping the front.
func Truncate(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// EstimateTokens approximates the token count of s as ceil(len(s)/4).
// The divisor matches the rough chars-per-token ratio used everywhere a
// precise tokenizer would be overkill (counters, summary budgets).
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}
