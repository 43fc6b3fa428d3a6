// Package anthropic implements the fact extractor on the Anthropic
// Messages API. The model is prompted for a strict JSON object; anything
// it returns that doesn't parse is an error, which callers treat as an
// empty extraction.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
)

const extractionSystemPrompt = `You extract durable user facts from chat exchanges. Reply with ONLY a JSON object of the form {"facts": {"key": "value"}, "preferences": {"key": "value"}}. Facts are stable attributes of the user (name, city, job). Preferences are stated likes, dislikes and habits. Use short snake_case keys. If the exchange contains neither, reply {"facts": {}, "preferences": {}}. No prose, no code fences.`

// DefaultModel is the model used when the config leaves it empty.
const DefaultModel = "claude-haiku-4-5"

// Config holds settings for the Anthropic extractor.
type Config struct {
	// Model is the Anthropic model identifier.
	Model string

	// MaxTokens caps the completion. Defaults to 512.
	MaxTokens int
}

// Driver implements extractor.Driver using the Anthropic SDK. The client
// reads its API key from the environment (ANTHROPIC_API_KEY).
type Driver struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewDriver creates an Anthropic-backed extractor.
func NewDriver(cfg Config) *Driver {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Driver{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
	}
}

// ShouldExtract applies the shared first-person statement gate.
func (d *Driver) ShouldExtract(message string) bool {
	return extractor.DefaultShouldExtract(message)
}

// Extract calls the Messages API and parses the strict-JSON reply.
func (d *Driver) Extract(ctx context.Context, message, reply string) (*extractor.Extraction, error) {
	exchange := fmt.Sprintf("user: %s\nassistant: %s", message, reply)

	msg, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: int64(d.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: extractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(exchange)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text block in extraction response")
	}

	var out extractor.Extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	if out.Facts == nil {
		out.Facts = map[string]string{}
	}
	if out.Preferences == nil {
		out.Preferences = map[string]string{}
	}
	out.TokensUsed = int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return &out, nil
}

// Close is a no-op; the SDK client holds no resources of its own.
func (d *Driver) Close() error {
	return nil
}

var _ extractor.Driver = (*Driver)(nil)
