// Package service is the orchestration-facing facade over the memory
// system. It is the only surface a chat turn touches: read context going
// in, save the exchange going out. Read failures degrade to "no memory"
// rather than failing the turn.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/eventstream"
	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
	"github.com/Aman3189/soriva-backend-sub004/pkg/memory"
	"github.com/Aman3189/soriva-backend-sub004/pkg/utils"
	"github.com/Aman3189/soriva-backend-sub004/pkg/worker"
)

// Config holds the service dependencies.
type Config struct {
	// Store is the conversation memory store. Required.
	Store *memory.Store

	// Pool runs async fact extraction. Optional; without it extraction
	// is skipped.
	Pool *worker.Pool

	// Extractor provides the cheap ShouldExtract gate. Optional.
	Extractor extractor.Driver

	// Publisher receives exchange-saved events. Optional.
	Publisher eventstream.Publisher

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// Service exposes the chat-facing memory operations.
type Service struct {
	store     *memory.Store
	pool      *worker.Pool
	extractor extractor.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// ChatContext is everything a chat turn needs from memory.
type ChatContext struct {
	// PromptContext is the rendered prompt text (facts, preferences,
	// summary).
	PromptContext string

	// Raw is the merged context the prompt was built from, including the
	// recent raw messages the caller passes to the model as structured
	// turns.
	Raw *memory.CombinedContext

	// EstimatedTokens approximates the cost of PromptContext plus the
	// recent messages.
	EstimatedTokens int
}

// SaveOptions controls optional behavior of SaveExchange.
type SaveOptions struct {
	// ExtractFacts schedules async fact extraction for the exchange when
	// the extractor's gate accepts the user message.
	ExtractFacts bool
}

// New validates the config and returns a Service.
func New(c *Config) (*Service, error) {
	if c.Store == nil {
		return nil, errors.New("store is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		store:     c.Store,
		pool:      c.Pool,
		extractor: c.Extractor,
		publisher: c.Publisher,
		logger:    c.Logger,
	}, nil
}

// GetContextForChat returns the merged memory context for a chat turn,
// or nil when anything fails internally — the turn then proceeds
// memory-less. It never returns an error.
func (s *Service) GetContextForChat(ctx context.Context, userID, conversationID string) *ChatContext {
	combined, err := s.store.GetCombinedMemoryContext(ctx, userID, conversationID)
	if err != nil {
		s.logger.Warn("memory context unavailable, proceeding without",
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil
	}

	prompt := memory.BuildPromptContext(combined)

	estimated := utils.EstimateTokens(prompt)
	for _, m := range combined.RecentMessages {
		estimated += m.TokenCount
	}

	return &ChatContext{
		PromptContext:   prompt,
		Raw:             combined,
		EstimatedTokens: estimated,
	}
}

// SaveExchange persists a user/assistant exchange as two raw turns, then
// optionally schedules async fact extraction. Persistence failures are
// returned to the caller; extraction and event publishing never are.
func (s *Service) SaveExchange(ctx context.Context, userID, conversationID, userMsg, assistantMsg string, opts SaveOptions) error {
	userTurn, err := s.store.AddMessage(ctx, memory.AddMessageInput{
		UserID:         userID,
		ConversationID: conversationID,
		Role:           memory.RoleUser,
		Content:        userMsg,
	})
	if err != nil {
		return err
	}

	assistantTurn, err := s.store.AddMessage(ctx, memory.AddMessageInput{
		UserID:         userID,
		ConversationID: conversationID,
		Role:           memory.RoleAssistant,
		Content:        assistantMsg,
	})
	if err != nil {
		return err
	}

	if opts.ExtractFacts && s.pool != nil && s.extractor != nil && s.extractor.ShouldExtract(userMsg) {
		s.pool.ScheduleExtraction(userID, conversationID, userMsg, assistantMsg)
	}

	s.publishExchangeSaved(ctx, userID, conversationID, userTurn, assistantTurn)
	return nil
}

func (s *Service) publishExchangeSaved(ctx context.Context, userID, conversationID string, userTurn, assistantTurn *memory.RawMessage) {
	if s.publisher == nil {
		return
	}

	event := &eventstream.ExchangeSavedEvent{
		SchemaVersion:   eventstream.SchemaVersionV1,
		EventType:       eventstream.EventTypeExchangeSaved,
		EventID:         uuid.NewString(),
		EmittedAt:       time.Now().UTC(),
		UserID:          userID,
		ConversationID:  conversationID,
		TotalMessages:   assistantTurn.MessageIndex + 1,
		UserTokens:      userTurn.TokenCount,
		AssistantTokens: assistantTurn.TokenCount,
	}
	if err := s.publisher.PublishExchangeSaved(ctx, event); err != nil {
		s.logger.Warn("failed to publish exchange event", zap.Error(err))
	}
}
