// Package memory implements the three-layer conversational memory store:
// long-term bounded fact maps, a medium-term rolling summary, and a
// short-term window of raw turns. All state round-trips through the
// storage gateway; the Store itself is stateless and safe for concurrent
// use by construction.
package memory

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
	"github.com/Aman3189/soriva-backend-sub004/pkg/utils"
)

// Config holds the dependencies and bounds for a Store.
type Config struct {
	// Driver is the persistence gateway. Required.
	Driver storage.Driver

	// Limits bounds the three memory layers; zero fields take defaults.
	Limits Limits

	// Scheduler runs compactions off the write path. Optional: when nil,
	// over-threshold compactions run inline with errors contained.
	Scheduler Scheduler

	// Summarize is the summary folding strategy. Defaults to
	// TruncatingSummarizer.
	Summarize Summarizer

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// Store owns all reads and writes of conversation memory records.
type Store struct {
	driver    storage.Driver
	limits    Limits
	scheduler Scheduler
	summarize Summarizer
	logger    *zap.Logger
}

// NewStore validates the config and returns a Store.
func NewStore(c *Config) (*Store, error) {
	if c.Driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	summarize := c.Summarize
	if summarize == nil {
		summarize = TruncatingSummarizer
	}

	return &Store{
		driver:    c.Driver,
		limits:    c.Limits.withDefaults(),
		scheduler: c.Scheduler,
		summarize: summarize,
		logger:    c.Logger,
	}, nil
}

// Limits returns the effective bounds the store runs under.
func (s *Store) Limits() Limits {
	return s.limits
}

// SetScheduler installs the async compaction scheduler. The worker pool
// takes the store as a dependency, so wiring creates the store first and
// hands it the pool afterwards. Call during startup, before the store
// takes traffic.
func (s *Store) SetScheduler(sched Scheduler) {
	s.scheduler = sched
}

// GetOrCreateMemory returns the record for (userID, conversationID),
// persisting an empty one on first call. Idempotent; a lost create race
// resolves by re-reading the winner's row.
func (s *Store) GetOrCreateMemory(ctx context.Context, userID, conversationID string) (*ConversationMemory, error) {
	if err := validateIDs(userID, conversationID); err != nil {
		return nil, err
	}

	rec, err := s.getOrCreateRecord(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return toConversationMemory(rec), nil
}

func (s *Store) getOrCreateRecord(ctx context.Context, userID, conversationID string) (*storage.MemoryRecord, error) {
	rec, err := s.driver.GetMemory(ctx, userID, conversationID)
	if err == nil {
		return rec, nil
	}
	var notFound storage.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	rec = &storage.MemoryRecord{
		UserID:         userID,
		ConversationID: conversationID,
		SystemMemory:   NewSystemMemory().Encode(),
	}
	err = s.driver.CreateMemory(ctx, rec)
	if err == nil {
		s.logger.Debug("memory record created",
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.Int64("memory_id", rec.ID),
		)
		return rec, nil
	}

	var exists storage.AlreadyExistsError
	if errors.As(err, &exists) {
		return s.driver.GetMemory(ctx, userID, conversationID)
	}
	return nil, err
}

// GetMemoryContext returns the read-only context for a conversation:
// system memory, rolling summary, and the live messages ascending by
// index. A missing record yields an empty context without creating one.
func (s *Store) GetMemoryContext(ctx context.Context, userID, conversationID string) (*MemoryContext, error) {
	if err := validateIDs(userID, conversationID); err != nil {
		return nil, err
	}

	rec, err := s.driver.GetMemory(ctx, userID, conversationID)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return &MemoryContext{SystemMemory: NewSystemMemory()}, nil
		}
		return nil, err
	}

	msgs, err := s.driver.ListMessages(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	recent := make([]RawMessage, 0, len(msgs))
	for _, m := range msgs {
		recent = append(recent, toRawMessage(m))
	}

	return &MemoryContext{
		SystemMemory:   DecodeSystemMemory(rec.SystemMemory),
		RollingSummary: rec.RollingSummary,
		RecentMessages: recent,
		TotalMessages:  rec.TotalMessages,
		Meta: ContextMeta{
			MemoryID:         rec.ID,
			SummaryTokens:    rec.SummaryTokens,
			LastSummarizedAt: rec.LastSummarizedAt,
		},
	}, nil
}

// AddMessage validates and persists one raw turn. The index computation,
// insert, and counter increment happen inside a single transaction, so
// concurrent callers on the same memory never collide on an index. When
// the new total exceeds the summary threshold the store hands a
// compaction to the scheduler and returns without waiting for it.
func (s *Store) AddMessage(ctx context.Context, in AddMessageInput) (*RawMessage, error) {
	if err := validateIDs(in.UserID, in.ConversationID); err != nil {
		return nil, err
	}
	if in.ConversationID == GlobalConversationID {
		return nil, ValidationError{Field: "conversationId", Reason: "the global record holds facts only, not messages"}
	}
	if in.Role != RoleUser && in.Role != RoleAssistant {
		return nil, ValidationError{Field: "role", Reason: `must be "user" or "assistant"`}
	}
	if in.Content == "" {
		return nil, ValidationError{Field: "content", Reason: "must be a non-empty string"}
	}

	tokenCount := in.TokenCount
	if tokenCount <= 0 {
		tokenCount = utils.EstimateTokens(in.Content)
	}
	createdAt := in.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := s.getOrCreateRecord(ctx, in.UserID, in.ConversationID); err != nil {
		return nil, err
	}

	var msg storage.MessageRecord
	var total int
	err := s.driver.RunInTx(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetMemoryForUpdate(in.UserID, in.ConversationID)
		if err != nil {
			return err
		}

		index := 0
		if max, ok, err := tx.MaxMessageIndex(rec.ID); err != nil {
			return err
		} else if ok {
			index = max + 1
		}

		msg = storage.MessageRecord{
			MemoryID:     rec.ID,
			Role:         in.Role,
			Content:      in.Content,
			TokenCount:   tokenCount,
			MessageIndex: index,
			CreatedAt:    createdAt,
		}
		if err := tx.InsertMessage(&msg); err != nil {
			return err
		}

		rec.TotalMessages++
		total = rec.TotalMessages
		return tx.UpdateMemory(rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("message added",
		zap.String("user_id", in.UserID),
		zap.String("conversation_id", in.ConversationID),
		zap.Int("message_index", msg.MessageIndex),
		zap.Int("total_messages", total),
	)

	if total > s.limits.SummaryThreshold {
		s.triggerCompaction(in.UserID, in.ConversationID)
	}

	out := toRawMessage(msg)
	return &out, nil
}

// triggerCompaction hands the memory to the scheduler, or runs the
// compaction inline when none is configured. Either way the write path
// never sees a compaction failure.
func (s *Store) triggerCompaction(userID, conversationID string) {
	if s.scheduler != nil {
		if !s.scheduler.ScheduleCompaction(userID, conversationID) {
			s.logger.Warn("compaction dropped, scheduler queue full",
				zap.String("user_id", userID),
				zap.String("conversation_id", conversationID),
			)
		}
		return
	}

	if _, err := s.Compact(context.Background(), userID, conversationID); err != nil {
		s.logger.Error("inline compaction failed",
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}

// UpdateSystemMemory merges updates into the conversation's system memory
// under the bounding policy, then writes the same updates through to the
// user's global record (unless the conversation is the global record
// itself). The two writes are separate transactions: a crash between them
// loses one propagation, which the next identical update heals.
func (s *Store) UpdateSystemMemory(ctx context.Context, userID, conversationID string, updates Updates) (*SystemMemory, error) {
	if err := validateIDs(userID, conversationID); err != nil {
		return nil, err
	}

	merged, err := s.applySystemMemoryUpdates(ctx, userID, conversationID, updates)
	if err != nil {
		return nil, err
	}

	if conversationID != GlobalConversationID {
		if _, err := s.applySystemMemoryUpdates(ctx, userID, GlobalConversationID, updates); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

func (s *Store) applySystemMemoryUpdates(ctx context.Context, userID, conversationID string, updates Updates) (*SystemMemory, error) {
	if _, err := s.getOrCreateRecord(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	var merged SystemMemory
	err := s.driver.RunInTx(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetMemoryForUpdate(userID, conversationID)
		if err != nil {
			return err
		}

		mem := DecodeSystemMemory(rec.SystemMemory)
		mem.Facts = mergeBounded(mem.Facts, updates.Facts, s.limits.MaxFactKeys, s.limits.MaxFactValueLength)
		mem.Preferences = mergeBounded(mem.Preferences, updates.Preferences, s.limits.MaxFactKeys, s.limits.MaxFactValueLength)
		mem.Decisions = mergeBounded(mem.Decisions, updates.Decisions, s.limits.MaxFactKeys, s.limits.MaxFactValueLength)
		mem.LastUpdated = time.Now().UTC()

		rec.SystemMemory = mem.Encode()
		merged = mem
		return tx.UpdateMemory(rec)
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// GetGlobalUserMemory returns the user's global (sentinel) system memory.
// A missing global record yields an empty system memory.
func (s *Store) GetGlobalUserMemory(ctx context.Context, userID string) (*SystemMemory, error) {
	if userID == "" {
		return nil, ValidationError{Field: "userId", Reason: "must not be empty"}
	}

	rec, err := s.driver.GetMemory(ctx, userID, GlobalConversationID)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			mem := NewSystemMemory()
			return &mem, nil
		}
		return nil, err
	}

	mem := DecodeSystemMemory(rec.SystemMemory)
	return &mem, nil
}

// GetCombinedMemoryContext reads the conversation context and merges its
// system memory with the user's global record. Conversation values win on
// key collision; the summary and raw messages come from the conversation
// only.
func (s *Store) GetCombinedMemoryContext(ctx context.Context, userID, conversationID string) (*CombinedContext, error) {
	if err := validateIDs(userID, conversationID); err != nil {
		return nil, err
	}

	global, err := s.GetGlobalUserMemory(ctx, userID)
	if err != nil {
		return nil, err
	}

	local, err := s.GetMemoryContext(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	merged := NewSystemMemory()
	merged.Facts = mergeOverlay(global.Facts, local.SystemMemory.Facts)
	merged.Preferences = mergeOverlay(global.Preferences, local.SystemMemory.Preferences)
	merged.Decisions = mergeOverlay(global.Decisions, local.SystemMemory.Decisions)
	merged.LastUpdated = local.SystemMemory.LastUpdated
	if global.LastUpdated.After(merged.LastUpdated) {
		merged.LastUpdated = global.LastUpdated
	}

	return &CombinedContext{
		SystemMemory:   merged,
		RollingSummary: local.RollingSummary,
		RecentMessages: local.RecentMessages,
		TotalMessages:  local.TotalMessages,
	}, nil
}

// ClearMemory deletes all of a conversation's messages and then its
// record, in one transaction. No-op when the record is absent.
func (s *Store) ClearMemory(ctx context.Context, userID, conversationID string) error {
	if err := validateIDs(userID, conversationID); err != nil {
		return err
	}

	return s.driver.RunInTx(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetMemoryForUpdate(userID, conversationID)
		if err != nil {
			var notFound storage.NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}

		if err := tx.DeleteAllMessages(rec.ID); err != nil {
			return err
		}
		return tx.DeleteMemory(rec.ID)
	})
}

// GetStats returns read-only diagnostics for a conversation memory.
func (s *Store) GetStats(ctx context.Context, userID, conversationID string) (*MemoryStats, error) {
	if err := validateIDs(userID, conversationID); err != nil {
		return nil, err
	}

	stats := &MemoryStats{UserID: userID, ConversationID: conversationID}

	rec, err := s.driver.GetMemory(ctx, userID, conversationID)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return stats, nil
		}
		return nil, err
	}

	msgs, err := s.driver.ListMessages(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	mem := DecodeSystemMemory(rec.SystemMemory)
	stats.TotalMessages = rec.TotalMessages
	stats.LiveMessages = len(msgs)
	stats.SummaryTokens = rec.SummaryTokens
	stats.HasSummary = rec.RollingSummary != ""
	stats.FactCount = len(mem.Facts)
	stats.PreferenceCount = len(mem.Preferences)
	stats.DecisionCount = len(mem.Decisions)
	stats.LastSummarizedAt = rec.LastSummarizedAt
	return stats, nil
}

func validateIDs(userID, conversationID string) error {
	if userID == "" {
		return ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	if conversationID == "" {
		return ValidationError{Field: "conversationId", Reason: "must not be empty"}
	}
	return nil
}

func toConversationMemory(rec *storage.MemoryRecord) *ConversationMemory {
	return &ConversationMemory{
		UserID:           rec.UserID,
		ConversationID:   rec.ConversationID,
		SystemMemory:     DecodeSystemMemory(rec.SystemMemory),
		RollingSummary:   rec.RollingSummary,
		SummaryTokens:    rec.SummaryTokens,
		TotalMessages:    rec.TotalMessages,
		LastSummarizedAt: rec.LastSummarizedAt,
	}
}
