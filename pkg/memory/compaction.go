package memory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
	"github.com/Aman3189/soriva-backend-sub004/pkg/utils"
)

// CompactionResult summarizes what a compaction run did.
type CompactionResult struct {
	MessagesCompacted int
	MessagesKept      int
	SummaryTokens     int
}

// Compact folds overflow raw messages into the rolling summary and
// reindexes the survivors to a gapless 0..n-1 sequence, all inside one
// transaction with the memory row locked. When the live count is already
// within the keep window the call is a no-op returning a nil result; that
// guard is what makes overlapping compaction runs safe — the second run
// observes the first run's result and does nothing.
//
// Failures are wrapped in CompactionError so async callers can contain
// them; the next threshold crossing retries naturally.
func (s *Store) Compact(ctx context.Context, userID, conversationID string) (*CompactionResult, error) {
	var result *CompactionResult
	err := s.driver.RunInTx(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetMemoryForUpdate(userID, conversationID)
		if err != nil {
			var notFound storage.NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}

		msgs, err := tx.ListMessages(rec.ID)
		if err != nil {
			return err
		}
		if len(msgs) <= s.limits.MaxRawMessages {
			return nil
		}

		toCompress := msgs[:len(msgs)-s.limits.MaxRawMessages]
		toKeep := msgs[len(msgs)-s.limits.MaxRawMessages:]

		lines := make([]string, 0, len(toCompress))
		compressedIDs := make([]int64, 0, len(toCompress))
		for _, m := range toCompress {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, utils.Truncate(m.Content, s.limits.MaxMessageContent)))
			compressedIDs = append(compressedIDs, m.ID)
		}

		// The hard cap keeps the front of the string: oldest content is
		// retained, the newest appended block is what gets cut.
		summary := utils.Truncate(s.summarize(rec.RollingSummary, lines), s.limits.MaxSummaryTokens*4)

		if err := tx.DeleteMessages(rec.ID, compressedIDs); err != nil {
			return err
		}
		for i, m := range toKeep {
			if m.MessageIndex == i {
				continue
			}
			if err := tx.UpdateMessageIndex(m.ID, i); err != nil {
				return err
			}
		}

		now := nowUTC()
		rec.RollingSummary = summary
		rec.SummaryTokens = utils.EstimateTokens(summary)
		rec.LastSummarizedAt = &now
		rec.TotalMessages = len(toKeep)
		if err := tx.UpdateMemory(rec); err != nil {
			return err
		}

		s.logger.Info("memory compacted",
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.Int("messages_compacted", len(toCompress)),
			zap.Int("messages_kept", len(toKeep)),
			zap.Int("summary_tokens", rec.SummaryTokens),
		)

		result = &CompactionResult{
			MessagesCompacted: len(toCompress),
			MessagesKept:      len(toKeep),
			SummaryTokens:     rec.SummaryTokens,
		}
		return nil
	})
	if err != nil {
		return nil, CompactionError{UserID: userID, ConversationID: conversationID, Err: err}
	}
	return result, nil
}
