// Package worker provides the asynchronous pool that runs memory
// maintenance off the write path: compactions triggered by AddMessage and
// fact extractions scheduled after an exchange is saved.
//
// Jobs that fail are logged and dropped, never surfaced to the caller
// that enqueued them; compactions retry naturally on the next threshold
// crossing.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/eventstream"
	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
	"github.com/Aman3189/soriva-backend-sub004/pkg/memory"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// JobKind discriminates the work a Job carries.
type JobKind int

const (
	// JobCompact folds a memory's overflow messages into its summary.
	JobCompact JobKind = iota

	// JobExtract distills facts from an exchange and merges them into
	// system memory.
	JobExtract
)

func (k JobKind) String() string {
	switch k {
	case JobCompact:
		return "compact"
	case JobExtract:
		return "extract"
	default:
		return "unknown"
	}
}

// Job is a unit of work for the pool.
type Job struct {
	Kind           JobKind
	UserID         string
	ConversationID string

	// UserMessage and AssistantReply are set for JobExtract.
	UserMessage    string
	AssistantReply string
}

// Config is the configuration for the worker pool.
type Config struct {
	// Store is the memory store maintenance runs against. Required.
	Store *memory.Store

	// Extractor handles JobExtract jobs. Optional; extraction jobs are
	// dropped with a warning when nil.
	Extractor extractor.Driver

	// Publisher receives compaction events. Optional.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers (defaults to 2).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// Pool processes memory maintenance jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if c.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing. Returns true if enqueued, false
// if the queue is full and the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.Stringer("kind", job.Kind),
			zap.String("user_id", job.UserID),
			zap.String("conversation_id", job.ConversationID),
		)
		return true
	default:
		p.logger.Error("job dropped, queue full",
			zap.Stringer("kind", job.Kind),
			zap.String("user_id", job.UserID),
			zap.String("conversation_id", job.ConversationID),
		)
		return false
	}
}

// ScheduleCompaction implements memory.Scheduler.
func (p *Pool) ScheduleCompaction(userID, conversationID string) bool {
	return p.Enqueue(Job{Kind: JobCompact, UserID: userID, ConversationID: conversationID})
}

// ScheduleExtraction submits a fact-extraction job for an exchange.
func (p *Pool) ScheduleExtraction(userID, conversationID, userMessage, assistantReply string) bool {
	return p.Enqueue(Job{
		Kind:           JobExtract,
		UserID:         userID,
		ConversationID: conversationID,
		UserMessage:    userMessage,
		AssistantReply: assistantReply,
	})
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	switch job.Kind {
	case JobCompact:
		p.runCompaction(ctx, job)
	case JobExtract:
		p.runExtraction(ctx, job)
	default:
		p.logger.Error("unknown job kind", zap.Int("kind", int(job.Kind)))
	}
}

// runCompaction executes a compaction; failures are logged only, per the
// contract that the write path never sees maintenance errors.
func (p *Pool) runCompaction(ctx context.Context, job Job) {
	result, err := p.config.Store.Compact(ctx, job.UserID, job.ConversationID)
	if err != nil {
		p.logger.Error("async compaction failed",
			zap.String("user_id", job.UserID),
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
		return
	}
	if result == nil {
		// Another run got there first; nothing to report.
		return
	}

	if p.config.Publisher != nil {
		event := &eventstream.MemoryCompactedEvent{
			SchemaVersion:     eventstream.SchemaVersionV1,
			EventType:         eventstream.EventTypeMemoryCompacted,
			EventID:           uuid.NewString(),
			EmittedAt:         time.Now().UTC(),
			UserID:            job.UserID,
			ConversationID:    job.ConversationID,
			MessagesCompacted: result.MessagesCompacted,
			MessagesKept:      result.MessagesKept,
			SummaryTokens:     result.SummaryTokens,
		}
		if err := p.config.Publisher.PublishMemoryCompacted(ctx, event); err != nil {
			p.logger.Warn("failed to publish compaction event", zap.Error(err))
		}
	}
}

// runExtraction calls the extractor and merges whatever it found.
// Extractor failures are treated as "no facts found".
func (p *Pool) runExtraction(ctx context.Context, job Job) {
	if p.config.Extractor == nil {
		p.logger.Warn("extraction job dropped, no extractor configured",
			zap.String("user_id", job.UserID),
		)
		return
	}

	result, err := p.config.Extractor.Extract(ctx, job.UserMessage, job.AssistantReply)
	if err != nil {
		p.logger.Warn("fact extraction failed, treating as no facts",
			zap.String("user_id", job.UserID),
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
		return
	}
	if result.IsEmpty() {
		return
	}

	_, err = p.config.Store.UpdateSystemMemory(ctx, job.UserID, job.ConversationID, memory.Updates{
		Facts:       result.Facts,
		Preferences: result.Preferences,
	})
	if err != nil {
		p.logger.Error("failed to store extracted facts",
			zap.String("user_id", job.UserID),
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("facts extracted",
		zap.String("user_id", job.UserID),
		zap.String("conversation_id", job.ConversationID),
		zap.Int("facts", len(result.Facts)),
		zap.Int("preferences", len(result.Preferences)),
		zap.Int("tokens_used", result.TokensUsed),
	)
}

var _ memory.Scheduler = (*Pool)(nil)
