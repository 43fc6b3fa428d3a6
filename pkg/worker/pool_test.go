package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/eventstream"
	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
	"github.com/Aman3189/soriva-backend-sub004/pkg/memory"
	"github.com/Aman3189/soriva-backend-sub004/pkg/storage/inmemory"
)

// stubExtractor returns a fixed extraction, or an error when failWith is
// set.
type stubExtractor struct {
	extraction *extractor.Extraction
	failWith   error
}

func (s *stubExtractor) ShouldExtract(string) bool { return true }

func (s *stubExtractor) Extract(context.Context, string, string) (*extractor.Extraction, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.extraction, nil
}

func (s *stubExtractor) Close() error { return nil }

// capturePublisher records every published event.
type capturePublisher struct {
	mu        sync.Mutex
	compacted []*eventstream.MemoryCompactedEvent
}

func (c *capturePublisher) PublishExchangeSaved(context.Context, *eventstream.ExchangeSavedEvent) error {
	return nil
}

func (c *capturePublisher) PublishMemoryCompacted(_ context.Context, e *eventstream.MemoryCompactedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compacted = append(c.compacted, e)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) compactedEvents() []*eventstream.MemoryCompactedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compacted
}

// newTestStore creates a memory store backed by an in-memory driver. Its
// scheduler discards every job, so AddMessage never compacts on its own
// and the pool under test is the only thing that compacts.
func newTestStore() *memory.Store {
	logger, _ := zap.NewDevelopment()
	store, err := memory.NewStore(&memory.Config{
		Driver: inmemory.NewDriver(),
		// A scheduler that drops everything keeps messages raw until the
		// pool under test compacts them.
		Scheduler: dropScheduler{},
		Logger:    logger,
	})
	Expect(err).NotTo(HaveOccurred())
	return store
}

type dropScheduler struct{}

func (dropScheduler) ScheduleCompaction(string, string) bool { return true }

// seedMessages writes n raw turns so a compaction has work to do.
func seedMessages(store *memory.Store, n int) {
	ctx := context.Background()
	for i := range n {
		_, err := store.AddMessage(ctx, memory.AddMessageInput{
			UserID:         "u1",
			ConversationID: "c1",
			Role:           memory.RoleUser,
			Content:        fmt.Sprintf("m%d", i),
		})
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("Pool", func() {
	var (
		store  *memory.Store
		logger *zap.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		store = newTestStore()
		logger, _ = zap.NewDevelopment()
		ctx = context.Background()
	})

	Describe("NewPool", func() {
		It("requires a store", func() {
			_, err := NewPool(&Config{Logger: logger})
			Expect(err).To(HaveOccurred())
		})

		It("requires a logger", func() {
			_, err := NewPool(&Config{Store: store})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Enqueue", func() {
		It("accepts jobs while the queue has capacity", func() {
			pool, err := NewPool(&Config{Store: store, Logger: logger})
			Expect(err).NotTo(HaveOccurred())

			ok := pool.ScheduleCompaction("u1", "c1")
			Expect(ok).To(BeTrue())
			pool.Close()
		})
	})

	Describe("compaction jobs", func() {
		It("compacts the memory and publishes an event", func() {
			publisher := &capturePublisher{}
			pool, err := NewPool(&Config{
				Store:     store,
				Publisher: publisher,
				Logger:    logger,
			})
			Expect(err).NotTo(HaveOccurred())

			seedMessages(store, 7)
			Expect(pool.ScheduleCompaction("u1", "c1")).To(BeTrue())
			pool.Close()

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.RecentMessages).To(HaveLen(memory.DefaultMaxRawMessages))
			Expect(mctx.RollingSummary).NotTo(BeEmpty())

			events := publisher.compactedEvents()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeMemoryCompacted))
			Expect(events[0].EventID).NotTo(BeEmpty())
			Expect(events[0].MessagesCompacted).To(Equal(4))
			Expect(events[0].MessagesKept).To(Equal(3))
		})

		It("publishes nothing for a no-op compaction", func() {
			publisher := &capturePublisher{}
			pool, err := NewPool(&Config{
				Store:     store,
				Publisher: publisher,
				Logger:    logger,
			})
			Expect(err).NotTo(HaveOccurred())

			seedMessages(store, 2)
			Expect(pool.ScheduleCompaction("u1", "c1")).To(BeTrue())
			pool.Close()

			Expect(publisher.compactedEvents()).To(BeEmpty())
		})

		It("survives a compaction for a conversation that does not exist", func() {
			pool, err := NewPool(&Config{Store: store, Logger: logger})
			Expect(err).NotTo(HaveOccurred())

			Expect(pool.ScheduleCompaction("nobody", "nothing")).To(BeTrue())
			pool.Close()
		})
	})

	Describe("extraction jobs", func() {
		It("merges extracted facts into system memory", func() {
			pool, err := NewPool(&Config{
				Store: store,
				Extractor: &stubExtractor{extraction: &extractor.Extraction{
					Facts:       map[string]string{"name": "Aman"},
					Preferences: map[string]string{"tone": "casual"},
				}},
				Logger: logger,
			})
			Expect(err).NotTo(HaveOccurred())

			ok := pool.ScheduleExtraction("u1", "c1", "my name is Aman", "nice to meet you")
			Expect(ok).To(BeTrue())
			pool.Close()

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.SystemMemory.Facts).To(HaveKeyWithValue("name", "Aman"))
			Expect(mctx.SystemMemory.Preferences).To(HaveKeyWithValue("tone", "casual"))

			// Write-through reached the global record too.
			global, err := store.GetGlobalUserMemory(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(global.Facts).To(HaveKeyWithValue("name", "Aman"))
		})

		It("treats extractor failures as no facts found", func() {
			pool, err := NewPool(&Config{
				Store:     store,
				Extractor: &stubExtractor{failWith: errors.New("provider down")},
				Logger:    logger,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(pool.ScheduleExtraction("u1", "c1", "my name is Aman", "hello")).To(BeTrue())
			pool.Close()

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.SystemMemory.Facts).To(BeEmpty())
		})

		It("stores nothing for an empty extraction", func() {
			pool, err := NewPool(&Config{
				Store:     store,
				Extractor: &stubExtractor{extraction: &extractor.Extraction{}},
				Logger:    logger,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(pool.ScheduleExtraction("u1", "c1", "hello", "hi")).To(BeTrue())
			pool.Close()

			// No record was ever created.
			stats, err := store.GetStats(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.FactCount).To(Equal(0))
		})

		It("drops extraction jobs when no extractor is configured", func() {
			pool, err := NewPool(&Config{Store: store, Logger: logger})
			Expect(err).NotTo(HaveOccurred())

			Expect(pool.ScheduleExtraction("u1", "c1", "my name is Aman", "hello")).To(BeTrue())
			pool.Close()

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.SystemMemory.Facts).To(BeEmpty())
		})
	})

	Describe("Close", func() {
		It("drains every queued job before returning", func() {
			publisher := &capturePublisher{}
			pool, err := NewPool(&Config{
				Store:      store,
				Publisher:  publisher,
				NumWorkers: 1,
				Logger:     logger,
			})
			Expect(err).NotTo(HaveOccurred())

			seedMessages(store, 7)
			Expect(pool.ScheduleCompaction("u1", "c1")).To(BeTrue())
			Expect(pool.ScheduleCompaction("u1", "c1")).To(BeTrue())
			pool.Close()

			// The second run observed the first run's result and did
			// nothing, so exactly one event was published.
			Expect(publisher.compactedEvents()).To(HaveLen(1))
		})
	})
})
