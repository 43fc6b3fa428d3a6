package memory

import (
	"context"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage/inmemory"
)

var _ = Describe("Compact", func() {
	var (
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store, _ = newTestStore(Limits{})
		ctx = context.Background()
	})

	It("is a no-op for a missing record", func() {
		result, err := store.Compact(ctx, "u1", "absent")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeNil())
	})

	It("is a no-op when the live count is within the keep window", func() {
		addTurns(ctx, store, "u1", "c1", DefaultMaxRawMessages)

		result, err := store.Compact(ctx, "u1", "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeNil())

		mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(mctx.RecentMessages).To(HaveLen(DefaultMaxRawMessages))
		Expect(mctx.RollingSummary).To(BeEmpty())
	})

	Context("with seven messages m0..m6", func() {
		BeforeEach(func() {
			// Use a scheduler that drops everything so AddMessage never
			// compacts on its own and the seventh message survives until
			// the explicit Compact call.
			logger, _ := zap.NewDevelopment()
			var err error
			store, err = NewStore(&Config{
				Driver:    inmemory.NewDriver(),
				Scheduler: &recordingScheduler{full: true},
				Logger:    logger,
			})
			Expect(err).NotTo(HaveOccurred())

			addTurns(ctx, store, "u1", "c1", 7)
		})

		It("keeps the newest three, reindexed from zero", func() {
			result, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).NotTo(BeNil())
			Expect(result.MessagesCompacted).To(Equal(4))
			Expect(result.MessagesKept).To(Equal(3))

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.RecentMessages).To(HaveLen(3))
			for i, m := range mctx.RecentMessages {
				Expect(m.MessageIndex).To(Equal(i))
				Expect(m.Content).To(Equal(fmt.Sprintf("m%d", i+4)))
			}
			Expect(mctx.TotalMessages).To(Equal(3))
		})

		It("folds the compacted messages into the summary with their roles", func() {
			_, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.RollingSummary).To(ContainSubstring("user: m0"))
			Expect(mctx.RollingSummary).To(ContainSubstring("assistant: m1"))
			Expect(mctx.RollingSummary).To(ContainSubstring("assistant: m3"))
			Expect(mctx.RollingSummary).NotTo(ContainSubstring("m4"))
		})

		It("records summary tokens and the compaction time", func() {
			result, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.Meta.SummaryTokens).To(Equal(result.SummaryTokens))
			Expect(mctx.Meta.SummaryTokens).To(BeNumerically(">", 0))
			Expect(mctx.Meta.LastSummarizedAt).NotTo(BeNil())
		})

		It("makes a second run a no-op", func() {
			_, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			result, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeNil())
		})

		It("prepends the prior summary on the next compaction", func() {
			_, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			for i := 7; i < 11; i++ {
				_, err := store.AddMessage(ctx, AddMessageInput{
					UserID:         "u1",
					ConversationID: "c1",
					Role:           RoleUser,
					Content:        fmt.Sprintf("m%d", i),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			_, err = store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.RollingSummary).To(ContainSubstring("m0"))
			Expect(mctx.RollingSummary).To(ContainSubstring(summaryBlockSeparator))
			Expect(mctx.RollingSummary).To(ContainSubstring("m7"))
		})
	})

	Context("with tight content and summary budgets", func() {
		BeforeEach(func() {
			logger, _ := zap.NewDevelopment()
			var err error
			store, err = NewStore(&Config{
				Driver: inmemory.NewDriver(),
				Limits: Limits{
					SummaryThreshold:  6,
					MaxRawMessages:    3,
					MaxSummaryTokens:  5,
					MaxMessageContent: 10,
				},
				Logger: logger,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("truncates each message's contribution to the content cap", func() {
			long := strings.Repeat("a", 100)
			for range 4 {
				_, err := store.AddMessage(ctx, AddMessageInput{
					UserID:         "u1",
					ConversationID: "c1",
					Role:           RoleUser,
					Content:        long,
				})
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mctx.RollingSummary).NotTo(ContainSubstring(strings.Repeat("a", 11)))
		})

		It("caps the whole summary at four chars per budgeted token, keeping the front", func() {
			for i := range 10 {
				_, err := store.AddMessage(ctx, AddMessageInput{
					UserID:         "u1",
					ConversationID: "c1",
					Role:           RoleUser,
					Content:        fmt.Sprintf("message-%d", i),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := store.Compact(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())

			mctx, err := store.GetMemoryContext(ctx, "u1", "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(len(mctx.RollingSummary)).To(BeNumerically("<=", 5*4))
			Expect(mctx.RollingSummary).To(HavePrefix("user:"))
		})
	})
})
