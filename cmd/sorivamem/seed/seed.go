package seedcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
	"github.com/Aman3189/soriva-backend-sub004/pkg/memory"
)

const seedLongDesc string = `Seed a demo conversation.

Writes a short scripted dialogue plus a few system-memory facts so the
stats, compact and clear commands have something to work with. Enough
turns are written to push the conversation over the summary threshold.

Examples:
  sorivamem seed
  sorivamem seed --user demo-user --conversation demo-conv
  sorivamem seed --turns 20`

const seedShortDesc string = "Seed a demo conversation"

type seedCommander struct {
	userID         string
	conversationID string
	turns          int
}

type demoTurn struct {
	role    string
	content string
}

var demoDialogue = []demoTurn{
	{memory.RoleUser, "Hi, I'm Priya. I'm planning a trip to Kyoto in November."},
	{memory.RoleAssistant, "Nice to meet you, Priya. November is peak autumn-foliage season in Kyoto, so book accommodation early."},
	{memory.RoleUser, "I prefer quiet neighborhoods over touristy ones."},
	{memory.RoleAssistant, "Then look at Arashiyama's edges or the Okazaki area rather than downtown Kawaramachi."},
	{memory.RoleUser, "What about day trips from there?"},
	{memory.RoleAssistant, "Nara and Uji are both under an hour away by train and pair well with a Kyoto base."},
	{memory.RoleUser, "Great, let's plan three days in Kyoto and one in Nara."},
	{memory.RoleAssistant, "Done: three days Kyoto, one day Nara. I'll keep that itinerary in mind."},
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.userID, "user", "u", "demo-user", "User ID to seed under")
	cmd.Flags().StringVarP(&cmder.conversationID, "conversation", "n", "demo-conv", "Conversation ID to seed under")
	cmd.Flags().IntVarP(&cmder.turns, "turns", "t", 0, "Seed N generated alternating turns instead of the scripted dialogue")

	return cmd
}

// dialogue returns the turns to seed: the scripted demo by default, or
// generated alternating filler when --turns is set.
func (c *seedCommander) dialogue() []demoTurn {
	if c.turns <= 0 {
		return demoDialogue
	}

	out := make([]demoTurn, 0, c.turns)
	for i := range c.turns {
		role := memory.RoleUser
		if i%2 == 1 {
			role = memory.RoleAssistant
		}
		out = append(out, demoTurn{role, fmt.Sprintf("seed turn %d", i)})
	}
	return out
}

func (c *seedCommander) run(cmd *cobra.Command) error {
	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()

	turns := c.dialogue()
	for _, turn := range turns {
		if _, err := env.Store.AddMessage(ctx, memory.AddMessageInput{
			UserID:         c.userID,
			ConversationID: c.conversationID,
			Role:           turn.role,
			Content:        turn.content,
		}); err != nil {
			return fmt.Errorf("seeding message: %w", err)
		}
	}

	if _, err := env.Store.UpdateSystemMemory(ctx, c.userID, c.conversationID, memory.Updates{
		Facts: map[string]string{
			"name":         "Priya",
			"destination":  "Kyoto",
			"travel_month": "November",
		},
		Preferences: map[string]string{
			"neighborhoods": "quiet over touristy",
		},
		Decisions: map[string]string{
			"itinerary": "three days Kyoto, one day Nara",
		},
	}); err != nil {
		return fmt.Errorf("seeding facts: %w", err)
	}

	stats, err := env.Store.GetStats(ctx, c.userID, c.conversationID)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	fmt.Printf("Seeded %d turns for user %q conversation %q (%d live messages, summary: %t).\n",
		len(turns), c.userID, c.conversationID, stats.LiveMessages, stats.HasSummary)
	return nil
}
