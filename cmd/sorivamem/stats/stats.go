// Package statscmder provides the stats command for inspecting the size
// and shape of a conversation's stored memory.
package statscmder

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
)

const statsLongDesc string = `Show memory stats for a conversation.

Reports message counts, summary size and the number of stored facts,
preferences and decisions. A conversation with no memory reports zeros.

Examples:
  sorivamem stats user-42 conv-7
  sorivamem stats user-42 __global__`

const statsShortDesc string = "Show memory stats for a conversation"

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <user-id> <conversation-id>",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, userID, conversationID string) error {
	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	stats, err := env.Store.GetStats(cmd.Context(), userID, conversationID)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "User:\t%s\n", stats.UserID)
	fmt.Fprintf(w, "Conversation:\t%s\n", stats.ConversationID)
	fmt.Fprintf(w, "Total messages:\t%d\n", stats.TotalMessages)
	fmt.Fprintf(w, "Live messages:\t%d\n", stats.LiveMessages)
	fmt.Fprintf(w, "Has summary:\t%t\n", stats.HasSummary)
	fmt.Fprintf(w, "Summary tokens:\t%d\n", stats.SummaryTokens)
	fmt.Fprintf(w, "Facts:\t%d\n", stats.FactCount)
	fmt.Fprintf(w, "Preferences:\t%d\n", stats.PreferenceCount)
	fmt.Fprintf(w, "Decisions:\t%d\n", stats.DecisionCount)
	if stats.LastSummarizedAt != nil {
		fmt.Fprintf(w, "Last summarized:\t%s\n", stats.LastSummarizedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return w.Flush()
}
