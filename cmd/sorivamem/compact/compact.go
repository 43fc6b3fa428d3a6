// Package compactcmder provides the compact command for manually folding
// a conversation's overflow messages into its rolling summary.
package compactcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
)

const compactLongDesc string = `Compact a conversation's memory.

Folds everything beyond the raw-message keep window into the rolling
summary and reindexes the survivors. A conversation already at or below
the keep window is left untouched.

Examples:
  sorivamem compact user-42 conv-7`

const compactShortDesc string = "Fold overflow messages into the summary"

func NewCompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact <user-id> <conversation-id>",
		Short: compactShortDesc,
		Long:  compactLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompact(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runCompact(cmd *cobra.Command, userID, conversationID string) error {
	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := env.Store.Compact(cmd.Context(), userID, conversationID)
	if err != nil {
		return fmt.Errorf("compacting: %w", err)
	}

	if result == nil {
		fmt.Println("Nothing to compact.")
		return nil
	}

	fmt.Printf("Compacted %d messages, kept %d (summary now %d tokens).\n",
		result.MessagesCompacted, result.MessagesKept, result.SummaryTokens)
	return nil
}
