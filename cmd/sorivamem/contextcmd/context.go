// Package contextcmder provides the context command for printing the
// memory context a chat turn would receive.
package contextcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
)

const contextLongDesc string = `Show the assembled memory context for a conversation.

Prints the prompt text a chat turn would be given (facts, preferences,
rolling summary) followed by the recent raw turns.

Examples:
  sorivamem context user-42 conv-7`

const contextShortDesc string = "Show the assembled memory context"

func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <user-id> <conversation-id>",
		Short: contextShortDesc,
		Long:  contextLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContext(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runContext(cmd *cobra.Command, userID, conversationID string) error {
	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	chat := env.Service.GetContextForChat(cmd.Context(), userID, conversationID)
	if chat == nil {
		return fmt.Errorf("memory context unavailable")
	}

	if chat.PromptContext == "" {
		fmt.Println("(no stored context)")
	} else {
		fmt.Println(chat.PromptContext)
	}

	if len(chat.Raw.RecentMessages) > 0 {
		fmt.Println("\nRecent turns:")
		for _, m := range chat.Raw.RecentMessages {
			fmt.Printf("  %d. [%s] %s\n", m.MessageIndex, m.Role, m.Content)
		}
	}

	fmt.Printf("\nEstimated tokens: %d\n", chat.EstimatedTokens)
	return nil
}
