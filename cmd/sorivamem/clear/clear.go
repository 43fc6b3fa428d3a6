// Package clearcmder provides the clear command for deleting a
// conversation's memory record and raw messages.
package clearcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
)

const clearLongDesc string = `Delete a conversation's memory.

Removes the memory record, its rolling summary, its system memory and
all raw messages in one transaction. Clearing a conversation does not
touch the user's global memory; clear __global__ explicitly for that.

Examples:
  sorivamem clear user-42 conv-7
  sorivamem clear user-42 __global__`

const clearShortDesc string = "Delete a conversation's memory"

func NewClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear <user-id> <conversation-id>",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, args[0], args[1], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func runClear(cmd *cobra.Command, userID, conversationID string, force bool) error {
	if !force {
		fmt.Printf("Delete all memory for user %q conversation %q? [y/N] ", userID, conversationID)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Store.ClearMemory(cmd.Context(), userID, conversationID); err != nil {
		return fmt.Errorf("clearing memory: %w", err)
	}

	fmt.Println("Memory cleared.")
	return nil
}
