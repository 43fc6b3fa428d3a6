// Package savecmder provides the save command for persisting one
// user/assistant exchange from the shell, mainly for poking at a local
// database.
package savecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/openstore"
	"github.com/Aman3189/soriva-backend-sub004/pkg/service"
)

const saveLongDesc string = `Save a user/assistant exchange.

Persists both turns and, with --extract, schedules async fact extraction
through the configured extractor provider.

Examples:
  sorivamem save user-42 conv-7 "my name is Priya" "nice to meet you, Priya"
  sorivamem save user-42 conv-7 "I live in Mumbai" "noted" --extract`

const saveShortDesc string = "Save a user/assistant exchange"

func NewSaveCmd() *cobra.Command {
	var extract bool

	cmd := &cobra.Command{
		Use:   "save <user-id> <conversation-id> <user-message> <assistant-message>",
		Short: saveShortDesc,
		Long:  saveLongDesc,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args, extract)
		},
	}

	cmd.Flags().BoolVarP(&extract, "extract", "x", false, "Schedule async fact extraction")

	return cmd
}

func runSave(cmd *cobra.Command, args []string, extract bool) error {
	env, err := openstore.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	err = env.Service.SaveExchange(cmd.Context(), args[0], args[1], args[2], args[3],
		service.SaveOptions{ExtractFacts: extract})
	if err != nil {
		return fmt.Errorf("saving exchange: %w", err)
	}

	fmt.Println("Exchange saved.")
	return nil
}
