// Package sorivamemcmder
package sorivamemcmder

import (
	"github.com/spf13/cobra"

	clearcmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/clear"
	compactcmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/compact"
	contextcmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/contextcmd"
	savecmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/save"
	seedcmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/seed"
	statscmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem/stats"
	versioncmder "github.com/Aman3189/soriva-backend-sub004/cmd/version"
)

const sorivamemLongDesc string = `Sorivamem is bounded conversational memory for chat agents.

Inspect and maintain stored memories using:
  sorivamem context  Show the assembled memory context
  sorivamem save     Save a user/assistant exchange
  sorivamem stats    Show memory stats for a conversation
  sorivamem compact  Fold overflow messages into the rolling summary
  sorivamem clear    Delete a conversation's memory
  sorivamem seed     Seed a demo conversation`

const sorivamemShortDesc string = "Sorivamem - Conversational Memory"

func NewSorivamemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sorivamem",
		Short: sorivamemShortDesc,
		Long:  sorivamemLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config-dir", "c", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(contextcmder.NewContextCmd())
	cmd.AddCommand(savecmder.NewSaveCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(compactcmder.NewCompactCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
