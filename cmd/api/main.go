package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/creativetrack/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "creativetrack",
		Short: "CreativeTrack API Server",
		Long:  `CreativeTrack is a review and approval workflow engine for campaign content: per-slot creative approvals, version timelines and weekly progress reporting.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
