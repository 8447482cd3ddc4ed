package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/recurring/cmd/api/commands"
)

// @title Recurring Tasks API
// @version 1.0
// @description Recurrence templates, exceptions and instance generation

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring task generation service",
		Long:  `recurring expands recurrence templates into concrete task instances, on demand over HTTP and ahead of time on a schedule.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
