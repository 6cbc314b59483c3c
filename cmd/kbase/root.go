package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Knowledge base document ingestion server",
	Long: `kbase stores documents in knowledge bases and splits them into chunks.

Each document moves through an ingestion lifecycle:
  - not_started until processing is requested
  - pending and processing while a worker splits it
  - paused when terminated, resumable from its parse offset
  - processed, failed or cancelled when the run ends

Chunks can be paged through while a run is still in progress.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.kbase/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "kbase home directory (default: ~/.kbase)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
