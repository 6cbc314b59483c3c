package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All() {
		registry.Register(ep)
	}
	apiCmd := registry.BuildCommands(getServerURL)

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Client-side lifecycle commands without an endpoint of their own.
	if docs := findCommand(apiCmd, "documents"); docs != nil {
		docs.AddCommand(resumeCmd(), restartCmd(), watchCmd())
	}

	rootCmd.AddCommand(apiCmd)
}

func findCommand(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
