package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/progress"
	"github.com/jackzampolin/kbase/internal/types"
)

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Continue a paused document from its parse offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := lifecycle.NewController(api.NewClient(getServerURL()), nil)
			doc, err := ctrl.Resume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
}

func restartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <id>",
		Short: "Reset a paused document's progress and process it from the start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := lifecycle.NewController(api.NewClient(getServerURL()), nil)
			doc, err := ctrl.Restart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
}

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Show a progress bar until the document stops running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			doc, err := watch(cmd.Context(), client, args[0], interval)
			if err != nil {
				return err
			}
			if doc.Status == types.StatusFailed && doc.FailReason != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", doc.FailReason)
			}
			printNextCommands(os.Stderr, doc)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Polling interval")
	return cmd
}

// watch polls the document and draws its progress until no run is active.
func watch(ctx context.Context, client *api.Client, id string, interval time.Duration) (*types.Document, error) {
	doc, err := client.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	bar := progress.NewBar(os.Stderr, doc.Filename)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := bar.Update(progress.For(doc)); err != nil {
			return nil, err
		}
		if !doc.Status.Running() {
			bar.Finish(progress.For(doc))
			return doc, nil
		}

		select {
		case <-ctx.Done():
			return doc, ctx.Err()
		case <-ticker.C:
		}

		doc, err = client.GetDocument(ctx, id)
		if err != nil {
			return nil, err
		}
	}
}

// printNextCommands lists the lifecycle commands the document accepts now.
func printNextCommands(w io.Writer, doc *types.Document) {
	for _, c := range lifecycle.Available(doc.Status) {
		fmt.Fprintf(w, "  kbase api documents %s %s\n", c, doc.ID)
	}
}
