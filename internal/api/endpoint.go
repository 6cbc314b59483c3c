package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint is one HTTP route together with the CLI command that calls it.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit reports whether the handler needs the store and worker
	// pool to be up.
	RequiresInit() bool

	// Command returns a cobra command that calls this endpoint over HTTP.
	// getServerURL is evaluated when the command runs, after flags parse.
	// Endpoints without a CLI form return nil.
	Command(getServerURL func() string) *cobra.Command
}
