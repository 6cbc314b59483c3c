package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/schema"
	"github.com/jackzampolin/kbase/internal/svcctx"
	"github.com/jackzampolin/kbase/internal/types"
)

// The CLI drives lifecycle commands through the controller over the client.
var _ lifecycle.Backend = (*api.Client)(nil)

// ProcessDocumentEndpoint handles POST /api/documents/{id}/process.
type ProcessDocumentEndpoint struct{ documentGroup }

func (e *ProcessDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/process", e.handler
}

func (e *ProcessDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Process a document
//	@Description	Start a run with the effective chunking config. A paused run resumes from its parse offset when the config is unchanged. Already running documents are returned unchanged.
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		202	{object}	types.Document
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id}/process [post]
func (e *ProcessDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	doc, err := svcctx.DocumentsFrom(r.Context()).Process(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (e *ProcessDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "process <id>",
		Short: "Start processing a document",
		Long: `Start processing a document.

A paused document resumes from its parse offset. To start over instead:
  kbase api documents restart <id>

Rerunning a processed document whose chunking config has not changed
produces the same chunks, so it asks for --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []lifecycle.ProcessOption
			if yes {
				opts = append(opts, lifecycle.Confirmed())
			}
			ctrl := lifecycle.NewController(api.NewClient(getServerURL()), nil)
			doc, err := ctrl.Process(cmd.Context(), args[0], opts...)
			if errors.Is(err, lifecycle.ErrConfirmationRequired) {
				return fmt.Errorf("%w (pass --yes to reprocess anyway)", err)
			}
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Reprocess even when the chunking config is unchanged")
	return cmd
}

// TerminateDocumentEndpoint handles POST /api/documents/{id}/terminate.
type TerminateDocumentEndpoint struct{ documentGroup }

func (e *TerminateDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/terminate", e.handler
}

func (e *TerminateDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Terminate a run
//	@Description	Pause a pending or processing document, keeping its parse offset. A no-op for documents that are not running.
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	types.Document
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id}/terminate [post]
func (e *TerminateDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	doc, err := svcctx.DocumentsFrom(r.Context()).Terminate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (e *TerminateDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "terminate <id>",
		Short: "Pause a running document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := lifecycle.NewController(api.NewClient(getServerURL()), nil)
			doc, err := ctrl.Terminate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
}

// ParseProgressEndpoint handles POST /api/documents/{id}/parse_progress.
// Workers report run progress here; it has no CLI form.
type ParseProgressEndpoint struct{}

func (e *ParseProgressEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/parse_progress", e.handler
}

func (e *ParseProgressEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Report run progress
//	@Description	Worker callback. Reports for a run other than the document's current one, or that the state machine rejects, return 409 and tell the worker to stop.
//	@Tags			documents
//	@Accept			json
//	@Param			id		path	string					true	"Document ID"
//	@Param			request	body	types.ProgressReport	true	"Progress report"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id}/parse_progress [post]
func (e *ParseProgressEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var report types.ProgressReport
	if !decodeBody(w, r, schema.ProgressReport, &report) {
		return
	}
	if err := svcctx.DocumentsFrom(r.Context()).ReportProgress(r.Context(), r.PathValue("id"), report); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *ParseProgressEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}
