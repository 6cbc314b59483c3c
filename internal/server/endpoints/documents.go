package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/schema"
	"github.com/jackzampolin/kbase/internal/svcctx"
	"github.com/jackzampolin/kbase/internal/types"
)

// documentGroup places document commands under "kbase api documents".
type documentGroup struct{}

func (documentGroup) Group() (string, string) { return "documents", "Inspect and control documents" }

// GetDocumentEndpoint handles GET /api/documents/{id}.
type GetDocumentEndpoint struct{ documentGroup }

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}", e.handler
}

func (e *GetDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a document
//	@Description	Returns the document with its effective chunking config and whether a reprocess would change it
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	types.DocumentView
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id} [get]
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	view, err := svcctx.DocumentsFrom(r.Context()).GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a document by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			view, err := client.GetDocumentView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(view)
		},
	}
}

// UpdateDocumentEndpoint handles PUT /api/documents/{id}.
type UpdateDocumentEndpoint struct{ documentGroup }

func (e *UpdateDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/documents/{id}", e.handler
}

func (e *UpdateDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a document
//	@Description	Set the chunking override or the parse offset. The offset cannot change while a run is active.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Document ID"
//	@Param			request	body		api.DocumentUpdate	true	"Fields to change"
//	@Success		200		{object}	types.Document
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents/{id} [put]
func (e *UpdateDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var u documents.Update
	if !decodeBody(w, r, schema.DocumentUpdate, &u) {
		return
	}
	doc, err := svcctx.DocumentsFrom(r.Context()).Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (e *UpdateDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var chunkSize, overlap, offset int
	var clear bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a document's chunking override or parse offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u api.DocumentUpdate
			switch {
			case clear:
				u.ParsingConfig = &types.ParsingConfig{}
			case cmd.Flags().Changed("chunk-size") || cmd.Flags().Changed("overlap"):
				u.ParsingConfig = &types.ParsingConfig{}
				if cmd.Flags().Changed("chunk-size") {
					u.ParsingConfig.ChunkSize = &chunkSize
				}
				if cmd.Flags().Changed("overlap") {
					u.ParsingConfig.Overlap = &overlap
				}
			}
			if cmd.Flags().Changed("parse-offset") {
				u.ParseOffset = &offset
			}
			if u.ParsingConfig == nil && u.ParseOffset == nil {
				return fmt.Errorf("nothing to update: set at least one flag")
			}

			client := api.NewClient(getServerURL())
			doc, err := client.UpdateDocument(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Chunk size override")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Chunk overlap override")
	cmd.Flags().BoolVar(&clear, "clear-config", false, "Remove the override and inherit the knowledge base config")
	cmd.Flags().IntVar(&offset, "parse-offset", 0, "Chunk index the next resumed run starts from")
	cmd.MarkFlagsMutuallyExclusive("clear-config", "chunk-size")
	cmd.MarkFlagsMutuallyExclusive("clear-config", "overlap")
	return cmd
}

// DeleteDocumentEndpoint handles DELETE /api/documents/{id}.
type DeleteDocumentEndpoint struct{ documentGroup }

func (e *DeleteDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/documents/{id}", e.handler
}

func (e *DeleteDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a document
//	@Description	Cancels any active run and removes the file and its chunks
//	@Tags			documents
//	@Param			id	path	string	true	"Document ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id} [delete]
func (e *DeleteDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := svcctx.DocumentsFrom(r.Context()).DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document with its file and chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted document %s\n", args[0])
			return nil
		},
	}
}
