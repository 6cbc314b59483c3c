package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/ingest"
	"github.com/jackzampolin/kbase/internal/schema"
	"github.com/jackzampolin/kbase/internal/svcctx"
	"github.com/jackzampolin/kbase/internal/types"
)

// UploadResponse is the stored document. ProcessError is set when the
// knowledge base auto-processes uploads but the run could not start.
type UploadResponse struct {
	types.Document
	ProcessError string `json:"process_error,omitempty"`
}

// UploadDocumentEndpoint handles POST /api/kbs/{id}/documents.
type UploadDocumentEndpoint struct{ kbGroup }

var _ api.Endpoint = (*UploadDocumentEndpoint)(nil)

func (e *UploadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/kbs/{id}/documents", e.handler
}

func (e *UploadDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload a document
//	@Description	Store a file in a knowledge base. The document starts as not_started unless the knowledge base auto-processes uploads.
//	@Tags			kbs
//	@Accept			mpfd
//	@Produce		json
//	@Param			id				path		string	true	"Knowledge base ID"
//	@Param			file			formData	file	true	"File to ingest (txt, md, csv, json, log, html, pdf)"
//	@Param			parsing_config	formData	string	false	"JSON chunking override, e.g. {\"chunk_size\":500}"
//	@Success		201				{object}	UploadResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		413				{object}	ErrorResponse
//	@Failure		503				{object}	ErrorResponse
//	@Router			/api/kbs/{id}/documents [post]
func (e *UploadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxSize := int64(ingest.DefaultMaxSize)
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		maxSize = cm.Get().MaxUploadBytes()
	}

	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxSize))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var override *types.ParsingConfig
	if raw := r.FormValue("parsing_config"); raw != "" {
		var pc types.ParsingConfig
		if err := schema.Decode(schema.ParsingConfig, []byte(raw), &pc); err != nil {
			writeServiceError(w, err)
			return
		}
		if pc.ChunkSize != nil || pc.Overlap != nil {
			override = &pc
		}
	}

	result, err := ingest.Ingest(r.Context(), svcctx.DocumentsFrom(r.Context()), svcctx.HomeFrom(r.Context()), ingest.Request{
		KBID:          r.PathValue("id"),
		Filename:      header.Filename,
		Content:       file,
		ParsingConfig: override,
		MaxSize:       maxSize,
		Logger:        svcctx.LoggerFrom(r.Context()),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Document:     *result.Document,
		ProcessError: result.ProcessError,
	})
}

func (e *UploadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var chunkSize, overlap int
	cmd := &cobra.Command{
		Use:   "upload <kb-id> <file>",
		Short: "Upload a file to a knowledge base",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[1], err)
			}
			defer f.Close()

			var override *types.ParsingConfig
			if cmd.Flags().Changed("chunk-size") || cmd.Flags().Changed("overlap") {
				override = &types.ParsingConfig{}
				if cmd.Flags().Changed("chunk-size") {
					override.ChunkSize = &chunkSize
				}
				if cmd.Flags().Changed("overlap") {
					override.Overlap = &overlap
				}
			}

			client := api.NewClient(getServerURL())
			doc, err := client.Upload(cmd.Context(), args[0], args[1], f, override)
			if err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Chunk size override for this document")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Chunk overlap override for this document")
	return cmd
}

// ListDocumentsEndpoint handles GET /api/kbs/{id}/documents.
type ListDocumentsEndpoint struct{ kbGroup }

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/kbs/{id}/documents", e.handler
}

func (e *ListDocumentsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List documents in a knowledge base
//	@Description	Documents are ordered by upload time and include their effective chunking config
//	@Tags			kbs
//	@Produce		json
//	@Param			id	path		string	true	"Knowledge base ID"
//	@Success		200	{array}		types.DocumentView
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/kbs/{id}/documents [get]
func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs, err := svcctx.DocumentsFrom(r.Context()).ListDocuments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "documents <kb-id>",
		Short: "List a knowledge base's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			docs, err := client.ListDocuments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(docs)
		},
	}
}
