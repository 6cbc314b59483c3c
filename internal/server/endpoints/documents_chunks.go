package endpoints

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/svcctx"
	"github.com/jackzampolin/kbase/internal/types"
	"github.com/jackzampolin/kbase/internal/viewer"
)

// ListChunksEndpoint handles GET /api/documents/{id}/chunks.
type ListChunksEndpoint struct{ documentGroup }

func (e *ListChunksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/chunks", e.handler
}

func (e *ListChunksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List chunks
//	@Description	One page of a document's chunks. Chunks longer than three lines are truncated unless full_text is set on a single-chunk page.
//	@Tags			documents
//	@Produce		json
//	@Param			id			path		string	true	"Document ID"
//	@Param			page		query		int		false	"Page number, starting at 1"	default(1)
//	@Param			limit		query		int		false	"Chunks per page (1-100)"		default(10)
//	@Param			full_text	query		bool	false	"Return full text when limit is 1"
//	@Success		200			{object}	types.ChunkPage
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/documents/{id}/chunks [get]
func (e *ListChunksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", documents.DefaultChunkLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	full, err := queryBool(r, "full_text")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := svcctx.DocumentsFrom(r.Context()).ListChunks(r.Context(), r.PathValue("id"), types.ChunkQuery{
		Page:     page,
		Limit:    limit,
		FullText: full,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *ListChunksEndpoint) Command(getServerURL func() string) *cobra.Command {
	var page, limit int
	var expand []int
	cmd := &cobra.Command{
		Use:   "chunks <id>",
		Short: "Page through a document's chunks",
		Long: `Page through a document's chunks.

Long chunks are shown as a three line preview. Use --expand to fetch the
full text of specific chunks:
  kbase api documents chunks <id> --page 2 --expand 12 --expand 14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := viewer.NewSession(api.NewClient(getServerURL()), args[0], limit)
			result, err := session.LoadPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, id := range expand {
				if _, err := session.Expand(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to expand chunk %d: %w", id, err)
				}
			}

			display := *result
			display.Items = session.Display()
			if api.GetOutputFormat() != api.OutputFormatText {
				return api.Output(display)
			}
			printChunks(cmd.OutOrStdout(), session, &display)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", viewer.DefaultLimit, "Chunks per page")
	cmd.Flags().IntSliceVar(&expand, "expand", nil, "Chunk IDs to show in full")
	return cmd
}

func printChunks(w io.Writer, s *viewer.Session, page *types.ChunkPage) {
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "No chunks on page %d (%d total)\n", page.Page, page.Total)
		return
	}
	for _, c := range page.Items {
		fmt.Fprintf(w, "── chunk %d · %d chars · %d lines\n", c.ChunkID, c.Length, c.TotalLines)
		fmt.Fprintln(w, c.Text)
		if c.Truncated && !s.Expanded(c.ChunkID) {
			fmt.Fprintf(w, "   … %d more lines (--expand %d)\n", hiddenLines(c), c.ChunkID)
		}
	}
	items := s.Window()
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.String()
		if item.Page == page.Page {
			labels[i] = "[" + labels[i] + "]"
		}
	}
	fmt.Fprintf(w, "\nPage %d of %d: %s\n", page.Page, s.TotalPages(), strings.Join(labels, " "))
}

// hiddenLines is how many lines of c the listing left out.
func hiddenLines(c types.Chunk) int {
	shown := strings.Count(c.Text, "\n") + 1
	return max(0, c.TotalLines-shown)
}

// PreviewEndpoint handles GET /api/documents/{id}/preview.
type PreviewEndpoint struct{ documentGroup }

func (e *PreviewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/preview", e.handler
}

func (e *PreviewEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Preview extracted text
//	@Description	Returns up to 5000 lines or 50000 characters of the document's text starting at a line offset
//	@Tags			documents
//	@Produce		json
//	@Param			id		path		string	true	"Document ID"
//	@Param			offset	query		int		false	"Line to start from"	default(0)
//	@Success		200		{object}	types.Preview
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents/{id}/preview [get]
func (e *PreviewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := svcctx.DocumentsFrom(r.Context()).Preview(r.Context(), r.PathValue("id"), offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *PreviewEndpoint) Command(getServerURL func() string) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Show a document's extracted text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			p, err := client.Preview(cmd.Context(), args[0], offset)
			if err != nil {
				return err
			}
			if api.GetOutputFormat() != api.OutputFormatText {
				return api.Output(p)
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Content)
			if p.NextOffset != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n… more text (--offset %d)\n", *p.NextOffset)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Line to start from")
	return cmd
}

// DownloadEndpoint handles GET /api/documents/{id}/download.
type DownloadEndpoint struct{ documentGroup }

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/download", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download the uploaded file
//	@Tags			documents
//	@Produce		octet-stream
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{file}		file
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/documents/{id}/download [get]
func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	path, doc, err := svcctx.DocumentsFrom(r.Context()).FilePath(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	http.ServeContent(w, r, doc.Filename, info.ModTime(), f)
}

func (e *DownloadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a document's original file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if outputFile == "" {
				return client.Download(cmd.Context(), args[0], cmd.OutOrStdout())
			}
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputFile, err)
			}
			if err := client.Download(cmd.Context(), args[0], f); err != nil {
				f.Close()
				os.Remove(outputFile)
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write to this file instead of stdout")
	return cmd
}
