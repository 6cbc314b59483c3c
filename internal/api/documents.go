package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/jackzampolin/kbase/internal/types"
)

// DocumentUpdate is the body of PUT /api/documents/{id}.
type DocumentUpdate struct {
	ParsingConfig *types.ParsingConfig `json:"parsing_config,omitempty"`
	ParseOffset   *int                 `json:"parse_offset,omitempty"`
}

func documentPath(id string, suffix string) string {
	return "/api/documents/" + url.PathEscape(id) + suffix
}

// GetDocumentView fetches a document with its derived fields.
func (c *Client) GetDocumentView(ctx context.Context, id string) (*types.DocumentView, error) {
	var view types.DocumentView
	if err := c.Get(ctx, documentPath(id, ""), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetDocument fetches the current document snapshot.
func (c *Client) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	view, err := c.GetDocumentView(ctx, id)
	if err != nil {
		return nil, err
	}
	return &view.Document, nil
}

// Process asks the server to start or resume a run.
func (c *Client) Process(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	if err := c.Post(ctx, documentPath(id, "/process"), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Terminate asks the server to pause a running document.
func (c *Client) Terminate(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	if err := c.Post(ctx, documentPath(id, "/terminate"), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument sends a partial update.
func (c *Client) UpdateDocument(ctx context.Context, id string, u DocumentUpdate) (*types.Document, error) {
	var doc types.Document
	if err := c.Put(ctx, documentPath(id, ""), u, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ResetProgress sets the document's parse offset to zero.
func (c *Client) ResetProgress(ctx context.Context, id string) (*types.Document, error) {
	zero := 0
	return c.UpdateDocument(ctx, id, DocumentUpdate{ParseOffset: &zero})
}

// UpdateParsingConfig replaces the document's chunking override.
func (c *Client) UpdateParsingConfig(ctx context.Context, id string, cfg types.ParsingConfig) (*types.Document, error) {
	return c.UpdateDocument(ctx, id, DocumentUpdate{ParsingConfig: &cfg})
}

// DeleteDocument removes a document with its chunks and file.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.Delete(ctx, documentPath(id, ""))
}

// ListChunks fetches one page of chunks.
func (c *Client) ListChunks(ctx context.Context, id string, q types.ChunkQuery) (*types.ChunkPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.FullText {
		params.Set("full_text", "true")
	}
	var page types.ChunkPage
	if err := c.Get(ctx, documentPath(id, "/chunks?"+params.Encode()), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Preview fetches a window of the document's text starting at a line.
func (c *Client) Preview(ctx context.Context, id string, offset int) (*types.Preview, error) {
	var p types.Preview
	if err := c.Get(ctx, documentPath(id, "/preview?offset="+strconv.Itoa(offset)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReportProgress posts a worker progress report.
func (c *Client) ReportProgress(ctx context.Context, id string, r types.ProgressReport) error {
	return c.Post(ctx, documentPath(id, "/parse_progress"), r, nil)
}

// Download streams the uploaded file into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+documentPath(id, "/download"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download: %v", ErrCommunication, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return c.handleResponse(resp, nil)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: download interrupted: %v", ErrCommunication, err)
	}
	return nil
}

// Upload sends a file to a knowledge base as a multipart form.
func (c *Client) Upload(ctx context.Context, kbID, filename string, content io.Reader, cfg *types.ParsingConfig) (*types.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parsing config: %w", err)
		}
		if err := mw.WriteField("parsing_config", string(raw)); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	path := "/api/kbs/" + url.PathEscape(kbID) + "/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var doc types.Document
	if err := c.send(req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
