// Package ingest stores uploaded files and registers them as documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/home"
	"github.com/jackzampolin/kbase/internal/jobs"
	"github.com/jackzampolin/kbase/internal/types"
)

// DefaultMaxSize caps uploads when Request.MaxSize is zero.
const DefaultMaxSize = 100 << 20

var (
	// ErrUnsupportedType is returned for files the worker cannot parse.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge is returned when an upload exceeds the size cap.
	ErrTooLarge = errors.New("file too large")

	// ErrInvalidFile is returned when a file's content does not match its type.
	ErrInvalidFile = errors.New("invalid file")
)

// Request contains the parameters for ingesting one file.
type Request struct {
	KBID          string
	Filename      string
	Content       io.Reader
	ParsingConfig *types.ParsingConfig
	MaxSize       int64        // bytes; DefaultMaxSize if zero
	Logger        *slog.Logger // Optional logger for progress updates
}

// Result contains the stored document.
type Result struct {
	Document *types.Document
	// Processed is set when the knowledge base auto-processes uploads and
	// the run was dispatched.
	Processed bool
	// ProcessError explains why auto-processing did not start. The
	// document is stored either way and can be processed later.
	ProcessError string
}

// FileType returns the lower-case extension of filename without the dot.
func FileType(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Ingest writes the upload under the home directory, validates it and
// creates a not_started document. If the knowledge base has
// auto_process_on_upload set, a run is started as well.
func Ingest(ctx context.Context, svc *documents.Service, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", documents.ErrInvalid)
	}
	filetype := FileType(filename)
	if !jobs.Supported(filetype) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedType, filetype, strings.Join(jobs.SupportedTypes(), ", "))
	}

	kb, err := svc.GetKnowledgeBase(ctx, req.KBID)
	if err != nil {
		return nil, err
	}

	docID := uuid.New().String()
	if err := homeDir.EnsureDocumentDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(homeDir.DocumentDir(docID)) }

	path := homeDir.DocumentPath(docID, filename)
	size, err := writeFile(path, req.Content, req.MaxSize)
	if err != nil {
		cleanup()
		return nil, err
	}
	log.Debug("upload stored", "document_id", docID, "path", path, "bytes", size)

	if filetype == "pdf" {
		pages, err := pdfPageCount(path)
		if err != nil {
			cleanup()
			return nil, err
		}
		log.Debug("pdf validated", "document_id", docID, "pages", pages)
	}

	doc, err := svc.CreateDocument(ctx, &types.Document{
		ID:            docID,
		KBID:          kb.ID,
		Filename:      filename,
		Filetype:      filetype,
		ParsingConfig: req.ParsingConfig,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	result := &Result{Document: doc}
	if kb.AutoProcessOnUpload {
		started, err := svc.Process(ctx, doc.ID)
		if err != nil {
			log.Warn("auto-process failed", "document_id", doc.ID, "error", err)
			result.ProcessError = err.Error()
		} else {
			result.Document = started
			result.Processed = true
		}
	}

	log.Info("ingest complete", "document_id", doc.ID, "kb_id", kb.ID, "filename", filename, "processed", result.Processed)
	return result, nil
}

func writeFile(path string, content io.Reader, maxSize int64) (int64, error) {
	if content == nil {
		return 0, fmt.Errorf("%w: empty upload", documents.ErrInvalid)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// Read one byte past the cap to detect oversize uploads.
	n, err := io.Copy(f, io.LimitReader(content, maxSize+1))
	if err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if n > maxSize {
		return n, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxSize)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: empty upload", documents.ErrInvalid)
	}
	return n, f.Sync()
}

// pdfPageCount rejects files that do not parse as a PDF with pages.
func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: not a readable PDF: %v", ErrInvalidFile, err)
	}
	if pages == 0 {
		return 0, fmt.Errorf("%w: PDF has no pages", ErrInvalidFile)
	}
	return pages, nil
}
