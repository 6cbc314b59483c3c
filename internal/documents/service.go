// Package documents is the server-side authority over documents: it owns
// lifecycle transitions, dispatches parse runs to the worker and applies
// the worker's progress reports.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/kbase/internal/jobs"
	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/reprocess"
	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

// RecoveredReason is the fail reason set on runs interrupted by shutdown.
const RecoveredReason = "interrupted by shutdown"

// Store is the persistence the service needs.
type Store interface {
	storage.KnowledgeBaseRepository
	storage.DocumentRepository
	storage.ChunkRepository
}

// Dispatcher hands parse runs to the worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, run types.ParseRun) error
	Cancel(docID string) bool
}

// Paths resolves where an uploaded file lives on disk.
type Paths interface {
	DocumentPath(docID, filename string) string
}

// Config configures a Service.
type Config struct {
	Store      Store
	Dispatcher Dispatcher
	Paths      Paths
	// Defaults fill knowledge base chunking values left at zero.
	Defaults types.ChunkingConfig
	Logger   *slog.Logger
}

// Service implements document operations. Every mutation of a single
// document is serialized by a per-document lock.
type Service struct {
	store      Store
	dispatcher Dispatcher
	paths      Paths
	defaults   types.ChunkingConfig
	logger     *slog.Logger
	locks      *keyedMutex
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Paths == nil {
		return nil, fmt.Errorf("paths are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaults := cfg.Defaults
	if defaults.ChunkSize <= 0 {
		defaults.ChunkSize = types.DefaultChunkSize
	}
	if defaults.Overlap <= 0 {
		defaults.Overlap = types.DefaultOverlap
	}
	return &Service{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		paths:      cfg.Paths,
		defaults:   defaults,
		logger:     logger.With("component", "documents"),
		locks:      newKeyedMutex(),
	}, nil
}

// mapStoreErr translates storage errors into service errors.
func mapStoreErr(err error, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

// withDefaults fills zero chunking values of kb from the service defaults.
func (s *Service) withDefaults(kb *types.KnowledgeBase) *types.KnowledgeBase {
	out := types.KnowledgeBase{ChunkSize: s.defaults.ChunkSize, Overlap: s.defaults.Overlap}
	if kb != nil {
		out = *kb
		if out.ChunkSize <= 0 {
			out.ChunkSize = s.defaults.ChunkSize
		}
		if out.Overlap <= 0 {
			out.Overlap = s.defaults.Overlap
		}
	}
	return &out
}

// knowledgeBaseFor returns the owning knowledge base, or nil if it has
// gone missing. Chunking then falls back to the service defaults.
func (s *Service) knowledgeBaseFor(ctx context.Context, doc *types.Document) (*types.KnowledgeBase, error) {
	kb, err := s.store.GetKnowledgeBase(ctx, doc.KBID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.withDefaults(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base %s: %w", doc.KBID, err)
	}
	return s.withDefaults(kb), nil
}

func (s *Service) view(ctx context.Context, doc *types.Document) (*types.DocumentView, error) {
	kb, err := s.knowledgeBaseFor(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &types.DocumentView{
		Document:          *doc,
		EffectiveConfig:   reprocess.Effective(doc, kb),
		NeedsConfirmation: reprocess.NeedsConfirmation(doc, kb),
	}, nil
}

// GetDocument returns the document with its derived fields.
func (s *Service) GetDocument(ctx context.Context, id string) (*types.DocumentView, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "document", id)
	}
	return s.view(ctx, doc)
}

// ListDocuments returns the documents of a knowledge base.
func (s *Service) ListDocuments(ctx context.Context, kbID string) ([]*types.DocumentView, error) {
	if _, err := s.store.GetKnowledgeBase(ctx, kbID); err != nil {
		return nil, mapStoreErr(err, "knowledge base", kbID)
	}
	docs, err := s.store.ListDocuments(ctx, kbID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	views := make([]*types.DocumentView, 0, len(docs))
	for _, doc := range docs {
		v, err := s.view(ctx, doc)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// CreateDocument registers an uploaded file. The file must already be
// stored at Paths.DocumentPath(doc.ID, doc.Filename).
func (s *Service) CreateDocument(ctx context.Context, doc *types.Document) (*types.Document, error) {
	if doc.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalid)
	}
	if _, err := s.store.GetKnowledgeBase(ctx, doc.KBID); err != nil {
		return nil, mapStoreErr(err, "knowledge base", doc.KBID)
	}
	if doc.ParsingConfig != nil {
		if err := validateOverride(doc.ParsingConfig); err != nil {
			return nil, err
		}
	}

	created := *doc
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.Status = types.StatusNotStarted
	created.ParseOffset = 0
	created.ChunkCount = 0
	created.LastParsedConfig = nil
	created.RunConfig = nil
	created.Run = 0
	created.FailReason = ""
	if created.UploadTime.IsZero() {
		created.UploadTime = time.Now().UTC()
	}

	if err := s.store.CreateDocument(ctx, &created); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: document %s already exists", ErrConflict, created.ID)
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	s.logger.Info("document created", "document_id", created.ID, "kb_id", created.KBID, "filename", created.Filename)
	return &created, nil
}

// DeleteDocument cancels any run and removes the document, its chunks and
// its stored file.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return mapStoreErr(err, "document", id)
	}
	s.dispatcher.Cancel(id)

	if _, err := s.store.DeleteChunksFrom(ctx, id, 0); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	dir := filepath.Dir(s.paths.DocumentPath(doc.ID, doc.Filename))
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove document file", "document_id", id, "path", dir, "error", err)
	}
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

// FilePath returns the on-disk path of the document's uploaded file.
func (s *Service) FilePath(ctx context.Context, id string) (string, *types.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return "", nil, mapStoreErr(err, "document", id)
	}
	path := s.paths.DocumentPath(doc.ID, doc.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", doc, fmt.Errorf("%w: file for document %s", ErrNotFound, id)
	}
	return path, doc, nil
}

// Recover marks runs left pending or processing by a previous server
// process as cancelled. Returns the number of documents recovered.
func (s *Service) Recover(ctx context.Context) (int, error) {
	docs, err := s.store.ListDocumentsByStatus(ctx, types.StatusPending, types.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to list interrupted documents: %w", err)
	}
	n := 0
	for _, doc := range docs {
		_, err := s.store.UpdateDocument(ctx, doc.ID, func(d *types.Document) error {
			t, err := lifecycle.Apply(d.Status, lifecycle.CommandCancel)
			if err != nil {
				return err
			}
			d.Status = t.To
			d.FailReason = RecoveredReason
			return nil
		})
		if err != nil {
			s.logger.Warn("failed to recover document", "document_id", doc.ID, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		s.logger.Info("recovered interrupted documents", "count", n)
	}
	return n, nil
}

// validateOverride checks the fields a document override sets.
func validateOverride(pc *types.ParsingConfig) error {
	if pc.ChunkSize != nil && *pc.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalid)
	}
	if pc.Overlap != nil && *pc.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative", ErrInvalid)
	}
	if pc.ChunkSize != nil && pc.Overlap != nil && *pc.Overlap >= *pc.ChunkSize {
		return fmt.Errorf("%w: overlap must be smaller than chunk_size", ErrInvalid)
	}
	return nil
}

// validateEffective checks a resolved config with the worker's rules.
func validateEffective(cfg types.ChunkingConfig) error {
	if err := jobs.ValidateChunking(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
