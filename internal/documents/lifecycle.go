package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/reprocess"
	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

// Update is a partial document update. Nil fields are left unchanged.
type Update struct {
	// ParsingConfig replaces the document override. An override with both
	// fields unset clears it.
	ParsingConfig *types.ParsingConfig `json:"parsing_config,omitempty"`
	ParseOffset   *int                 `json:"parse_offset,omitempty"`
}

// startOffset picks where a new run begins. A run resumes at parse_offset
// unless there is nothing valid to resume: the document never ran, the last
// run completed, or the chunking config changed since the offset was
// recorded.
func startOffset(doc *types.Document, cfg types.ChunkingConfig) int {
	switch {
	case doc.Status == types.StatusNotStarted,
		doc.Status == types.StatusProcessed,
		doc.ChunkCount > 0 && doc.ParseOffset >= doc.ChunkCount,
		doc.RunConfig == nil || *doc.RunConfig != cfg:
		return 0
	}
	return doc.ParseOffset
}

// Process starts or resumes a run. A document that is already pending or
// processing is returned unchanged. The run is dispatched before anything
// is persisted; if the worker refuses it the document is left untouched
// and ErrUnavailable is returned.
func (s *Service) Process(ctx context.Context, id string) (*types.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "document", id)
	}

	cmd := lifecycle.CommandProcess
	if doc.Status == types.StatusPaused {
		cmd = lifecycle.CommandResume
	}
	t, err := lifecycle.Apply(doc.Status, cmd)
	if err != nil {
		return doc, err
	}
	if t.Noop {
		s.logger.Debug("process ignored, run already active", "document_id", id, "status", doc.Status)
		return doc, nil
	}

	kb, err := s.knowledgeBaseFor(ctx, doc)
	if err != nil {
		return nil, err
	}
	cfg := reprocess.Effective(doc, kb)
	if err := validateEffective(cfg); err != nil {
		return doc, err
	}

	run := types.ParseRun{
		DocumentID: doc.ID,
		Run:        doc.Run + 1,
		Start:      startOffset(doc, cfg),
		Config:     cfg,
		Path:       s.paths.DocumentPath(doc.ID, doc.Filename),
		Filetype:   doc.Filetype,
	}
	if err := s.dispatcher.Dispatch(ctx, run); err != nil {
		s.logger.Warn("dispatch failed", "document_id", id, "error", err)
		return doc, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	updated, err := s.store.UpdateDocument(ctx, id, func(d *types.Document) error {
		d.Status = t.To
		d.Run = run.Run
		d.RunConfig = &cfg
		d.ParseOffset = min(run.Start, d.ChunkCount)
		d.FailReason = ""
		return nil
	})
	if err != nil {
		s.dispatcher.Cancel(id)
		return nil, fmt.Errorf("failed to record dispatch: %w", err)
	}

	s.logger.Info("run dispatched", "document_id", id, "run", run.Run, "start", run.Start,
		"chunk_size", cfg.ChunkSize, "overlap", cfg.Overlap)
	return updated, nil
}

// Terminate pauses a running document and cancels its run. The parse
// offset is kept so the run can be resumed. Terminating a document that is
// not running is a no-op.
func (s *Service) Terminate(ctx context.Context, id string) (*types.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "document", id)
	}
	t, err := lifecycle.Apply(doc.Status, lifecycle.CommandTerminate)
	if err != nil {
		return doc, err
	}
	if t.Noop {
		return doc, nil
	}

	s.dispatcher.Cancel(id)
	updated, err := s.store.UpdateDocument(ctx, id, func(d *types.Document) error {
		d.Status = t.To
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pause document: %w", err)
	}
	s.logger.Info("run terminated", "document_id", id, "run", doc.Run, "parse_offset", updated.ParseOffset)
	return updated, nil
}

// Update applies a partial update. A parse offset may only be set while no
// run is active and must lie within the known chunk count.
func (s *Service) Update(ctx context.Context, id string, u Update) (*types.Document, error) {
	if u.ParsingConfig == nil && u.ParseOffset == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if u.ParsingConfig != nil {
		if err := validateOverride(u.ParsingConfig); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "document", id)
	}
	kb, err := s.knowledgeBaseFor(ctx, doc)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateDocument(ctx, id, func(d *types.Document) error {
		if u.ParsingConfig != nil {
			if u.ParsingConfig.ChunkSize == nil && u.ParsingConfig.Overlap == nil {
				d.ParsingConfig = nil
			} else {
				pc := *u.ParsingConfig
				d.ParsingConfig = &pc
			}
			if err := validateEffective(reprocess.Effective(d, kb)); err != nil {
				return err
			}
		}
		if u.ParseOffset != nil {
			offset := *u.ParseOffset
			if d.Status.Running() {
				return fmt.Errorf("%w: cannot set parse_offset while %s", ErrConflict, d.Status)
			}
			if offset < 0 || offset > d.ChunkCount {
				return fmt.Errorf("%w: parse_offset must be between 0 and %d", ErrInvalid, d.ChunkCount)
			}
			d.ParseOffset = offset
		}
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, mapStoreErr(err, "document", id)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("document updated", "document_id", id, "parse_offset", updated.ParseOffset)
	return updated, nil
}

// ResetProgress sets the parse offset back to zero.
func (s *Service) ResetProgress(ctx context.Context, id string) (*types.Document, error) {
	zero := 0
	return s.Update(ctx, id, Update{ParseOffset: &zero})
}

// ReportProgress applies a worker report. Reports for a run other than the
// document's current one return ErrStaleRun and change nothing. Reports the
// state machine rejects (the run was terminated) return
// lifecycle.ErrInvalidTransition; either error tells the worker to stop.
func (s *Service) ReportProgress(ctx context.Context, id string, r types.ProgressReport) error {
	cmd, err := lifecycle.CommandForReport(r.Status)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if r.ChunkCount < 0 {
		return fmt.Errorf("%w: chunk_count must not be negative", ErrInvalid)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	_, err = s.store.UpdateDocument(ctx, id, func(d *types.Document) error {
		if r.Run != d.Run {
			return fmt.Errorf("%w: report for run %d, current run %d", ErrStaleRun, r.Run, d.Run)
		}
		t, err := lifecycle.Apply(d.Status, cmd)
		if err != nil {
			return err
		}
		d.Status = t.To

		switch r.Status {
		case types.StatusProcessing:
			d.ChunkCount = r.ChunkCount
			d.ParseOffset = clamp(r.ParseOffset, d.ChunkCount)
		case types.StatusProcessed:
			d.ChunkCount = r.ChunkCount
			d.ParseOffset = d.ChunkCount
			d.FailReason = ""
			cfg := r.Config
			if cfg == nil {
				cfg = d.RunConfig
			}
			if cfg != nil {
				last := *cfg
				d.LastParsedConfig = &last
			}
		case types.StatusFailed, types.StatusCancelled:
			d.FailReason = r.FailReason
			if d.FailReason == "" {
				d.FailReason = "unknown error"
			}
			d.ParseOffset = clamp(d.ParseOffset, d.ChunkCount)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleRun) || errors.Is(err, lifecycle.ErrInvalidTransition) {
			s.logger.Debug("progress report rejected", "document_id", id, "run", r.Run, "status", r.Status, "reason", err)
			return err
		}
		return mapStoreErr(err, "document", id)
	}
	if r.Status != types.StatusProcessing {
		s.logger.Info("run finished", "document_id", id, "run", r.Run, "status", r.Status)
	}
	return nil
}

func clamp(v, upper int) int {
	return max(0, min(v, upper))
}
