// Package jobs runs document parse runs: extract text, split it into
// chunks and write them while reporting progress.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/kbase/internal/types"
)

// errStopped ends a run quietly when the receiver no longer accepts its
// reports (the run was terminated or superseded).
var errStopped = errors.New("run stopped")

// execute performs a single run. It must tolerate being resumed at any
// offset: chunks at or beyond the start are discarded before writing.
func (p *Pool) execute(t *task) {
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	defer p.finish(t)

	run := t.run
	ctx := t.ctx
	logger := p.logger.With("document_id", run.DocumentID, "run", run.Run)

	err := p.parse(ctx, t)
	switch {
	case err == nil:
		p.completed.Add(1)
		logger.Info("run completed")
	case errors.Is(err, errStopped), ctx.Err() != nil:
		logger.Info("run stopped", "reason", err)
	default:
		logger.Error("run failed", "error", err)
		if rerr := p.report(ctx, run, types.ProgressReport{
			Status:     types.StatusFailed,
			FailReason: err.Error(),
		}); rerr != nil {
			logger.Warn("failed to report failure", "error", rerr)
		}
	}
}

func (p *Pool) parse(ctx context.Context, t *task) error {
	run := t.run

	removed, err := p.chunks.DeleteChunksFrom(ctx, run.DocumentID, run.Start)
	if err != nil {
		return fmt.Errorf("failed to discard stale chunks: %w", err)
	}
	if removed > 0 {
		p.logger.Debug("discarded stale chunks", "document_id", run.DocumentID, "from", run.Start, "count", removed)
	}

	text, err := Extract(ctx, run.Path, run.Filetype)
	if err != nil {
		return err
	}

	pieces, err := Split(text, run.Config)
	if err != nil {
		return err
	}
	total := len(pieces)
	start := min(run.Start, total)

	if err := p.report(ctx, run, types.ProgressReport{
		Status:      types.StatusProcessing,
		ParseOffset: start,
		ChunkCount:  total,
	}); err != nil {
		return fmt.Errorf("%w: %v", errStopped, err)
	}

	for i := start; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeChunk(ctx, run.DocumentID, i, pieces[i]); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
		if err := p.report(ctx, run, types.ProgressReport{
			Status:      types.StatusProcessing,
			ParseOffset: i + 1,
			ChunkCount:  total,
		}); err != nil {
			return fmt.Errorf("%w: %v", errStopped, err)
		}
	}

	config := run.Config
	if err := p.report(ctx, run, types.ProgressReport{
		Status:      types.StatusProcessed,
		ParseOffset: total,
		ChunkCount:  total,
		Config:      &config,
	}); err != nil {
		return fmt.Errorf("%w: %v", errStopped, err)
	}
	return nil
}

func (p *Pool) writeChunk(ctx context.Context, docID string, chunkID int, text string) error {
	return retry.Do(
		func() error {
			return p.chunks.PutChunk(ctx, docID, chunkID, text)
		},
		retry.Context(ctx),
		retry.Attempts(p.writeRetries),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// report delivers a progress report. Reports outlive the run's
// cancellation so a final failure can still be recorded.
func (p *Pool) report(ctx context.Context, run types.ParseRun, r types.ProgressReport) error {
	p.mu.Lock()
	reporter := p.reporter
	p.mu.Unlock()
	if reporter == nil {
		return nil
	}
	r.Run = run.Run
	return reporter.ReportProgress(context.WithoutCancel(ctx), run.DocumentID, r)
}
