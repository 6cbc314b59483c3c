package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

var (
	// ErrWorkerQueueFull is returned by Dispatch when the run queue is full.
	ErrWorkerQueueFull = errors.New("worker queue full")

	// ErrPoolClosed is returned by Dispatch after the pool has stopped.
	ErrPoolClosed = errors.New("worker pool closed")
)

// Reporter receives progress reports from running parse runs.
type Reporter interface {
	ReportProgress(ctx context.Context, docID string, report types.ProgressReport) error
}

// Pool runs parse runs on a bounded set of goroutines.
// Dispatched runs wait in a shared queue; a dispatcher loop hands them to
// an ants pool as workers free up.
type Pool struct {
	name         string
	logger       *slog.Logger
	size         int
	writeRetries uint

	chunks   storage.ChunkRepository
	reporter Reporter

	queue   chan *task
	workers *ants.Pool

	// Cancelled when the pool stops; parent of every run context.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	active  map[string]*task // by document ID
	closed  bool
	started bool

	inFlight  atomic.Int32
	completed atomic.Int64
}

type task struct {
	run    types.ParseRun
	ctx    context.Context
	cancel context.CancelFunc
}

// PoolConfig configures a new pool.
type PoolConfig struct {
	Name   string
	Logger *slog.Logger
	// Size is the number of concurrent runs (default: runtime.NumCPU()/2, min 1).
	Size int
	// QueueSize bounds runs waiting for a worker (default: 100).
	QueueSize int
	// WriteRetries is the number of attempts per chunk write (default: 3).
	WriteRetries uint
	Chunks       storage.ChunkRepository
	Reporter     Reporter
}

// NewPool creates a new pool. Call Start to begin processing.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Chunks == nil {
		return nil, fmt.Errorf("chunk repository is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "parse"
	}

	size := cfg.Size
	if size <= 0 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	retries := cfg.WriteRetries
	if retries == 0 {
		retries = 3
	}

	workers, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &Pool{
		name:         name,
		logger:       logger.With("pool", name, "workers", size),
		size:         size,
		writeRetries: retries,
		chunks:       cfg.Chunks,
		reporter:     cfg.Reporter,
		queue:        make(chan *task, queueSize),
		workers:      workers,
		baseCtx:      baseCtx,
		baseCancel:   baseCancel,
		active:       make(map[string]*task),
	}, nil
}

// SetReporter sets the progress receiver. Must be called before Start.
func (p *Pool) SetReporter(r Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporter = r
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Start hands queued runs to workers. Blocks until ctx is cancelled, then
// cancels every active run and waits briefly for workers to exit.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.logger.Info("pool starting")
	defer p.stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pool stopping")
			return
		case t := <-p.queue:
			if t.ctx.Err() != nil {
				p.logger.Debug("skipping cancelled run", "document_id", t.run.DocumentID, "run", t.run.Run)
				continue
			}
			// Blocks while every worker is busy.
			if err := p.workers.Submit(func() { p.execute(t) }); err != nil {
				p.logger.Error("failed to submit run", "document_id", t.run.DocumentID, "error", err)
				p.finish(t)
			}
		}
	}
}

func (p *Pool) stop() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.baseCancel()
	if err := p.workers.ReleaseTimeout(10 * time.Second); err != nil {
		p.logger.Warn("workers did not exit in time", "error", err)
	}
}

// Dispatch queues a run. A run already active for the same document is
// cancelled first. Dispatch never blocks; a full queue returns
// ErrWorkerQueueFull and leaves no trace of the run.
func (p *Pool) Dispatch(ctx context.Context, run types.ParseRun) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if prev, ok := p.active[run.DocumentID]; ok {
		prev.cancel()
		delete(p.active, run.DocumentID)
	}
	runCtx, cancel := context.WithCancel(p.baseCtx)
	t := &task{run: run, ctx: runCtx, cancel: cancel}
	p.active[run.DocumentID] = t
	p.mu.Unlock()

	select {
	case p.queue <- t:
		p.logger.Debug("run queued", "document_id", run.DocumentID, "run", run.Run, "start", run.Start, "queue_len", len(p.queue))
		return nil
	default:
		p.finish(t)
		p.logger.Warn("run queue full", "document_id", run.DocumentID)
		return fmt.Errorf("%w: %s", ErrWorkerQueueFull, p.name)
	}
}

// Cancel stops the active run for a document. Returns false if none was
// active.
func (p *Pool) Cancel(docID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.active[docID]
	if !ok {
		return false
	}
	t.cancel()
	delete(p.active, docID)
	p.logger.Info("run cancelled", "document_id", docID, "run", t.run.Run)
	return true
}

// Active reports whether a run is queued or executing for the document.
func (p *Pool) Active(docID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[docID]
	return ok
}

// finish releases the task's context and drops it from the active set if
// it has not been superseded.
func (p *Pool) finish(t *task) {
	t.cancel()
	p.mu.Lock()
	if cur, ok := p.active[t.run.DocumentID]; ok && cur == t {
		delete(p.active, t.run.DocumentID)
	}
	p.mu.Unlock()
}

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"`
	Running    int    `json:"running"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
	Completed  int64  `json:"completed"`
}

// Status returns current pool status.
func (p *Pool) Status() PoolStatus {
	return PoolStatus{
		Name:       p.name,
		Workers:    p.size,
		Running:    p.workers.Running(),
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
		Completed:  p.completed.Load(),
	}
}
