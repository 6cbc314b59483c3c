package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/kbase/internal/types"
)

var (
	// ErrCommandInFlight is returned when another command for the same
	// document has not finished yet.
	ErrCommandInFlight = errors.New("command already in flight")

	// ErrConfirmationRequired is returned by Process when the document was
	// already processed with the config a new run would use.
	ErrConfirmationRequired = errors.New("reprocessing requires confirmation")
)

// Backend is the remote service the controller drives. Every method returns
// the document as persisted by the server after the call.
type Backend interface {
	GetDocumentView(ctx context.Context, id string) (*types.DocumentView, error)
	Process(ctx context.Context, id string) (*types.Document, error)
	Terminate(ctx context.Context, id string) (*types.Document, error)
	ResetProgress(ctx context.Context, id string) (*types.Document, error)
}

// Controller issues lifecycle commands against a Backend. It never retries
// and never changes document state locally; callers get back whatever the
// server acknowledged.
type Controller struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[string]Command
}

// NewController creates a controller over backend.
func NewController(backend Backend, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend:  backend,
		logger:   logger,
		inFlight: make(map[string]Command),
	}
}

// InFlight reports whether a command is running for the document.
func (c *Controller) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id]
	return ok
}

func (c *Controller) acquire(id string, cmd Command) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if running, ok := c.inFlight[id]; ok {
		return nil, fmt.Errorf("%w: %s on document %s", ErrCommandInFlight, running, id)
	}
	c.inFlight[id] = cmd
	return func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
	}, nil
}

// current re-reads the document and validates cmd against its status.
func (c *Controller) current(ctx context.Context, id string, cmd Command) (*types.DocumentView, Transition, error) {
	view, err := c.backend.GetDocumentView(ctx, id)
	if err != nil {
		return nil, Transition{}, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	t, err := Apply(view.Status, cmd)
	return view, t, err
}

func documentOf(view *types.DocumentView) *types.Document {
	if view == nil {
		return nil
	}
	return &view.Document
}

// ProcessOption adjusts a Process call.
type ProcessOption func(*processOptions)

type processOptions struct {
	confirmed bool
}

// Confirmed lets Process rerun a document whose last completed run used
// the same chunking config.
func Confirmed() ProcessOption {
	return func(o *processOptions) { o.confirmed = true }
}

// Process starts a run. A document that is already pending or processing
// is returned unchanged without signalling the server. A paused document
// is resumed, so Process alone can be retried after a restart whose start
// failed. Rerunning a processed document with an unchanged config returns
// ErrConfirmationRequired unless Confirmed is passed.
func (c *Controller) Process(ctx context.Context, id string, opts ...ProcessOption) (*types.Document, error) {
	var o processOptions
	for _, opt := range opts {
		opt(&o)
	}

	release, err := c.acquire(id, CommandProcess)
	if err != nil {
		return nil, err
	}
	defer release()

	view, err := c.backend.GetDocumentView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	cmd := CommandProcess
	if view.Status == types.StatusPaused {
		cmd = CommandResume
	}
	t, err := Apply(view.Status, cmd)
	if err != nil {
		return documentOf(view), err
	}
	if t.Noop {
		c.logger.Debug("process ignored, run already active", "document_id", id, "status", view.Status)
		return documentOf(view), nil
	}
	if view.NeedsConfirmation && !o.confirmed {
		cfg := view.EffectiveConfig
		return documentOf(view), fmt.Errorf("%w: document %s was already processed with chunk_size=%d overlap=%d",
			ErrConfirmationRequired, id, cfg.ChunkSize, cfg.Overlap)
	}
	return c.backend.Process(ctx, id)
}

// Terminate pauses a running document. Documents that are not running are
// returned unchanged.
func (c *Controller) Terminate(ctx context.Context, id string) (*types.Document, error) {
	release, err := c.acquire(id, CommandTerminate)
	if err != nil {
		return nil, err
	}
	defer release()

	view, t, err := c.current(ctx, id, CommandTerminate)
	if err != nil {
		return documentOf(view), err
	}
	if t.Noop {
		return documentOf(view), nil
	}
	return c.backend.Terminate(ctx, id)
}

// Resume continues a paused document from its current parse offset.
func (c *Controller) Resume(ctx context.Context, id string) (*types.Document, error) {
	release, err := c.acquire(id, CommandResume)
	if err != nil {
		return nil, err
	}
	defer release()

	view, _, err := c.current(ctx, id, CommandResume)
	if err != nil {
		return documentOf(view), err
	}
	return c.backend.Process(ctx, id)
}

// Restart resets a paused document's parse offset to zero and then starts
// a run. If the reset fails no run is started. If the reset succeeds but
// starting fails, the offset stays at zero and Process alone can be retried.
func (c *Controller) Restart(ctx context.Context, id string) (*types.Document, error) {
	release, err := c.acquire(id, CommandRestart)
	if err != nil {
		return nil, err
	}
	defer release()

	view, _, err := c.current(ctx, id, CommandRestart)
	if err != nil {
		return documentOf(view), err
	}

	reset, err := c.backend.ResetProgress(ctx, id)
	if err != nil {
		return documentOf(view), fmt.Errorf("failed to reset progress: %w", err)
	}
	c.logger.Info("progress reset", "document_id", id)

	started, err := c.backend.Process(ctx, id)
	if err != nil {
		return reset, fmt.Errorf("progress reset but process failed: %w", err)
	}
	return started, nil
}
