package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/storage/badger"
	"github.com/jackzampolin/kbase/internal/types"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	runs      []types.ParseRun
	cancelled []string
	err       error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, run types.ParseRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeDispatcher) Cancel(docID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, docID)
	return true
}

func (f *fakeDispatcher) lastRun(t *testing.T) types.ParseRun {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.runs)
	return f.runs[len(f.runs)-1]
}

type dirPaths string

func (d dirPaths) DocumentPath(docID, filename string) string {
	return filepath.Join(string(d), docID, filename)
}

type fixture struct {
	svc        *Service
	store      *badger.Backend
	dispatcher *fakeDispatcher
	dir        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := badger.NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	dispatcher := &fakeDispatcher{}
	svc, err := New(Config{Store: store, Dispatcher: dispatcher, Paths: dirPaths(dir)})
	require.NoError(t, err)

	require.NoError(t, store.CreateKnowledgeBase(context.Background(), &types.KnowledgeBase{
		ID: "kb1", Name: "kb", ChunkSize: 500, Overlap: 50, CreatedAt: time.Now(),
	}))
	return &fixture{svc: svc, store: store, dispatcher: dispatcher, dir: dir}
}

func (f *fixture) seed(t *testing.T, doc types.Document) {
	t.Helper()
	if doc.KBID == "" {
		doc.KBID = "kb1"
	}
	if doc.Filename == "" {
		doc.Filename = "doc.txt"
		doc.Filetype = "txt"
	}
	require.NoError(t, f.store.CreateDocument(context.Background(), &doc))
}

func (f *fixture) get(t *testing.T, id string) *types.Document {
	t.Helper()
	doc, err := f.store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, doc.ParseOffset, 0)
	assert.LessOrEqual(t, doc.ParseOffset, doc.ChunkCount)
	return doc
}

func (f *fixture) writeFile(t *testing.T, id, filename, content string) {
	t.Helper()
	path := dirPaths(f.dir).DocumentPath(id, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func intp(v int) *int { return &v }

var kbConfig = types.ChunkingConfig{ChunkSize: 500, Overlap: 50}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("new document starts at zero", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, types.Document{ID: "d1", Status: types.StatusNotStarted})

		doc, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, types.StatusPending, doc.Status)
		assert.Equal(t, int64(1), doc.Run)
		require.NotNil(t, doc.RunConfig)
		assert.Equal(t, kbConfig, *doc.RunConfig)

		run := f.dispatcher.lastRun(t)
		assert.Equal(t, 0, run.Start)
		assert.Equal(t, int64(1), run.Run)
		assert.Equal(t, filepath.Join(f.dir, "d1", "doc.txt"), run.Path)
	})

	t.Run("twice signals once", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, types.Document{ID: "d1", Status: types.StatusFailed, FailReason: "boom"})

		_, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		doc, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, types.StatusPending, doc.Status)
		assert.Empty(t, doc.FailReason)
		assert.Len(t, f.dispatcher.runs, 1)
	})

	t.Run("concurrent calls signal once", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, types.Document{ID: "d1", Status: types.StatusNotStarted})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = f.svc.Process(ctx, "d1")
			}()
		}
		wg.Wait()
		assert.Len(t, f.dispatcher.runs, 1)
	})

	t.Run("dispatch failure persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, types.Document{ID: "d1", Status: types.StatusProcessed, ParseOffset: 8, ChunkCount: 8, Run: 3})
		f.dispatcher.err = errors.New("queue full")

		_, err := f.svc.Process(ctx, "d1")
		assert.ErrorIs(t, err, ErrUnavailable)

		doc := f.get(t, "d1")
		assert.Equal(t, types.StatusProcessed, doc.Status)
		assert.Equal(t, int64(3), doc.Run)
		assert.Equal(t, 8, doc.ParseOffset)
	})

	t.Run("paused resumes from offset", func(t *testing.T) {
		f := newFixture(t)
		cfg := kbConfig
		f.seed(t, types.Document{ID: "d1", Status: types.StatusPaused, ParseOffset: 4, ChunkCount: 10, Run: 1, RunConfig: &cfg})

		doc, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, types.StatusPending, doc.Status)
		assert.Equal(t, 4, doc.ParseOffset)
		assert.Equal(t, 4, f.dispatcher.lastRun(t).Start)
		assert.Equal(t, int64(2), f.dispatcher.lastRun(t).Run)
	})

	t.Run("changed config restarts from zero", func(t *testing.T) {
		f := newFixture(t)
		cfg := types.ChunkingConfig{ChunkSize: 200, Overlap: 20}
		f.seed(t, types.Document{ID: "d1", Status: types.StatusPaused, ParseOffset: 4, ChunkCount: 10, RunConfig: &cfg})

		doc, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.ParseOffset)
		assert.Equal(t, 0, f.dispatcher.lastRun(t).Start)
	})

	t.Run("completed run restarts from zero", func(t *testing.T) {
		f := newFixture(t)
		cfg := kbConfig
		f.seed(t, types.Document{ID: "d1", Status: types.StatusCancelled, ParseOffset: 10, ChunkCount: 10, RunConfig: &cfg})

		_, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, 0, f.dispatcher.lastRun(t).Start)
	})

	t.Run("document override applies field-wise", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, types.Document{ID: "d1", Status: types.StatusNotStarted, ParsingConfig: &types.ParsingConfig{ChunkSize: intp(120)}})

		_, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, types.ChunkingConfig{ChunkSize: 120, Overlap: 50}, f.dispatcher.lastRun(t).Config)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Process(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTerminate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "d1", Status: types.StatusProcessing, ParseOffset: 3, ChunkCount: 10, Run: 1})
	f.seed(t, types.Document{ID: "d2", Status: types.StatusProcessed, ParseOffset: 5, ChunkCount: 5})

	doc, err := f.svc.Terminate(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPaused, doc.Status)
	assert.Equal(t, 3, doc.ParseOffset)
	assert.Equal(t, []string{"d1"}, f.dispatcher.cancelled)

	doc, err = f.svc.Terminate(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessed, doc.Status)
	assert.Len(t, f.dispatcher.cancelled, 1)

	// Late report from the terminated run is refused.
	err = f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 1, Status: types.StatusProcessing, ParseOffset: 4, ChunkCount: 10})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Equal(t, 3, f.get(t, "d1").ParseOffset)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "paused", Status: types.StatusPaused, ParseOffset: 5, ChunkCount: 9})
	f.seed(t, types.Document{ID: "running", Status: types.StatusProcessing, ParseOffset: 2, ChunkCount: 9})

	tests := []struct {
		name    string
		id      string
		update  Update
		wantErr error
	}{
		{"empty", "paused", Update{}, ErrInvalid},
		{"offset above chunk count", "paused", Update{ParseOffset: intp(10)}, ErrInvalid},
		{"negative offset", "paused", Update{ParseOffset: intp(-1)}, ErrInvalid},
		{"offset while running", "running", Update{ParseOffset: intp(0)}, ErrConflict},
		{"overlap not below chunk size", "paused", Update{ParsingConfig: &types.ParsingConfig{ChunkSize: intp(40)}}, ErrInvalid},
		{"zero chunk size", "paused", Update{ParsingConfig: &types.ParsingConfig{ChunkSize: intp(0)}}, ErrInvalid},
		{"missing", "nope", Update{ParseOffset: intp(0)}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.id, tt.update)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 5, f.get(t, "paused").ParseOffset)
	assert.Nil(t, f.get(t, "paused").ParsingConfig)

	t.Run("config while running is allowed", func(t *testing.T) {
		doc, err := f.svc.Update(ctx, "running", Update{ParsingConfig: &types.ParsingConfig{Overlap: intp(10)}})
		require.NoError(t, err)
		require.NotNil(t, doc.ParsingConfig)
		assert.Equal(t, 10, *doc.ParsingConfig.Overlap)
		assert.Nil(t, doc.ParsingConfig.ChunkSize)
	})

	t.Run("empty override clears it", func(t *testing.T) {
		doc, err := f.svc.Update(ctx, "running", Update{ParsingConfig: &types.ParsingConfig{}})
		require.NoError(t, err)
		assert.Nil(t, doc.ParsingConfig)
	})

	t.Run("reset progress", func(t *testing.T) {
		doc, err := f.svc.ResetProgress(ctx, "paused")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.ParseOffset)
		assert.Equal(t, types.StatusPaused, doc.Status)
	})
}

func TestReportProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "d1", Status: types.StatusNotStarted})

	_, err := f.svc.Process(ctx, "d1")
	require.NoError(t, err)

	t.Run("stale run is dropped", func(t *testing.T) {
		err := f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 7, Status: types.StatusProcessing, ChunkCount: 3})
		assert.ErrorIs(t, err, ErrStaleRun)
		assert.Equal(t, types.StatusPending, f.get(t, "d1").Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		err := f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 1, Status: types.StatusPaused})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("processing clamps the offset", func(t *testing.T) {
		require.NoError(t, f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 1, Status: types.StatusProcessing, ParseOffset: 12, ChunkCount: 6}))
		doc := f.get(t, "d1")
		assert.Equal(t, types.StatusProcessing, doc.Status)
		assert.Equal(t, 6, doc.ChunkCount)
		assert.Equal(t, 6, doc.ParseOffset)

		view, err := f.svc.GetDocument(ctx, "d1")
		require.NoError(t, err)
		assert.False(t, view.NeedsConfirmation)
	})

	t.Run("processed records the config", func(t *testing.T) {
		cfg := kbConfig
		require.NoError(t, f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 1, Status: types.StatusProcessed, ParseOffset: 6, ChunkCount: 6, Config: &cfg}))
		doc := f.get(t, "d1")
		assert.Equal(t, types.StatusProcessed, doc.Status)
		require.NotNil(t, doc.LastParsedConfig)
		assert.Equal(t, kbConfig, *doc.LastParsedConfig)

		view, err := f.svc.GetDocument(ctx, "d1")
		require.NoError(t, err)
		assert.True(t, view.NeedsConfirmation)
		assert.Equal(t, kbConfig, view.EffectiveConfig)
	})

	t.Run("changing the knowledge base lifts confirmation", func(t *testing.T) {
		_, err := f.svc.UpdateKnowledgeBase(ctx, "kb1", KnowledgeBaseUpdate{ChunkSize: intp(800)})
		require.NoError(t, err)
		view, err := f.svc.GetDocument(ctx, "d1")
		require.NoError(t, err)
		assert.False(t, view.NeedsConfirmation)
	})

	t.Run("failure sets the reason", func(t *testing.T) {
		_, err := f.svc.Process(ctx, "d1")
		require.NoError(t, err)
		require.NoError(t, f.svc.ReportProgress(ctx, "d1", types.ProgressReport{Run: 2, Status: types.StatusFailed, FailReason: "bad pdf"}))
		doc := f.get(t, "d1")
		assert.Equal(t, types.StatusFailed, doc.Status)
		assert.Equal(t, "bad pdf", doc.FailReason)
	})
}

func TestRecover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "d1", Status: types.StatusPending})
	f.seed(t, types.Document{ID: "d2", Status: types.StatusProcessing, ParseOffset: 2, ChunkCount: 4})
	f.seed(t, types.Document{ID: "d3", Status: types.StatusPaused})

	n, err := f.svc.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"d1", "d2"} {
		doc := f.get(t, id)
		assert.Equal(t, types.StatusCancelled, doc.Status)
		assert.Equal(t, RecoveredReason, doc.FailReason)
	}
	assert.Equal(t, types.StatusPaused, f.get(t, "d3").Status)
}

func TestListChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "d1", Status: types.StatusProcessing, ParseOffset: 4, ChunkCount: 5})
	texts := []string{"one line", "a\nb\nc", "a\nb\nc\nd\ne", "héllo", "x"}
	for i, text := range texts {
		require.NoError(t, f.store.PutChunk(ctx, "d1", i, text))
	}
	// Left behind by an older, longer run.
	require.NoError(t, f.store.PutChunk(ctx, "d1", 5, "stale"))

	t.Run("first page", func(t *testing.T) {
		page, err := f.svc.ListChunks(ctx, "d1", types.ChunkQuery{Page: 1, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		require.Len(t, page.Items, 3)

		assert.False(t, page.Items[1].Truncated)
		assert.Equal(t, 3, page.Items[1].TotalLines)

		long := page.Items[2]
		assert.True(t, long.Truncated)
		assert.Equal(t, "a\nb\nc", long.Text)
		assert.Equal(t, 5, long.TotalLines)
		assert.Equal(t, 9, long.Length)
	})

	t.Run("last page drops chunks past chunk count", func(t *testing.T) {
		page, err := f.svc.ListChunks(ctx, "d1", types.ChunkQuery{Page: 2, Limit: 3})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 3, page.Items[0].ChunkID)
		assert.Equal(t, 5, page.Items[0].Length)
	})

	t.Run("full text needs a single chunk page", func(t *testing.T) {
		page, err := f.svc.ListChunks(ctx, "d1", types.ChunkQuery{Page: 3, Limit: 1, FullText: true})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.False(t, page.Items[0].Truncated)
		assert.Equal(t, texts[2], page.Items[0].Text)

		page, err = f.svc.ListChunks(ctx, "d1", types.ChunkQuery{Page: 1, Limit: 3, FullText: true})
		require.NoError(t, err)
		assert.True(t, page.Items[2].Truncated)
	})

	t.Run("past the end is empty", func(t *testing.T) {
		page, err := f.svc.ListChunks(ctx, "d1", types.ChunkQuery{Page: 7, Limit: 1, FullText: true})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("invalid queries", func(t *testing.T) {
		for _, q := range []types.ChunkQuery{{Page: 0, Limit: 10}, {Page: 1, Limit: 0}, {Page: 1, Limit: 101}} {
			_, err := f.svc.ListChunks(ctx, "d1", q)
			assert.ErrorIs(t, err, ErrInvalid)
		}
		_, err := f.svc.ListChunks(ctx, "nope", types.ChunkQuery{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "small", Filename: "a.txt", Filetype: "txt"})
	f.writeFile(t, "small", "a.txt", "one\ntwo\nthree\n")

	p, err := f.svc.Preview(ctx, "small", 1)
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", p.Content)
	assert.Equal(t, 2, p.Lines)
	assert.False(t, p.HasMore)
	assert.Nil(t, p.NextOffset)

	f.seed(t, types.Document{ID: "big", Filename: "b.txt", Filetype: "txt"})
	f.writeFile(t, "big", "b.txt", strings.Repeat("line\n", PreviewMaxLines+2))

	p, err = f.svc.Preview(ctx, "big", 0)
	require.NoError(t, err)
	assert.Equal(t, PreviewMaxLines, p.Lines)
	assert.True(t, p.HasMore)
	require.NotNil(t, p.NextOffset)
	assert.Equal(t, PreviewMaxLines, *p.NextOffset)

	f.seed(t, types.Document{ID: "gone", Filename: "c.txt", Filetype: "txt"})
	_, err = f.svc.Preview(ctx, "gone", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAndDeleteDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateDocument(ctx, &types.Document{KBID: "missing", Filename: "a.txt"})
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := f.svc.CreateDocument(ctx, &types.Document{KBID: "kb1", Filename: "a.txt", Filetype: "txt", Status: types.StatusProcessed, ParseOffset: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, types.StatusNotStarted, doc.Status)
	assert.Zero(t, doc.ParseOffset)

	f.writeFile(t, doc.ID, "a.txt", "content")
	require.NoError(t, f.store.PutChunk(ctx, doc.ID, 0, "content"))

	list, err := f.svc.ListDocuments(ctx, "kb1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.DeleteDocument(ctx, doc.ID))
	_, err = f.svc.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := f.store.CountChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = os.Stat(filepath.Join(f.dir, doc.ID))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, f.dispatcher.cancelled, doc.ID)
}

func TestKnowledgeBases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateKnowledgeBase(ctx, &types.KnowledgeBase{Name: " "})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.svc.CreateKnowledgeBase(ctx, &types.KnowledgeBase{Name: "x", ChunkSize: 100, Overlap: 100})
	assert.ErrorIs(t, err, ErrInvalid)

	kb, err := f.svc.CreateKnowledgeBase(ctx, &types.KnowledgeBase{Name: "papers", AutoProcessOnUpload: true})
	require.NoError(t, err)
	assert.NotEmpty(t, kb.ID)
	assert.False(t, kb.CreatedAt.IsZero())

	name := "renamed"
	kb, err = f.svc.UpdateKnowledgeBase(ctx, kb.ID, KnowledgeBaseUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", kb.Name)
	assert.True(t, kb.AutoProcessOnUpload)

	kbs, err := f.svc.ListKnowledgeBases(ctx)
	require.NoError(t, err)
	assert.Len(t, kbs, 2)

	_, err = f.svc.GetKnowledgeBase(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, types.Document{ID: "d1", Status: types.StatusProcessed})

	err := f.svc.DeleteKnowledgeBase(ctx, "kb1")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.svc.GetKnowledgeBase(ctx, "kb1")
	require.NoError(t, err, "a refused delete must keep the knowledge base")

	require.NoError(t, f.svc.DeleteDocument(ctx, "d1"))
	require.NoError(t, f.svc.DeleteKnowledgeBase(ctx, "kb1"))

	_, err = f.svc.GetKnowledgeBase(ctx, "kb1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteKnowledgeBase(ctx, "kb1"), ErrNotFound)
}
