package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/types"
)

func pages(items ...any) []PageItem {
	var out []PageItem
	for _, it := range items {
		switch v := it.(type) {
		case int:
			out = append(out, PageItem{Page: v})
		case string:
			out = append(out, PageItem{Ellipsis: true})
		}
	}
	return out
}

func TestWindow(t *testing.T) {
	tests := []struct {
		page, total int
		want        []PageItem
	}{
		{5, 10, pages(1, "...", 3, 4, 5, 6, 7, "...", 10)},
		{1, 10, pages(1, 2, 3, "...", 10)},
		{4, 10, pages(1, 2, 3, 4, 5, 6, "...", 10)},
		{7, 10, pages(1, "...", 5, 6, 7, 8, 9, 10)},
		{8, 10, pages(1, "...", 6, 7, 8, 9, 10)},
		{10, 10, pages(1, "...", 8, 9, 10)},
		{2, 3, pages(1, 2, 3)},
		{1, 1, nil},
		{1, 0, nil},
		{40, 10, pages(1, "...", 8, 9, 10)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d of %d", tt.page, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, Window(tt.page, tt.total))
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

// fakeFetcher serves chunks from memory and records every query.
type fakeFetcher struct {
	mu      sync.Mutex
	chunks  []string
	queries []types.ChunkQuery
	calls   atomic.Int32
	gate    chan struct{}
	err     error
}

func (f *fakeFetcher) ListChunks(ctx context.Context, docID string, q types.ChunkQuery) (*types.ChunkPage, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	page := &types.ChunkPage{Total: len(f.chunks), Page: q.Page, Limit: q.Limit}
	for i := (q.Page - 1) * q.Limit; i < len(f.chunks) && i < q.Page*q.Limit; i++ {
		c := types.Chunk{ChunkID: i, Text: f.chunks[i]}
		if !(q.FullText && q.Limit == 1) {
			c.Text = "preview " + fmt.Sprint(i)
			c.Truncated = true
		}
		page.Items = append(page.Items, c)
	}
	return page, nil
}

func newFetcher(n int) *fakeFetcher {
	f := &fakeFetcher{}
	for i := 0; i < n; i++ {
		f.chunks = append(f.chunks, fmt.Sprintf("full text %d", i))
	}
	return f
}

func TestFullChunk(t *testing.T) {
	f := newFetcher(5)

	chunk, err := FullChunk(context.Background(), f, "d1", 3)
	require.NoError(t, err)
	assert.Equal(t, "full text 3", chunk.Text)
	assert.Equal(t, types.ChunkQuery{Page: 4, Limit: 1, FullText: true}, f.queries[0])

	_, err = FullChunk(context.Background(), f, "d1", 5)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = FullChunk(context.Background(), f, "d1", -1)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestSession_ExpandTwiceFetchesOnce(t *testing.T) {
	f := newFetcher(25)
	s := NewSession(f, "d1", 10)
	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	f.calls.Store(0)

	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()

	first := make(chan error, 1)
	go func() {
		_, err := s.Expand(context.Background(), 2)
		first <- err
	}()
	require.Eventually(t, func() bool { return s.Loading(2) }, time.Second, time.Millisecond)

	fetched, err := s.Expand(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, fetched)

	f.mu.Lock()
	close(f.gate)
	f.gate = nil
	f.mu.Unlock()
	require.NoError(t, <-first)

	fetched, err = s.Expand(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, int32(1), f.calls.Load())

	display := s.Display()
	assert.Equal(t, "full text 2", display[2].Text)
	assert.False(t, display[2].Truncated)
	assert.Equal(t, "preview 1", display[1].Text)
}

func TestSession_FailedExpandKeepsPreview(t *testing.T) {
	f := newFetcher(25)
	s := NewSession(f, "d1", 10)
	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	_, err = s.Expand(context.Background(), 0)
	require.NoError(t, err)
	before := s.Display()

	f.mu.Lock()
	f.err = fmt.Errorf("%w: boom", api.ErrCommunication)
	f.mu.Unlock()

	fetched, err := s.Expand(context.Background(), 4)
	assert.True(t, fetched)
	assert.True(t, errors.Is(err, api.ErrCommunication))
	assert.False(t, s.Loading(4))
	assert.False(t, s.Expanded(4))
	assert.Equal(t, before, s.Display())
	assert.True(t, s.Expanded(0))
}

func TestSession_Pagination(t *testing.T) {
	f := newFetcher(95)
	s := NewSession(f, "d1", 10)
	assert.Nil(t, s.Window())

	_, err := s.LoadPage(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 10, s.TotalPages())
	assert.Equal(t, pages(1, "...", 3, 4, 5, 6, 7, "...", 10), s.Window())

	// Expanded text survives page changes.
	_, err = s.Expand(context.Background(), 41)
	require.NoError(t, err)
	_, err = s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	_, err = s.LoadPage(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "full text 41", s.Display()[1].Text)
}
