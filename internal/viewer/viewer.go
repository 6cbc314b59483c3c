// Package viewer pages through a document's chunks and expands truncated
// chunks to their full text on demand.
package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/types"
)

// DefaultLimit is the page size used when none is given.
const DefaultLimit = 10

// Fetcher lists chunks. *api.Client implements it.
type Fetcher interface {
	ListChunks(ctx context.Context, docID string, q types.ChunkQuery) (*types.ChunkPage, error)
}

// FullChunk fetches one chunk's full text as a single-chunk page. A chunk
// that does not exist yet returns api.ErrNotFound.
func FullChunk(ctx context.Context, f Fetcher, docID string, chunkID int) (*types.Chunk, error) {
	if chunkID < 0 {
		return nil, fmt.Errorf("%w: chunk %d", api.ErrNotFound, chunkID)
	}
	page, err := f.ListChunks(ctx, docID, types.ChunkQuery{Page: chunkID + 1, Limit: 1, FullText: true})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: chunk %d of document %s", api.ErrNotFound, chunkID, docID)
	}
	chunk := page.Items[0]
	return &chunk, nil
}

// Session is the state of one viewing session over a document. Expanded
// text is kept for the life of the session.
type Session struct {
	fetcher Fetcher
	docID   string
	limit   int

	mu       sync.Mutex
	page     *types.ChunkPage
	expanded map[int]string
	loading  map[int]struct{}
}

// NewSession starts a session over docID with the given page size.
func NewSession(f Fetcher, docID string, limit int) *Session {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Session{
		fetcher:  f,
		docID:    docID,
		limit:    limit,
		expanded: make(map[int]string),
		loading:  make(map[int]struct{}),
	}
}

// LoadPage fetches a page and makes it current. On error the previous
// page stays current.
func (s *Session) LoadPage(ctx context.Context, page int) (*types.ChunkPage, error) {
	p, err := s.fetcher.ListChunks(ctx, s.docID, types.ChunkQuery{Page: page, Limit: s.limit})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.page = p
	s.mu.Unlock()
	return p, nil
}

// Expand loads the full text of a chunk. It does nothing and returns false
// when the chunk is already expanded or being loaded. A failed load leaves
// the chunk's preview in place and can be retried.
func (s *Session) Expand(ctx context.Context, chunkID int) (bool, error) {
	s.mu.Lock()
	if _, ok := s.expanded[chunkID]; ok {
		s.mu.Unlock()
		return false, nil
	}
	if _, ok := s.loading[chunkID]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.loading[chunkID] = struct{}{}
	s.mu.Unlock()

	chunk, err := FullChunk(ctx, s.fetcher, s.docID, chunkID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, chunkID)
	if err != nil {
		return true, fmt.Errorf("failed to load chunk %d: %w", chunkID, err)
	}
	s.expanded[chunkID] = chunk.Text
	return true, nil
}

// Loading reports whether a chunk's full text is being fetched.
func (s *Session) Loading(chunkID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loading[chunkID]
	return ok
}

// Expanded reports whether a chunk's full text is held.
func (s *Session) Expanded(chunkID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.expanded[chunkID]
	return ok
}

// Display returns the current page's chunks with expanded chunks showing
// their full text.
func (s *Session) Display() []types.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	out := make([]types.Chunk, len(s.page.Items))
	for i, c := range s.page.Items {
		if text, ok := s.expanded[c.ChunkID]; ok {
			c.Text = text
			c.Truncated = false
		}
		out[i] = c
	}
	return out
}

// TotalPages returns the page count of the current listing.
func (s *Session) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return 0
	}
	return TotalPages(s.page.Total, s.limit)
}

// Window returns the pagination window for the current page.
func (s *Session) Window() []PageItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	return Window(s.page.Page, TotalPages(s.page.Total, s.limit))
}
