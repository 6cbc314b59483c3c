package documents

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/kbase/internal/jobs"
	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

// Chunk listing limits.
const (
	DefaultChunkLimit = 10
	MaxChunkLimit     = 100
	// PreviewLines is how many lines a listing shows of a chunk that is
	// not returned in full.
	PreviewLines = 3
)

// Preview limits.
const (
	PreviewMaxLines = 5000
	PreviewMaxChars = 50000
)

// ListChunks returns one page of a document's chunks. Pages are 1-indexed.
// Full text is only returned for single-chunk pages with FullText set;
// otherwise chunks longer than PreviewLines lines are truncated.
func (s *Service) ListChunks(ctx context.Context, id string, q types.ChunkQuery) (*types.ChunkPage, error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrInvalid)
	}
	if q.Limit < 1 || q.Limit > MaxChunkLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalid, MaxChunkLimit)
	}

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "document", id)
	}

	stored, err := s.store.ListChunks(ctx, id, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	full := q.FullText && q.Limit == 1
	items := make([]types.Chunk, 0, len(stored))
	for _, c := range stored {
		// Chunks past chunk_count belong to a superseded run.
		if c.ChunkID >= doc.ChunkCount {
			break
		}
		items = append(items, toChunk(c, full))
	}

	return &types.ChunkPage{
		Items: items,
		Total: doc.ChunkCount,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

func toChunk(c storage.StoredChunk, full bool) types.Chunk {
	lines := strings.Split(c.Text, "\n")
	chunk := types.Chunk{
		ChunkID:    c.ChunkID,
		Length:     utf8.RuneCountInString(c.Text),
		TotalLines: len(lines),
		Text:       c.Text,
	}
	if !full && len(lines) > PreviewLines {
		chunk.Text = strings.Join(lines[:PreviewLines], "\n")
		chunk.Truncated = true
	}
	return chunk
}

// Preview returns the document's extracted text starting at line offset,
// capped at PreviewMaxLines lines and PreviewMaxChars characters.
func (s *Service) Preview(ctx context.Context, id string, offset int) (*types.Preview, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalid)
	}
	path, doc, err := s.FilePath(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := jobs.Extract(ctx, path, doc.Filetype)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var (
		sb    strings.Builder
		n     int
		chars int
	)
	i := min(offset, len(lines))
	for ; i < len(lines) && n < PreviewMaxLines; i++ {
		line := lines[i]
		size := utf8.RuneCountInString(line)
		if chars+size > PreviewMaxChars {
			runes := []rune(line)[:PreviewMaxChars-chars]
			sb.WriteString(string(runes))
			chars = PreviewMaxChars
			n++
			i++
			break
		}
		sb.WriteString(line)
		chars += size
		n++
	}

	p := &types.Preview{
		Content: sb.String(),
		Lines:   n,
		Chars:   chars,
		HasMore: i < len(lines),
	}
	if p.HasMore {
		next := offset + n
		p.NextOffset = &next
	}
	return p, nil
}
