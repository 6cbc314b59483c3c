package jobs

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/jackzampolin/kbase/internal/types"
)

// ErrInvalidChunking is returned for configs the splitter cannot honor.
var ErrInvalidChunking = errors.New("invalid chunking config")

// ValidateChunking checks that chunk size is positive and overlap is
// non-negative and smaller than the chunk size.
func ValidateChunking(cfg types.ChunkingConfig) error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, cfg.ChunkSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidChunking, cfg.ChunkSize, cfg.Overlap)
	}
	return nil
}

// Split breaks text into overlapping chunks, preferring paragraph, line
// and word boundaries in that order.
func Split(text string, cfg types.ChunkingConfig) ([]string, error) {
	if err := ValidateChunking(cfg); err != nil {
		return nil, err
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.Overlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return chunks, nil
}
