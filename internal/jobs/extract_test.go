package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/kbase/internal/types"
)

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, "a.md", "# Title\n\nbody")
		text, err := Extract(ctx, path, "md")
		require.NoError(t, err)
		assert.Equal(t, "# Title\n\nbody", text)
	})

	t.Run("html drops scripts", func(t *testing.T) {
		path := writeFile(t, "a.html", `<html><head><style>p{}</style></head><body><h1>Head</h1><script>alert(1)</script><p>Para one</p><p>Para two</p></body></html>`)
		text, err := Extract(ctx, path, "HTML")
		require.NoError(t, err)
		assert.Equal(t, "Head\n\nPara one\n\nPara two", text)
		assert.NotContains(t, text, "alert")
	})

	t.Run("unsupported", func(t *testing.T) {
		path := writeFile(t, "a.exe", "MZ")
		_, err := Extract(ctx, path, "exe")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("invalid pdf", func(t *testing.T) {
		path := writeFile(t, "a.pdf", "not a pdf")
		_, err := Extract(ctx, path, "pdf")
		assert.Error(t, err)
	})
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("txt"))
	assert.True(t, Supported("PDF"))
	assert.False(t, Supported("docx"))
}

func TestSplitConfigs(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ChunkingConfig
		wantErr bool
	}{
		{"valid", types.ChunkingConfig{ChunkSize: 20, Overlap: 5}, false},
		{"no overlap", types.ChunkingConfig{ChunkSize: 20}, false},
		{"zero size", types.ChunkingConfig{ChunkSize: 0}, true},
		{"negative overlap", types.ChunkingConfig{ChunkSize: 20, Overlap: -1}, true},
		{"overlap equals size", types.ChunkingConfig{ChunkSize: 20, Overlap: 20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split("alpha beta gamma delta epsilon zeta eta theta iota kappa", tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChunking)
				return
			}
			require.NoError(t, err)
			assert.Greater(t, len(chunks), 1)
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), tt.cfg.ChunkSize)
			}
		})
	}
}
