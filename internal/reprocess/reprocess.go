// Package reprocess decides whether re-running a document needs explicit
// confirmation from the caller.
package reprocess

import "github.com/jackzampolin/kbase/internal/types"

// Effective resolves the chunking config a run would use. Document
// overrides apply field by field over the knowledge base defaults. A nil kb
// or zero kb values fall back to the package defaults.
func Effective(doc *types.Document, kb *types.KnowledgeBase) types.ChunkingConfig {
	cfg := types.ChunkingConfig{
		ChunkSize: types.DefaultChunkSize,
		Overlap:   types.DefaultOverlap,
	}
	if kb != nil {
		if kb.ChunkSize > 0 {
			cfg.ChunkSize = kb.ChunkSize
		}
		if kb.Overlap > 0 {
			cfg.Overlap = kb.Overlap
		}
	}
	if doc != nil && doc.ParsingConfig != nil {
		if v := doc.ParsingConfig.ChunkSize; v != nil {
			cfg.ChunkSize = *v
		}
		if v := doc.ParsingConfig.Overlap; v != nil {
			cfg.Overlap = *v
		}
	}
	return cfg
}

// NeedsConfirmation is true only for a processed document whose effective
// config equals the one its last completed run used. Re-running it would
// produce the same chunks.
func NeedsConfirmation(doc *types.Document, kb *types.KnowledgeBase) bool {
	if doc == nil || doc.Status != types.StatusProcessed || doc.LastParsedConfig == nil {
		return false
	}
	return Effective(doc, kb) == *doc.LastParsedConfig
}
