// Package types provides shared types used across multiple packages.
// This package has no dependencies on other kbase packages to avoid import cycles.
package types

import "time"

// Status is the ingestion state of a document.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusPending, StatusProcessing, StatusPaused,
		StatusProcessed, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Running reports whether a worker run is queued or in progress.
func (s Status) Running() bool {
	return s == StatusPending || s == StatusProcessing
}

// Fallback chunking values used when neither the document nor its
// knowledge base specify one.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// ParsingConfig is a per-document override. Each field is optional and
// falls back to the knowledge base independently.
type ParsingConfig struct {
	ChunkSize *int `json:"chunk_size,omitempty"`
	Overlap   *int `json:"overlap,omitempty"`
}

// ChunkingConfig is a fully resolved chunking configuration.
type ChunkingConfig struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}

// Document is an uploaded file tracked through ingestion.
type Document struct {
	ID               string          `json:"id"`
	KBID             string          `json:"kb_id"`
	Filename         string          `json:"filename"`
	Filetype         string          `json:"filetype"`
	Status           Status          `json:"status"`
	ParseOffset      int             `json:"parse_offset"`
	ChunkCount       int             `json:"chunk_count"`
	ParsingConfig    *ParsingConfig  `json:"parsing_config,omitempty"`
	LastParsedConfig *ChunkingConfig `json:"last_parsed_config,omitempty"`
	FailReason       string          `json:"fail_reason,omitempty"`
	UploadTime       time.Time       `json:"upload_time"`

	// Run is incremented on every dispatch; worker reports carry it so
	// reports from a superseded run can be discarded.
	Run       int64           `json:"run"`
	RunConfig *ChunkingConfig `json:"run_config,omitempty"`
}

// KnowledgeBase groups documents and carries their default chunking config.
type KnowledgeBase struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	ChunkSize           int       `json:"chunk_size"`
	Overlap             int       `json:"overlap"`
	AutoProcessOnUpload bool      `json:"auto_process_on_upload"`
	CreatedAt           time.Time `json:"created_at"`
}

// Chunk is one entry of a chunk listing.
type Chunk struct {
	ChunkID    int    `json:"chunk_id"`
	Length     int    `json:"length"`
	TotalLines int    `json:"total_lines"`
	Truncated  bool   `json:"truncated"`
	Text       string `json:"text"`
}

// ChunkPage is a single page of a chunk listing.
type ChunkPage struct {
	Items []Chunk `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// ChunkQuery selects a page of chunks.
type ChunkQuery struct {
	Page     int
	Limit    int
	FullText bool
}

// ProgressReport is sent by a worker as a run advances.
type ProgressReport struct {
	Run         int64           `json:"run"`
	Status      Status          `json:"status"`
	ParseOffset int             `json:"parse_offset"`
	ChunkCount  int             `json:"chunk_count"`
	FailReason  string          `json:"fail_reason,omitempty"`
	Config      *ChunkingConfig `json:"config,omitempty"`
}

// ParseRun describes one dispatch of a document to the worker.
type ParseRun struct {
	DocumentID string         `json:"document_id"`
	Run        int64          `json:"run"`
	Start      int            `json:"start"`
	Config     ChunkingConfig `json:"config"`
	Path       string         `json:"path"`
	Filetype   string         `json:"filetype"`
}

// DocumentView is a document as returned by the API, with derived fields.
type DocumentView struct {
	Document
	EffectiveConfig   ChunkingConfig `json:"effective_config"`
	NeedsConfirmation bool           `json:"needs_confirmation"`
}

// Preview is a window over a document's extracted text, by line.
type Preview struct {
	Content    string `json:"content"`
	Lines      int    `json:"lines"`
	Chars      int    `json:"chars"`
	HasMore    bool   `json:"has_more"`
	NextOffset *int   `json:"next_offset"`
}
