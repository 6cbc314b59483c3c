package api

import (
	"context"
	"net/url"

	"github.com/jackzampolin/kbase/internal/types"
)

// KnowledgeBaseRequest is the body of POST /api/kbs and PUT /api/kbs/{id}.
// Nil fields are left unchanged on update.
type KnowledgeBaseRequest struct {
	Name                *string `json:"name,omitempty"`
	Description         *string `json:"description,omitempty"`
	ChunkSize           *int    `json:"chunk_size,omitempty"`
	Overlap             *int    `json:"overlap,omitempty"`
	AutoProcessOnUpload *bool   `json:"auto_process_on_upload,omitempty"`
}

func kbPath(id string, suffix string) string {
	return "/api/kbs/" + url.PathEscape(id) + suffix
}

// CreateKnowledgeBase creates a knowledge base.
func (c *Client) CreateKnowledgeBase(ctx context.Context, req KnowledgeBaseRequest) (*types.KnowledgeBase, error) {
	var kb types.KnowledgeBase
	if err := c.Post(ctx, "/api/kbs", req, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// GetKnowledgeBase fetches a knowledge base.
func (c *Client) GetKnowledgeBase(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	var kb types.KnowledgeBase
	if err := c.Get(ctx, kbPath(id, ""), &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// ListKnowledgeBases fetches every knowledge base.
func (c *Client) ListKnowledgeBases(ctx context.Context) ([]*types.KnowledgeBase, error) {
	var kbs []*types.KnowledgeBase
	if err := c.Get(ctx, "/api/kbs", &kbs); err != nil {
		return nil, err
	}
	return kbs, nil
}

// UpdateKnowledgeBase sends a partial knowledge base update.
func (c *Client) UpdateKnowledgeBase(ctx context.Context, id string, req KnowledgeBaseRequest) (*types.KnowledgeBase, error) {
	var kb types.KnowledgeBase
	if err := c.Put(ctx, kbPath(id, ""), req, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// DeleteKnowledgeBase removes an empty knowledge base.
func (c *Client) DeleteKnowledgeBase(ctx context.Context, id string) error {
	return c.Delete(ctx, kbPath(id, ""))
}

// ListDocuments fetches the documents of a knowledge base.
func (c *Client) ListDocuments(ctx context.Context, kbID string) ([]*types.DocumentView, error) {
	var docs []*types.DocumentView
	if err := c.Get(ctx, kbPath(kbID, "/documents"), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
