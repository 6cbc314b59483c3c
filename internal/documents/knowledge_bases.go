package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

// KnowledgeBaseUpdate is a partial knowledge base update.
type KnowledgeBaseUpdate struct {
	Name                *string `json:"name,omitempty"`
	Description         *string `json:"description,omitempty"`
	ChunkSize           *int    `json:"chunk_size,omitempty"`
	Overlap             *int    `json:"overlap,omitempty"`
	AutoProcessOnUpload *bool   `json:"auto_process_on_upload,omitempty"`
}

func (s *Service) validateKnowledgeBase(kb *types.KnowledgeBase) error {
	if strings.TrimSpace(kb.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if kb.ChunkSize < 0 || kb.Overlap < 0 {
		return fmt.Errorf("%w: chunk_size and overlap must not be negative", ErrInvalid)
	}
	resolved := s.withDefaults(kb)
	return validateEffective(types.ChunkingConfig{ChunkSize: resolved.ChunkSize, Overlap: resolved.Overlap})
}

// CreateKnowledgeBase stores a new knowledge base. Zero chunking values
// inherit the server defaults at dispatch time.
func (s *Service) CreateKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) (*types.KnowledgeBase, error) {
	created := *kb
	if err := s.validateKnowledgeBase(&created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = time.Now().UTC()

	if err := s.store.CreateKnowledgeBase(ctx, &created); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: knowledge base %s already exists", ErrConflict, created.ID)
		}
		return nil, fmt.Errorf("failed to create knowledge base: %w", err)
	}
	s.logger.Info("knowledge base created", "kb_id", created.ID, "name", created.Name)
	return &created, nil
}

// GetKnowledgeBase returns a knowledge base by ID.
func (s *Service) GetKnowledgeBase(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	kb, err := s.store.GetKnowledgeBase(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "knowledge base", id)
	}
	return kb, nil
}

// ListKnowledgeBases returns every knowledge base.
func (s *Service) ListKnowledgeBases(ctx context.Context) ([]*types.KnowledgeBase, error) {
	kbs, err := s.store.ListKnowledgeBases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge bases: %w", err)
	}
	return kbs, nil
}

// UpdateKnowledgeBase applies a partial update. Changing chunking values
// does not touch existing documents; their next run picks the new values up.
func (s *Service) UpdateKnowledgeBase(ctx context.Context, id string, u KnowledgeBaseUpdate) (*types.KnowledgeBase, error) {
	unlock := s.locks.Lock("kb:" + id)
	defer unlock()

	kb, err := s.store.GetKnowledgeBase(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "knowledge base", id)
	}
	if u.Name != nil {
		kb.Name = *u.Name
	}
	if u.Description != nil {
		kb.Description = *u.Description
	}
	if u.ChunkSize != nil {
		kb.ChunkSize = *u.ChunkSize
	}
	if u.Overlap != nil {
		kb.Overlap = *u.Overlap
	}
	if u.AutoProcessOnUpload != nil {
		kb.AutoProcessOnUpload = *u.AutoProcessOnUpload
	}
	if err := s.validateKnowledgeBase(kb); err != nil {
		return nil, err
	}
	if err := s.store.UpdateKnowledgeBase(ctx, kb); err != nil {
		return nil, fmt.Errorf("failed to update knowledge base: %w", err)
	}
	s.logger.Info("knowledge base updated", "kb_id", id)
	return kb, nil
}

// DeleteKnowledgeBase removes an empty knowledge base. It returns
// ErrConflict while documents remain; delete those first.
func (s *Service) DeleteKnowledgeBase(ctx context.Context, id string) error {
	err := s.store.DeleteKnowledgeBase(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotEmpty):
		return fmt.Errorf("%w: knowledge base %s still has documents", ErrConflict, id)
	case err != nil:
		return mapStoreErr(err, "knowledge base", id)
	}
	s.logger.Info("knowledge base deleted", "kb_id", id)
	return nil
}
