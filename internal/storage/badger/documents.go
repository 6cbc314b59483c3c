package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

var _ storage.DocumentRepository = (*Backend)(nil)

// CreateDocument implements storage.DocumentRepository.
func (b *Backend) CreateDocument(ctx context.Context, doc *types.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return b.update(func(tx *badger.Txn) error {
		key := makeDocKey(doc.ID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: document %s", storage.ErrDuplicateKey, doc.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, data); err != nil {
			return err
		}
		return tx.Set(makeDocByKBKey(doc.KBID, doc.ID), nil)
	})
}

// GetDocument implements storage.DocumentRepository.
func (b *Backend) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := b.view(func(tx *badger.Txn) error {
		return getJSON(tx, makeDocKey(id), &doc)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		return nil, err
	}
	return &doc, nil
}

// ListDocuments implements storage.DocumentRepository.
func (b *Backend) ListDocuments(ctx context.Context, kbID string) ([]*types.Document, error) {
	var docs []*types.Document
	err := b.view(func(tx *badger.Txn) error {
		prefix := makeDocByKBPrefix(kbID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			docID := string(iter.Item().Key()[len(prefix):])
			var doc types.Document
			if err := getJSON(tx, makeDocKey(docID), &doc); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return err
			}
			docs = append(docs, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByUploadTime(docs)
	return docs, nil
}

// ListDocumentsByStatus implements storage.DocumentRepository.
func (b *Backend) ListDocumentsByStatus(ctx context.Context, statuses ...types.Status) ([]*types.Document, error) {
	var docs []*types.Document
	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc types.Document
			if err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
			if slices.Contains(statuses, doc.Status) {
				docs = append(docs, &doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByUploadTime(docs)
	return docs, nil
}

// UpdateDocument implements storage.DocumentRepository.
func (b *Backend) UpdateDocument(ctx context.Context, id string, fn func(doc *types.Document) error) (*types.Document, error) {
	var updated *types.Document
	err := b.update(func(tx *badger.Txn) error {
		var doc types.Document
		if err := getJSON(tx, makeDocKey(id), &doc); err != nil {
			return err
		}
		if err := fn(&doc); err != nil {
			return err
		}
		data, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if err := tx.Set(makeDocKey(id), data); err != nil {
			return err
		}
		updated = &doc
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteDocument implements storage.DocumentRepository. Chunks are removed
// separately with DeleteChunksFrom.
func (b *Backend) DeleteDocument(ctx context.Context, id string) error {
	return b.update(func(tx *badger.Txn) error {
		var doc types.Document
		if err := getJSON(tx, makeDocKey(id), &doc); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("document %s: %w", id, err)
			}
			return err
		}
		if err := tx.Delete(makeDocByKBKey(doc.KBID, id)); err != nil {
			return err
		}
		return tx.Delete(makeDocKey(id))
	})
}

func sortByUploadTime(docs []*types.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadTime.Before(docs[j].UploadTime)
	})
}
