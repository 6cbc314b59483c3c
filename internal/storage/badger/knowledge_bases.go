package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/jackzampolin/kbase/internal/storage"
	"github.com/jackzampolin/kbase/internal/types"
)

var _ storage.KnowledgeBaseRepository = (*Backend)(nil)

// CreateKnowledgeBase implements storage.KnowledgeBaseRepository.
func (b *Backend) CreateKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error {
	data, err := json.Marshal(kb)
	if err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	return b.update(func(tx *badger.Txn) error {
		key := makeKBKey(kb.ID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: knowledge base %s", storage.ErrDuplicateKey, kb.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return tx.Set(key, data)
	})
}

// GetKnowledgeBase implements storage.KnowledgeBaseRepository.
func (b *Backend) GetKnowledgeBase(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	var kb types.KnowledgeBase
	err := b.view(func(tx *badger.Txn) error {
		return getJSON(tx, makeKBKey(id), &kb)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("knowledge base %s: %w", id, err)
		}
		return nil, err
	}
	return &kb, nil
}

// ListKnowledgeBases implements storage.KnowledgeBaseRepository.
func (b *Backend) ListKnowledgeBases(ctx context.Context) ([]*types.KnowledgeBase, error) {
	var kbs []*types.KnowledgeBase
	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(kbPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var kb types.KnowledgeBase
			if err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &kb)
			}); err != nil {
				return err
			}
			kbs = append(kbs, &kb)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(kbs, func(i, j int) bool {
		return kbs[i].CreatedAt.Before(kbs[j].CreatedAt)
	})
	return kbs, nil
}

// UpdateKnowledgeBase implements storage.KnowledgeBaseRepository.
func (b *Backend) UpdateKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error {
	data, err := json.Marshal(kb)
	if err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	return b.update(func(tx *badger.Txn) error {
		key := makeKBKey(kb.ID)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("knowledge base %s: %w", kb.ID, storage.ErrNotFound)
			}
			return err
		}
		return tx.Set(key, data)
	})
}

// DeleteKnowledgeBase implements storage.KnowledgeBaseRepository.
func (b *Backend) DeleteKnowledgeBase(ctx context.Context, id string) error {
	return b.update(func(tx *badger.Txn) error {
		key := makeKBKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("knowledge base %s: %w", id, storage.ErrNotFound)
			}
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeDocByKBPrefix(id)
		iter := tx.NewIterator(opts)
		iter.Rewind()
		hasDocs := iter.Valid()
		iter.Close()
		if hasDocs {
			return fmt.Errorf("knowledge base %s: %w", id, storage.ErrNotEmpty)
		}
		return tx.Delete(key)
	})
}

// getJSON decodes the value at key into v, mapping a missing key to
// storage.ErrNotFound.
func getJSON(tx *badger.Txn, key []byte, v any) error {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
