package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jackzampolin/kbase/internal/storage"
)

var _ storage.ChunkRepository = (*Backend)(nil)

// PutChunk implements storage.ChunkRepository.
func (b *Backend) PutChunk(ctx context.Context, docID string, chunkID int, text string) error {
	if chunkID < 0 {
		return fmt.Errorf("%w: negative chunk id %d", storage.ErrInvalidQuery, chunkID)
	}
	return b.update(func(tx *badger.Txn) error {
		return tx.Set(makeChunkKey(docID, chunkID), []byte(text))
	})
}

// ListChunks implements storage.ChunkRepository.
func (b *Backend) ListChunks(ctx context.Context, docID string, offset, limit int) ([]storage.StoredChunk, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", storage.ErrInvalidQuery, offset, limit)
	}
	chunks := make([]storage.StoredChunk, 0, limit)
	if limit == 0 {
		return chunks, nil
	}

	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(docID)
		opts.PrefetchSize = limit
		iter := tx.NewIterator(opts)
		defer iter.Close()

		skipped := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			item := iter.Item()
			text, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			chunks = append(chunks, storage.StoredChunk{
				ChunkID: parseChunkID(item.Key()),
				Text:    string(text),
			})
			if len(chunks) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// CountChunks implements storage.ChunkRepository.
func (b *Backend) CountChunks(ctx context.Context, docID string) (int, error) {
	count := 0
	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// DeleteChunksFrom implements storage.ChunkRepository. Deletes go through a
// write batch so large documents do not exceed the transaction size limit.
func (b *Backend) DeleteChunksFrom(ctx context.Context, docID string, from int) (int, error) {
	if from < 0 {
		from = 0
	}

	var keys [][]byte
	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeChunkKey(docID, from)); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("failed to delete chunk: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush chunk deletes: %w", err)
	}
	return len(keys), nil
}
