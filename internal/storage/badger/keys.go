package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	kbPrefix      = "kb:"
	docPrefix     = "doc:"
	docByKBPrefix = "dockb:"
	chunkPrefix   = "chunk:"
	chunkIDSize   = 8
	keySeparator  = ':'
)

func makeKBKey(id string) []byte {
	return []byte(kbPrefix + id)
}

func makeDocKey(id string) []byte {
	return []byte(docPrefix + id)
}

// makeDocByKBKey generates an index key listing a document under its
// knowledge base. Format: prefix:kbID:docID
func makeDocByKBKey(kbID, docID string) []byte {
	return []byte(docByKBPrefix + kbID + string(keySeparator) + docID)
}

func makeDocByKBPrefix(kbID string) []byte {
	return []byte(docByKBPrefix + kbID + string(keySeparator))
}

func makeChunkPrefix(docID string) []byte {
	return []byte(chunkPrefix + docID + string(keySeparator))
}

// makeChunkKey generates a composite chunk key.
// Format: prefix:docID:chunkID, with the chunk ID big-endian so keys sort
// in chunk order.
func makeChunkKey(docID string, chunkID int) []byte {
	prefix := makeChunkPrefix(docID)
	buf := make([]byte, len(prefix)+chunkIDSize)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// parseChunkID extracts the chunk ID from a chunk key.
func parseChunkID(key []byte) int {
	if len(key) < chunkIDSize {
		return -1
	}
	return int(binary.BigEndian.Uint64(key[len(key)-chunkIDSize:]))
}
