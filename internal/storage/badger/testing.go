package badger

// NewMemoryBackend opens an in-memory backend for tests.
// Caller must close it when done.
func NewMemoryBackend() (*Backend, error) {
	return OpenBackend(Config{InMemory: true})
}
