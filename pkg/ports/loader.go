package ports

import "context"

// DocumentSource defines how prompt documents are retrieved.
// This allows the storage layer (Loam, FS, Memory) to be decoupled from parsing.
type DocumentSource interface {
	// Get returns the raw bytes of a document by name.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the names of all available documents.
	List(ctx context.Context) ([]string, error)
}

// Watchable is implemented by sources that report changed documents.
type Watchable interface {
	// Watch emits the name of every changed document until ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
