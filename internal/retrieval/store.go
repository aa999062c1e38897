// Package retrieval manages per-review document stores: it uploads a
// requirement document to a vector store, waits for indexing to complete,
// and exposes similarity search over the indexed content.
package retrieval

import "context"

// StoreState describes where an index store is in its lifecycle.
type StoreState string

const (
	StateCreating StoreState = "CREATING"
	StateIndexing StoreState = "INDEXING"
	StateReady    StoreState = "READY"
	StateFailed   StoreState = "FAILED"
)

// Operation is the observable status of an asynchronous store operation.
type Operation struct {
	ID    string
	State StoreState
	Err   string
}

// StoreService is the retrieval backend contract: create a named store,
// upload a document into it asynchronously, poll the upload operation, and
// search or discard the store.
type StoreService interface {
	CreateStore(ctx context.Context, name string) (string, error)
	UploadDocument(ctx context.Context, storeID, path string) (string, error)
	GetOperation(ctx context.Context, operationID string) (*Operation, error)
	Search(ctx context.Context, storeID, query string, numDocs int) ([]string, error)
	DeleteStore(ctx context.Context, storeID string) error
}
