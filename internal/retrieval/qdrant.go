package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/schema"
	"github.com/sevigo/goframe/vectorstores"
	"github.com/sevigo/goframe/vectorstores/qdrant"
)

// QdrantStoreService implements StoreService on a Qdrant backend. Each index
// store maps to one Qdrant collection; uploads run asynchronously and are
// tracked as operations.
type QdrantStoreService struct {
	host     string
	embedder embeddings.Embedder
	logger   *slog.Logger

	ops   sync.Map // operation ID -> *Operation
	opSeq atomic.Int64
}

func NewQdrantStoreService(host string, embedder embeddings.Embedder, logger *slog.Logger) *QdrantStoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QdrantStoreService{host: host, embedder: embedder, logger: logger}
}

func (s *QdrantStoreService) collection(name string) (vectorstores.VectorStore, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	return qdrant.New(
		qdrant.WithHost(s.host),
		qdrant.WithEmbedder(s.embedder),
		qdrant.WithCollectionName(name),
		qdrant.WithLogger(s.logger),
	)
}

// CreateStore registers the named store. Qdrant creates collections lazily
// on first write, so this validates the name and returns it as the store ID.
func (s *QdrantStoreService) CreateStore(_ context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("store name cannot be empty")
	}
	return name, nil
}

// UploadDocument reads the file at path, splits it into paragraph chunks,
// and embeds them into the store's collection in the background. The
// returned operation ID can be polled with GetOperation.
func (s *QdrantStoreService) UploadDocument(ctx context.Context, storeID, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}

	docs := chunkDocument(string(data), path)
	if len(docs) == 0 {
		return "", fmt.Errorf("document %s is empty", path)
	}

	opID := fmt.Sprintf("upload-%s-%d", storeID, s.opSeq.Add(1))
	op := &Operation{ID: opID, State: StateIndexing}
	s.ops.Store(opID, op)

	go func() {
		store, err := s.collection(storeID)
		if err != nil {
			s.finishOperation(opID, StateFailed, err.Error())
			return
		}
		if _, err := store.AddDocuments(ctx, docs); err != nil {
			s.finishOperation(opID, StateFailed, err.Error())
			return
		}
		s.finishOperation(opID, StateReady, "")
	}()

	return opID, nil
}

// GetOperation returns a snapshot of the operation's current status.
func (s *QdrantStoreService) GetOperation(_ context.Context, operationID string) (*Operation, error) {
	val, ok := s.ops.Load(operationID)
	if !ok {
		return nil, fmt.Errorf("unknown operation %s", operationID)
	}
	op := val.(*Operation)
	snapshot := *op
	return &snapshot, nil
}

// Search runs a similarity query against the store and returns the matching
// passages.
func (s *QdrantStoreService) Search(ctx context.Context, storeID, query string, numDocs int) ([]string, error) {
	store, err := s.collection(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", storeID, err)
	}

	docs, err := store.SimilaritySearch(ctx, query, numDocs)
	if err != nil {
		return nil, fmt.Errorf("similarity search in %s failed: %w", storeID, err)
	}

	passages := make([]string, 0, len(docs))
	for _, doc := range docs {
		passages = append(passages, doc.PageContent)
	}
	return passages, nil
}

// DeleteStore drops the store's collection and forgets its operations.
func (s *QdrantStoreService) DeleteStore(ctx context.Context, storeID string) error {
	store, err := s.collection(storeID)
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", storeID, err)
	}
	if err := store.DeleteCollection(ctx, storeID); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", storeID, err)
	}

	prefix := "upload-" + storeID + "-"
	s.ops.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			s.ops.Delete(key)
		}
		return true
	})
	return nil
}

func (s *QdrantStoreService) finishOperation(opID string, state StoreState, errMsg string) {
	s.ops.Store(opID, &Operation{ID: opID, State: state, Err: errMsg})
	if state == StateFailed {
		s.logger.Warn("document upload failed", "operation", opID, "error", errMsg)
	}
}

// chunkDocument splits text into paragraph documents tagged with their
// source path. Blank-line separated blocks keep requirement sections intact
// for embedding.
func chunkDocument(text, source string) []schema.Document {
	var docs []schema.Document
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		docs = append(docs, schema.NewDocument(block, map[string]any{"source": source}))
	}
	return docs
}
