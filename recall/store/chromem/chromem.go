// Package chromem backs the recall store with chromem-go, a pure Go
// embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mindloop/cortex/logger"
	"github.com/mindloop/cortex/recall"
)

const collectionName = "episodes"

// ChromemStore implements recall.Store over a single episode
// collection.
type ChromemStore struct {
	db  *chromem.DB
	col *chromem.Collection
	log *logger.Logger
}

// New creates an in-memory store.
func New(log *logger.Logger) (*ChromemStore, error) {
	return open(chromem.NewDB(), log)
}

// NewPersistent creates a store persisted under path.
func NewPersistent(path string, log *logger.Logger) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}
	return open(db, log)
}

func open(db *chromem.DB, log *logger.Logger) (*ChromemStore, error) {
	// No embedding func: the Manager supplies embeddings. Default
	// cosine distance.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemStore{db: db, col: col, log: log}, nil
}

// Store saves an episode with its embedding.
func (s *ChromemStore) Store(ctx context.Context, ep *recall.Episode) error {
	doc := chromem.Document{
		ID:        ep.ID,
		Content:   ep.Note,
		Embedding: ep.Embedding(),
		Metadata: map[string]string{
			"kind":       ep.Kind,
			"success":    strconv.FormatBool(ep.Success),
			"created_at": ep.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves episodes by vector similarity.
func (s *ChromemStore) Query(ctx context.Context, embedding []float32, limit int) ([]recall.Scored, error) {
	// chromem-go requires nResults <= collection size; shrink the
	// request until it fits.
	var results []chromem.Result
	for n := limit; n >= 1; n-- {
		var err error
		results, err = s.col.QueryEmbedding(ctx, embedding, n, nil, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				s.log.Infof("[CHROMEM] collection is empty")
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	scored := make([]recall.Scored, 0, len(results))
	for i, result := range results {
		ep, err := episodeFromResult(result)
		if err != nil {
			s.log.Warnf("[CHROMEM] skipping result #%d: %v", i+1, err)
			continue
		}
		scored = append(scored, recall.Scored{Episode: ep, Similarity: result.Similarity})
	}
	return scored, nil
}

// Close releases resources. An in-memory db has nothing to release;
// a persistent db flushes on every write.
func (s *ChromemStore) Close() error {
	return nil
}

func episodeFromResult(result chromem.Result) (*recall.Episode, error) {
	kind := result.Metadata["kind"]
	if kind == "" {
		return nil, fmt.Errorf("result %s has no kind", result.ID)
	}
	success, err := strconv.ParseBool(result.Metadata["success"])
	if err != nil {
		return nil, fmt.Errorf("parse success for %s: %w", result.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, result.Metadata["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", result.ID, err)
	}
	return recall.FromStorage(result.ID, kind, result.Content, success, createdAt, result.Embedding), nil
}

// isInsufficientDocsError checks whether the error means the
// collection holds fewer documents than requested.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
