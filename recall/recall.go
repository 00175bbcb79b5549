package recall

import "context"

// Store is the vector storage backend for episodes.
type Store interface {
	// Store saves an episode. The episode must have its embedding set.
	Store(ctx context.Context, ep *Episode) error

	// Query returns episodes by similarity to the embedding, most
	// similar first, with their similarity scores.
	Query(ctx context.Context, embedding []float32, limit int) ([]Scored, error)

	// Close releases resources.
	Close() error
}

// Scored pairs an episode with its query similarity.
type Scored struct {
	Episode    *Episode
	Similarity float32
}

// Embedder converts text to vector embeddings.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
