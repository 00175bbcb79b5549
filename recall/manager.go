package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"

	"github.com/mindloop/cortex/logger"
)

// Config holds Manager settings.
type Config struct {
	// Enabled toggles the recall system on/off.
	Enabled bool

	// MinSimilarity is the minimum similarity for recall [0.0-1.0].
	// Tiny local embedders score similar text lower than production
	// models, so the default is permissive.
	MinSimilarity float64
}

// DefaultConfig returns sensible defaults for the local embedder.
var DefaultConfig = &Config{
	Enabled:       true,
	MinSimilarity: 0.3,
}

// embedCacheSize bounds the ristretto embedding cache. Episode notes
// repeat heavily (the maintenance loop emits the same shapes daily),
// so memoizing embeddings avoids re-running the model.
const embedCacheSize = 1 << 20 // 1 MiB of cached vectors

// Manager orchestrates episode recording and recall.
type Manager struct {
	store    Store
	embedder Embedder
	embeds   *ristretto.Cache
	config   *Config
	log      *logger.Logger
}

// NewManager creates a Manager over the given store and embedder.
func NewManager(store Store, embedder Embedder, config *Config, log *logger.Logger) (*Manager, error) {
	if config == nil {
		config = DefaultConfig
	}
	embeds, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     embedCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Manager{
		store:    store,
		embedder: embedder,
		embeds:   embeds,
		config:   config,
		log:      log,
	}, nil
}

// Record embeds and stores an episode. Failures are logged and
// returned; callers treat them as non-fatal.
func (m *Manager) Record(ctx context.Context, ep *Episode) error {
	if !m.config.Enabled {
		return nil
	}

	embedding, err := m.embed(ctx, ep.EmbeddingText())
	if err != nil {
		m.log.Errorf("[RECALL] failed to embed episode %s: %v", ep.ID, err)
		return fmt.Errorf("embed episode: %w", err)
	}
	ep.SetEmbedding(embedding)

	if err := m.store.Store(ctx, ep); err != nil {
		m.log.Errorf("[RECALL] failed to store episode %s: %v", ep.ID, err)
		return fmt.Errorf("store episode: %w", err)
	}

	m.log.Infof("[RECALL] recorded episode: kind=%s success=%t", ep.Kind, ep.Success)
	return nil
}

// Recall returns up to limit episodes similar to the query, most
// similar first, filtered by MinSimilarity.
func (m *Manager) Recall(ctx context.Context, query string, limit int) ([]*Episode, error) {
	if !m.config.Enabled {
		return nil, nil
	}

	embedding, err := m.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := m.store.Query(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	var episodes []*Episode
	for _, s := range scored {
		if float64(s.Similarity) < m.config.MinSimilarity {
			continue
		}
		episodes = append(episodes, s.Episode)
	}

	m.log.Infof("[RECALL] recalled %d episodes for query %q", len(episodes), truncateLog(query, 50))
	return episodes, nil
}

// FormatEpisodes renders recalled episodes as an operator-readable
// block.
func FormatEpisodes(episodes []*Episode) string {
	if len(episodes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(episodes)+1)
	parts = append(parts, "=== RELEVANT PAST EPISODES ===")
	for i, ep := range episodes {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, ep.Format()))
	}
	return strings.Join(parts, "\n")
}

// Close releases the store and the embedding cache.
func (m *Manager) Close() error {
	m.embeds.Close()
	return m.store.Close()
}

// embed returns the embedding for text, memoized through ristretto.
func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := m.embeds.Get(text); ok {
		if embedding, ok := cached.([]float32); ok {
			return embedding, nil
		}
	}

	embedding, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	// Cost is the vector byte size; admission may still reject it.
	m.embeds.Set(text, embedding, int64(4*len(embedding)))
	return embedding, nil
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
