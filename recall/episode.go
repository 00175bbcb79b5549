package recall

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Episode kinds recorded by the agent runtime.
const (
	KindFit      = "fit"
	KindPlugin   = "plugin"
	KindMaintain = "maintain"
	KindSelfHeal = "self_heal"
)

// Episode is one remembered agent event.
type Episode struct {
	ID        string
	Kind      string
	Note      string
	Success   bool
	CreatedAt time.Time

	embedding []float32
}

// NewEpisode creates an episode with a fresh ID and the current time.
func NewEpisode(kind, note string, success bool) *Episode {
	return &Episode{
		ID:        uuid.New().String(),
		Kind:      kind,
		Note:      note,
		Success:   success,
		CreatedAt: time.Now(),
	}
}

// FromStorage rebuilds an episode deserialized by a Store.
func FromStorage(id, kind, note string, success bool, createdAt time.Time, embedding []float32) *Episode {
	return &Episode{
		ID:        id,
		Kind:      kind,
		Note:      note,
		Success:   success,
		CreatedAt: createdAt,
		embedding: embedding,
	}
}

// Embedding returns the vector for similarity search.
func (e *Episode) Embedding() []float32 {
	return e.embedding
}

// SetEmbedding sets the vector for similarity search.
func (e *Episode) SetEmbedding(emb []float32) {
	e.embedding = emb
}

// EmbeddingText is the textual form fed to the embedder.
func (e *Episode) EmbeddingText() string {
	outcome := "succeeded"
	if !e.Success {
		outcome = "failed"
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, outcome, e.Note)
}

// Format renders the episode for operator display.
func (e *Episode) Format() string {
	status := "ok"
	if !e.Success {
		status = "failed"
	}
	return fmt.Sprintf("[%s] %s %s (%s)",
		status, e.Kind, e.Note, e.CreatedAt.Format(time.RFC3339))
}
