package retrieve

import (
	"context"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Collection is the read side of the chunk store.
type Collection interface {
	Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error)
}

// Embedder vectorizes the query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
