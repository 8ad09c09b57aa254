package retrieve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/logger"
	"github.com/kailas-cloud/askdoc/internal/metrics"
)

// Service turns a question into context text from the nearest chunks.
type Service struct {
	coll  Collection
	embed Embedder
}

// New creates a retrieval service.
func New(coll Collection, embed Embedder) *Service {
	return &Service{coll: coll, embed: embed}
}

// Retrieve returns the texts of the k chunks nearest to query, in the collection's ranking
// order, joined by domain.ContextSeparator. An empty collection yields "".
func (s *Service) Retrieve(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		return "", fmt.Errorf("k=%d: %w", k, domain.ErrInvalidTopK)
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrieval, err)
	}

	hits, err := s.coll.Query(ctx, emb.Embedding, k)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: query collection: %w", domain.ErrRetrieval, err)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("success").Inc()
	metrics.RetrievalHits.Observe(float64(len(hits)))

	texts := make([]string, len(hits))
	ids := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
		ids[i] = h.ID
	}

	logger.FromContext(ctx).Debug("context retrieved",
		zap.String("query", query),
		zap.Strings("chunk_ids", ids),
	)

	return strings.Join(texts, domain.ContextSeparator), nil
}

// Tool binds k and returns the retrieve_context capability for the generation backend.
func (s *Service) Tool(k int) domain.ContextFunc {
	return func(ctx context.Context, question string) (string, error) {
		return s.Retrieve(ctx, question, k)
	}
}
