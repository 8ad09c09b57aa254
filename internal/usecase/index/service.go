package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/chunker"
	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/metrics"
)

// DefaultBatchSize is the number of chunks embedded and stored per step.
const DefaultBatchSize = 64

// Report summarizes an index build.
// On failure Indexed counts the chunks written before the error; they are not rolled back.
type Report struct {
	Chunks   int
	Indexed  int
	Tokens   int
	Duration time.Duration
}

// Service embeds chunks and stores them in the collection.
type Service struct {
	coll      Collection
	embed     domain.Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates an index service. batchSize <= 0 uses DefaultBatchSize.
func New(coll Collection, embed domain.Embedder, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{coll: coll, embed: embed, batchSize: batchSize, logger: logger}
}

// Build embeds every chunk and upserts (id, text, vector) into the collection.
// Re-adding an id replaces the previous entry.
func (s *Service) Build(ctx context.Context, chunks []domain.Chunk) (Report, error) {
	start := time.Now()
	report := Report{Chunks: len(chunks)}
	// A failed build leaves a partial index; the gauge tracks it either way.
	defer s.recordCount(ctx)

	for offset := 0; offset < len(chunks); offset += s.batchSize {
		batch := chunks[offset:min(offset+s.batchSize, len(chunks))]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		res, err := domain.BatchEmbed(ctx, s.embed, texts)
		if err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("%w: embed chunks %s..%s: %w",
				domain.ErrIndexing, batch[0].ID, batch[len(batch)-1].ID, err)
		}
		if len(res.Embeddings) != len(batch) {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("%w: expected %d embeddings, got %d",
				domain.ErrIndexing, len(batch), len(res.Embeddings))
		}

		entries := make([]domain.Entry, len(batch))
		for i, c := range batch {
			entries[i] = domain.Entry{ID: c.ID, Text: c.Text, Vector: res.Embeddings[i]}
		}
		if err := s.coll.Upsert(ctx, entries); err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("%w: store chunks %s..%s: %w",
				domain.ErrIndexing, batch[0].ID, batch[len(batch)-1].ID, err)
		}

		report.Indexed += len(batch)
		report.Tokens += res.TotalTokens
		s.logger.Debug("indexed batch", zap.Int("offset", offset), zap.Int("size", len(batch)))
	}

	report.Duration = time.Since(start)

	s.logger.Info("document indexed",
		zap.Int("chunks", report.Chunks),
		zap.Int("tokens", report.Tokens),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) recordCount(ctx context.Context) {
	n, err := s.coll.Count(ctx)
	if err != nil {
		s.logger.Warn("count indexed chunks", zap.Error(err))
		return
	}
	metrics.IndexedChunks.Set(float64(n))
}

// Load reads the document at path, chunks it, clears the collection and builds the index.
// A missing document yields domain.ErrDocumentNotFound.
func (s *Service) Load(ctx context.Context, path string, chunkSize int) (Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, fmt.Errorf("%s: %w", path, domain.ErrDocumentNotFound)
		}
		return Report{}, fmt.Errorf("read document: %w", err)
	}

	chunks, err := chunker.Split(string(data), chunkSize)
	if err != nil {
		return Report{}, fmt.Errorf("chunk document: %w", err)
	}

	if err := s.coll.Reset(ctx); err != nil {
		return Report{}, fmt.Errorf("%w: reset collection: %w", domain.ErrIndexing, err)
	}

	return s.Build(ctx, chunks)
}
