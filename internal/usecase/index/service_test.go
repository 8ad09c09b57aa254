package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/metrics"
	"github.com/kailas-cloud/askdoc/internal/repository/memory"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

// lenEmbedder embeds text as {len, 1} and counts calls; fails on the call numbered failAt.
type lenEmbedder struct {
	calls  int
	failAt int
}

func (e *lenEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.failAt > 0 && e.calls == e.failAt {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}, TotalTokens: 1}, nil
}

// mixedDimEmbedder returns a three-dimensional vector for odd and two dimensions otherwise.
type mixedDimEmbedder struct {
	odd string
}

func (e *mixedDimEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if text == e.odd {
		return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

type failingCollection struct {
	*memory.Collection
	upsertErr error
	resetErr  error
}

func (f *failingCollection) Upsert(ctx context.Context, entries []domain.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Collection.Upsert(ctx, entries)
}

func (f *failingCollection) Reset(ctx context.Context) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	return f.Collection.Reset(ctx)
}

func chunksOf(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{ID: string(rune('0' + i)), Text: t}
	}
	return out
}

// --- Tests ---

func TestBuild_IndexesEveryChunk(t *testing.T) {
	coll := memory.New()
	svc := New(coll, &lenEmbedder{}, 2, zap.NewNop())

	report, err := svc.Build(context.Background(), chunksOf("ABC", "DEF", "GHI", "J"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Chunks != 4 || report.Indexed != 4 || report.Tokens != 4 {
		t.Errorf("unexpected report: %+v", report)
	}
	if n, _ := coll.Count(context.Background()); n != 4 {
		t.Errorf("expected 4 entries, got %d", n)
	}
}

func TestBuild_ReAddingIDUpserts(t *testing.T) {
	coll := memory.New()
	svc := New(coll, &lenEmbedder{}, 0, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Build(ctx, chunksOf("first", "second")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Build(ctx, []domain.Chunk{{ID: "0", Text: "replaced"}}); err != nil {
		t.Fatal(err)
	}

	if n, _ := coll.Count(ctx); n != 2 {
		t.Fatalf("expected 2 entries after re-adding id 0, got %d", n)
	}
	hits, err := coll.Query(ctx, []float32{8, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.ID == "0" {
			found = true
			if h.Text != "replaced" {
				t.Errorf("expected replaced text, got %q", h.Text)
			}
		}
	}
	if !found {
		t.Error("id 0 missing after upsert")
	}
}

func TestBuild_EmbeddingFailureKeepsPartialIndex(t *testing.T) {
	coll := memory.New()
	svc := New(coll, &lenEmbedder{failAt: 3}, 1, zap.NewNop())

	report, err := svc.Build(context.Background(), chunksOf("a", "b", "c", "d"))
	if !errors.Is(err, domain.ErrIndexing) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrIndexing wrapping provider error, got %v", err)
	}
	if report.Indexed != 2 {
		t.Errorf("expected 2 chunks indexed before failure, got %d", report.Indexed)
	}
	if n, _ := coll.Count(context.Background()); n != 2 {
		t.Errorf("expected partial index of 2, got %d", n)
	}
}

func TestBuild_RejectedBatchMatchesReport(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		want      int
	}{
		{"single batch", 0, 0},
		{"batches of two", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll := memory.New()
			svc := New(coll, &mixedDimEmbedder{odd: "c"}, tt.batchSize, zap.NewNop())

			report, err := svc.Build(context.Background(), chunksOf("a", "b", "c", "d"))
			if !errors.Is(err, domain.ErrIndexing) || !errors.Is(err, domain.ErrVectorDimMismatch) {
				t.Fatalf("expected ErrIndexing wrapping dimension mismatch, got %v", err)
			}
			n, _ := coll.Count(context.Background())
			if report.Indexed != tt.want || n != tt.want {
				t.Errorf("expected %d indexed and stored, got report=%d count=%d", tt.want, report.Indexed, n)
			}
			if got := testutil.ToFloat64(metrics.IndexedChunks); got != float64(tt.want) {
				t.Errorf("expected indexed chunks gauge %d, got %v", tt.want, got)
			}
		})
	}
}

func TestBuild_StorageFailure(t *testing.T) {
	coll := &failingCollection{Collection: memory.New(), upsertErr: errors.New("redis down")}
	svc := New(coll, &lenEmbedder{}, 0, zap.NewNop())

	_, err := svc.Build(context.Background(), chunksOf("a"))
	if !errors.Is(err, domain.ErrIndexing) {
		t.Fatalf("expected ErrIndexing, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	emb := &lenEmbedder{}
	svc := New(memory.New(), emb, 0, zap.NewNop())

	report, err := svc.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 0 || emb.calls != 0 {
		t.Errorf("expected no work, got report=%+v calls=%d", report, emb.calls)
	}
}

func writeDoc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "documentation.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ChunksAndIndexes(t *testing.T) {
	coll := memory.New()
	svc := New(coll, &lenEmbedder{}, 0, zap.NewNop())
	ctx := context.Background()

	// Stale entry from a previous build must not survive.
	if err := coll.Upsert(ctx, []domain.Entry{{ID: "stale", Text: "old", Vector: []float32{1, 1}}}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Load(ctx, writeDoc(t, "ABCDEFGHIJ"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Chunks != 4 {
		t.Errorf("expected 4 chunks, got %d", report.Chunks)
	}
	if n, _ := coll.Count(ctx); n != 4 {
		t.Errorf("expected 4 entries after reset and build, got %d", n)
	}
}

func TestLoad_MissingDocument(t *testing.T) {
	svc := New(memory.New(), &lenEmbedder{}, 0, zap.NewNop())

	_, err := svc.Load(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), 300)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestLoad_InvalidChunkSize(t *testing.T) {
	svc := New(memory.New(), &lenEmbedder{}, 0, zap.NewNop())

	_, err := svc.Load(context.Background(), writeDoc(t, "text"), 0)
	if !errors.Is(err, domain.ErrInvalidChunkSize) {
		t.Fatalf("expected ErrInvalidChunkSize, got %v", err)
	}
}

func TestLoad_ResetFailure(t *testing.T) {
	coll := &failingCollection{Collection: memory.New(), resetErr: errors.New("dropindex failed")}
	svc := New(coll, &lenEmbedder{}, 0, zap.NewNop())

	_, err := svc.Load(context.Background(), writeDoc(t, strings.Repeat("x", 10)), 3)
	if !errors.Is(err, domain.ErrIndexing) {
		t.Fatalf("expected ErrIndexing, got %v", err)
	}
}
