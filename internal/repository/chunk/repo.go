// Package chunk is a domain.Collection backed by Redis hashes and an FT vector index.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/kailas-cloud/askdoc/internal/db"
	"github.com/kailas-cloud/askdoc/internal/db/redis"
	"github.com/kailas-cloud/askdoc/internal/domain"
)

const (
	fieldID     = "id"
	fieldText   = "text"
	fieldSeq    = "seq"
	fieldVector = "vector"
)

// store is the consumer interface for chunk storage (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Options describes the index layout.
type Options struct {
	KeyPrefix       string // e.g. "askdoc:"
	Collection      string
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
}

// Compile-time check: Repo implements domain.Collection.
var _ domain.Collection = (*Repo)(nil)

// Repo stores chunks as HASH keys <prefix><collection>:<id>.
// HSET overwrites, so re-adding an id replaces the previous entry.
type Repo struct {
	store store
	opts  Options
	seq   atomic.Int64
}

// New creates a chunk repository. Reset must run before the first Upsert
// so the index exists.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// IndexName returns the FT index name for the collection.
func (r *Repo) IndexName() string {
	return r.opts.KeyPrefix + "idx:" + r.opts.Collection
}

func (r *Repo) keyPrefix() string {
	return r.opts.KeyPrefix + r.opts.Collection + ":"
}

func (r *Repo) key(id string) string {
	return r.keyPrefix() + id
}

// Upsert writes entries in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, entries []domain.Entry) error {
	items := make([]db.HashSetItem, len(entries))
	for i, e := range entries {
		if len(e.Vector) != r.opts.Dimensions {
			return fmt.Errorf("entry %s: got %d, want %d: %w",
				e.ID, len(e.Vector), r.opts.Dimensions, domain.ErrVectorDimMismatch)
		}
		items[i] = db.HashSetItem{
			Key: r.key(e.ID),
			Fields: map[string]string{
				fieldID:     e.ID,
				fieldText:   e.Text,
				fieldSeq:    strconv.FormatInt(r.seq.Add(1), 10),
				fieldVector: redis.VectorToBytes(e.Vector),
			},
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return nil
}

// Query runs a KNN search; hits keep the engine's order.
func (r *Repo) Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	if len(vector) != r.opts.Dimensions {
		return nil, fmt.Errorf("query: got %d, want %d: %w", len(vector), r.opts.Dimensions, domain.ErrVectorDimMismatch)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		VectorField:  fieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldID, fieldText},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	hits := make([]domain.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domain.Hit{
			ID:    e.Fields[fieldID],
			Text:  e.Fields[fieldText],
			Score: e.Score,
		})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.IndexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Reset drops the index with its documents, removes stray keys and recreates
// an empty index, so nothing survives from a previous run.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.IndexName(), true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}

	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan stale chunks: %w", err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	def, err := r.indexDefinition()
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	r.seq.Store(0)
	return nil
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.IndexName()).
		Prefix(r.keyPrefix()).
		Tag(fieldID).
		Numeric(fieldSeq)
	if r.opts.HNSWM > 0 {
		b = b.VectorHNSW(fieldVector, r.opts.Dimensions, db.DistanceCosine, r.opts.HNSWM, r.opts.HNSWEFConstruct)
	} else {
		b = b.VectorFlat(fieldVector, r.opts.Dimensions, db.DistanceCosine)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}
