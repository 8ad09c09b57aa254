// Package memory is an in-process domain.Collection with exact cosine search.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Compile-time check: Collection implements domain.Collection.
var _ domain.Collection = (*Collection)(nil)

type entry struct {
	domain.Entry
	norm float64
}

// Collection keeps entries in insertion order with an id index for upserts.
type Collection struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
	dim     int
}

// New creates an empty collection.
func New() *Collection {
	return &Collection{byID: make(map[string]int)}
}

// Upsert adds entries; an existing id is replaced in place and keeps its position.
// The whole batch is checked before anything is written, so a rejected batch stores nothing.
func (c *Collection) Upsert(_ context.Context, entries []domain.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dim := c.dim
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %s: empty vector", e.ID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %s: got %d, want %d: %w", e.ID, len(e.Vector), dim, domain.ErrVectorDimMismatch)
		}
	}
	c.dim = dim

	for _, e := range entries {
		stored := entry{
			Entry: domain.Entry{ID: e.ID, Text: e.Text, Vector: slices.Clone(e.Vector)},
			norm:  norm(e.Vector),
		}
		if i, ok := c.byID[e.ID]; ok {
			c.entries[i] = stored
			continue
		}
		c.byID[e.ID] = len(c.entries)
		c.entries = append(c.entries, stored)
	}
	return nil
}

// Query returns up to k entries by descending cosine similarity.
// Equal scores keep insertion order.
func (c *Collection) Query(_ context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return []domain.Hit{}, nil
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("query: got %d, want %d: %w", len(vector), c.dim, domain.ErrVectorDimMismatch)
	}

	qnorm := norm(vector)
	hits := make([]domain.Hit, len(c.entries))
	for i, e := range c.entries {
		hits[i] = domain.Hit{ID: e.ID, Text: e.Text, Score: cosine(vector, qnorm, e.Vector, e.norm)}
	}

	slices.SortStableFunc(hits, func(a, b domain.Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	return hits[:min(k, len(hits))], nil
}

// Count returns the number of stored entries.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// Reset drops every entry.
func (c *Collection) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.byID = make(map[string]int)
	c.dim = 0
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 for zero vectors rather than NaN.
func cosine(a []float32, na float64, b []float32, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
