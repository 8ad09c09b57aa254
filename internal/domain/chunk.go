package domain

import "context"

// ContextSeparator joins retrieved chunk texts into a single context string.
// It must not look like a natural document delimiter.
const ContextSeparator = "\n\n---\n\n"

// KeyPrefix namespaces every key askdoc writes to a shared store.
const KeyPrefix = "askdoc:"

// Chunk is a contiguous slice of the source document, the unit of retrieval.
type Chunk struct {
	ID   string
	Text string
}

// Entry is a chunk together with its embedding, as stored in a Collection.
type Entry struct {
	ID     string
	Text   string
	Vector []float32
}

// Hit is a single nearest-neighbour match. Score is a similarity (higher is closer).
type Hit struct {
	ID    string
	Text  string
	Score float64
}

// Collection stores chunk embeddings and answers k-nearest-neighbour queries.
//
// Upsert replaces an existing entry with the same ID; it never duplicates.
// Query returns at most k hits in the backend's ranking order and an empty
// slice (not an error) when nothing is stored.
type Collection interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// ContextFunc is the retrieve_context capability handed to the generation backend.
type ContextFunc func(ctx context.Context, question string) (string, error)
