package index

import (
	"context"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Collection is the write side of the chunk store.
type Collection interface {
	Upsert(ctx context.Context, entries []domain.Entry) error
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}
