package answer

import (
	"context"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Generator produces an answer, calling retrieve as a tool as often as it needs.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, retrieve domain.ContextFunc) (string, error)
}
