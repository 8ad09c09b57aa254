package voice

import (
	"context"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Microphone opens a capture stream.
type Microphone interface {
	Open(ctx context.Context) (domain.Capture, error)
}

// Transcriber turns a WAV recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}
