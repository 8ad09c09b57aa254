package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Transcriber converts WAV audio into text with the OpenAI transcription API.
type Transcriber struct {
	client   *openai.Client
	model    string
	language string
}

// TranscriberConfig holds the transcription settings.
type TranscriberConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string // ISO-639-1, empty = auto-detect
}

// NewTranscriber creates a speech-to-text client.
func NewTranscriber(cfg *TranscriberConfig) *Transcriber {
	return &Transcriber{
		client:   newClient(cfg.APIKey, cfg.BaseURL),
		model:    cfg.Model,
		language: cfg.Language,
	}
}

// Transcribe returns the transcript of a WAV recording.
// An empty transcript yields domain.ErrUnintelligible, API failures domain.ErrSpeechService.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "question.wav",
		Reader:   bytes.NewReader(wav),
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", parseAPIError("transcription", err, domain.ErrSpeechService)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty transcript: %w", domain.ErrUnintelligible)
	}
	return text, nil
}
