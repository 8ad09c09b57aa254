package audio

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Recorder starts a raw PCM stream.
type Recorder interface {
	Start(ctx context.Context) (io.ReadCloser, error)
}

// Microphone opens capture sessions on a recorder.
type Microphone struct {
	recorder Recorder
	cfg      ListenerConfig
	logger   *zap.Logger
}

// NewMicrophone creates a microphone over the given recorder.
func NewMicrophone(recorder Recorder, cfg ListenerConfig, logger *zap.Logger) *Microphone {
	return &Microphone{recorder: recorder, cfg: cfg, logger: logger}
}

// Open starts the recorder. The session must be closed to stop it.
func (m *Microphone) Open(ctx context.Context) (domain.Capture, error) {
	stream, err := m.recorder.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("open microphone: %v: %w", err, domain.ErrSpeechService)
	}
	return &session{stream: stream, listener: NewListener(m.cfg), logger: m.logger}, nil
}

type session struct {
	stream   io.ReadCloser
	listener *Listener
	logger   *zap.Logger
}

func (s *session) Calibrate(d time.Duration) error {
	if err := s.listener.Calibrate(s.stream, d); err != nil {
		return err
	}
	s.logger.Debug("microphone calibrated", zap.Float64("threshold", s.listener.Threshold()))
	return nil
}

func (s *session) Listen(timeout, phraseLimit time.Duration) ([]byte, error) {
	wav, err := s.listener.Listen(s.stream, timeout, phraseLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("phrase captured", zap.Int("bytes", len(wav)))
	return wav, nil
}

func (s *session) Close() error {
	return s.stream.Close() //nolint:wrapcheck // recorder shutdown
}
