package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/logger"
	"github.com/kailas-cloud/askdoc/internal/metrics"
)

// Sentinel is the input that switches a turn to voice; Alias is accepted too.
const (
	Sentinel = "v"
	Alias    = "speak"
)

// captureGrace is added to the audio-time bounds to get the wall-clock bound on a capture.
const captureGrace = 2 * time.Second

// Stage reports capture progress to the user interface.
type Stage string

// Capture stages.
const (
	StageCalibrating  Stage = "calibrating"
	StageListening    Stage = "listening"
	StageTranscribing Stage = "transcribing"
)

// Settings bounds a single capture.
type Settings struct {
	Calibration time.Duration
	Timeout     time.Duration
	PhraseLimit time.Duration
	Grace       time.Duration // added to the audio bounds for the recorder deadline, 0 = captureGrace
}

// Service resolves a turn's raw input into a question.
type Service struct {
	mic      Microphone
	stt      Transcriber
	settings Settings
	onStage  func(Stage)
}

// New creates an input adapter.
func New(mic Microphone, stt Transcriber, settings Settings) *Service {
	return &Service{mic: mic, stt: stt, settings: settings, onStage: func(Stage) {}}
}

// OnStage registers a progress callback.
func (s *Service) OnStage(fn func(Stage)) {
	if fn != nil {
		s.onStage = fn
	}
}

// IsVoiceSentinel reports whether input asks for a spoken question.
func IsVoiceSentinel(input string) bool {
	t := strings.TrimSpace(input)
	return strings.EqualFold(t, Sentinel) || strings.EqualFold(t, Alias)
}

// ResolveQuestion returns the question for a turn. Typed input is trimmed and used as is.
// The voice sentinel triggers a capture; when it yields nothing, ok is false and err carries
// domain.ErrNoSpeech, domain.ErrUnintelligible or domain.ErrSpeechService.
func (s *Service) ResolveQuestion(ctx context.Context, raw string) (string, bool, error) {
	if !IsVoiceSentinel(raw) {
		q := strings.TrimSpace(raw)
		return q, q != "", nil
	}

	q, err := s.Capture(ctx)
	if err != nil {
		return "", false, err
	}
	return q, true, nil
}

// Capture runs one calibrate, listen and transcribe cycle.
func (s *Service) Capture(ctx context.Context) (string, error) {
	log := logger.FromContext(ctx)

	text, err := s.capture(ctx)
	outcome := outcomeOf(err)
	metrics.VoiceCapturesTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		log.Info("voice capture yielded no question", zap.String("outcome", outcome), zap.Error(err))
		return "", err
	}

	log.Debug("voice question transcribed", zap.String("question", text))
	return text, nil
}

func (s *Service) capture(ctx context.Context) (string, error) {
	grace := s.settings.Grace
	if grace <= 0 {
		grace = captureGrace
	}
	bound := s.settings.Calibration + s.settings.Timeout + s.settings.PhraseLimit + grace
	recCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	// A recorder that delivers no audio is killed at the deadline; the
	// resulting read failure means nobody was heard, not a broken service.
	stopped := func(err error) error {
		if ctx.Err() == nil && errors.Is(recCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("recorder stopped after %s: %w", bound, domain.ErrNoSpeech)
		}
		return classify(err)
	}

	session, err := s.mic.Open(recCtx)
	if err != nil {
		return "", classify(err)
	}
	defer func() { _ = session.Close() }()

	s.onStage(StageCalibrating)
	if err := session.Calibrate(s.settings.Calibration); err != nil {
		return "", stopped(err)
	}

	s.onStage(StageListening)
	wav, err := session.Listen(s.settings.Timeout, s.settings.PhraseLimit)
	if err != nil {
		return "", stopped(err)
	}
	// Stop recording before the network round trip.
	_ = session.Close()

	s.onStage(StageTranscribing)
	text, err := s.stt.Transcribe(ctx, wav)
	if err != nil {
		return "", classify(err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return "", fmt.Errorf("empty transcript: %w", domain.ErrUnintelligible)
	}
	return text, nil
}

// classify keeps known speech errors and files everything else as a service failure.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoSpeech),
		errors.Is(err, domain.ErrUnintelligible),
		errors.Is(err, domain.ErrSpeechService):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrSpeechService, err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoSpeech):
		return "no_speech"
	case errors.Is(err, domain.ErrUnintelligible):
		return "unintelligible"
	default:
		return "service_error"
	}
}
