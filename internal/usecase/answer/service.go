package answer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/logger"
)

// NoInformation is shown to the user and handed to the model when retrieval fails or finds nothing.
const NoInformation = "I could not find relevant information."

// DefaultTimeout bounds a single answer when Options.Timeout is unset.
const DefaultTimeout = 60 * time.Second

// Options configures the answering service.
type Options struct {
	Persona  string        // system prompt
	Template string        // user prompt, %s is replaced with the question
	Timeout  time.Duration // bound on one answer including tool rounds
}

// Result is the outcome of one answered question.
type Result struct {
	Answer          string
	Retrievals      int
	RetrievalFailed bool
}

// Service composes retrieval and generation for a single question.
type Service struct {
	gen      Generator
	retrieve domain.ContextFunc
	opts     Options
}

// New creates an answering service. retrieve is exposed to the generator as its only tool.
func New(gen Generator, retrieve domain.ContextFunc, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Template == "" {
		opts.Template = "%s"
	}
	return &Service{gen: gen, retrieve: retrieve, opts: opts}
}

// Prompt substitutes question into the template.
func (s *Service) Prompt(question string) string {
	return strings.Replace(s.opts.Template, "%s", question, 1)
}

// Answer asks the generation backend for an answer within the configured timeout.
// A failed retrieval does not fail the answer: the model is told NoInformation and
// Result.RetrievalFailed is set. Backend failures wrap domain.ErrGeneration.
func (s *Service) Answer(ctx context.Context, question string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	log := logger.FromContext(ctx)
	var res Result

	tool := func(ctx context.Context, q string) (string, error) {
		res.Retrievals++
		text, err := s.retrieve(ctx, q)
		if err != nil {
			res.RetrievalFailed = true
			log.Warn("retrieval failed", zap.String("query", q), zap.Error(err))
			return NoInformation, nil
		}
		if text == "" {
			return NoInformation, nil
		}
		return text, nil
	}

	start := time.Now()
	answer, err := s.gen.Generate(ctx, s.opts.Persona, s.Prompt(question), tool)
	if err != nil {
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		log.Error("generation failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return res, err
	}

	res.Answer = strings.TrimSpace(answer)
	log.Info("question answered",
		zap.Int("retrievals", res.Retrievals),
		zap.Bool("retrieval_failed", res.RetrievalFailed),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// LoadPersona reads the system prompt from path. An empty path returns fallback.
func LoadPersona(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read persona: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
