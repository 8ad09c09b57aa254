// Package repl is the interactive question loop on standard input and output.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/logger"
	"github.com/kailas-cloud/askdoc/internal/metrics"
	"github.com/kailas-cloud/askdoc/internal/usecase/answer"
	"github.com/kailas-cloud/askdoc/internal/usecase/voice"
)

// User-facing messages.
const (
	MsgGenerationFailed = "Sorry, something went wrong while answering. Please try again."
	MsgNoSpeech         = "No speech detected. Please try again."
	MsgUnintelligible   = "Sorry, I could not understand what you said."
	MsgSpeechService    = "The speech service is unavailable right now. Type your question or try again."
	MsgGoodbye          = "Goodbye!"
)

// Resolver turns raw input into a question.
type Resolver interface {
	ResolveQuestion(ctx context.Context, raw string) (string, bool, error)
}

// Answerer answers a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (answer.Result, error)
}

// Loop reads questions until an exit word, EOF or cancellation.
// Turns run one at a time; no error inside a turn ends the loop.
type Loop struct {
	in       io.Reader
	out      io.Writer
	resolver Resolver
	answerer Answerer
	logger   *zap.Logger
	styles   Styles
}

// New creates a REPL loop.
func New(in io.Reader, out io.Writer, resolver Resolver, answerer Answerer, logger *zap.Logger) *Loop {
	return &Loop{
		in:       in,
		out:      out,
		resolver: resolver,
		answerer: answerer,
		logger:   logger,
		styles:   NewStyles(out),
	}
}

// IsExit reports whether input ends the session.
func IsExit(input string) bool {
	t := strings.TrimSpace(input)
	return strings.EqualFold(t, "exit") || strings.EqualFold(t, "quit")
}

// Run drives the loop. It returns nil on exit, EOF or cancellation, and the read error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := l.readLines(done)

	l.printf("%s\n%s\n\n",
		l.styles.Title.Render("askdoc"),
		l.styles.Muted.Render(fmt.Sprintf("Ask about the documentation. Type '%s' to speak, 'exit' to quit.", voice.Sentinel)),
	)

	for {
		l.printf("%s ", l.styles.Prompt.Render("You:"))

		var line string
		select {
		case <-ctx.Done():
			l.printf("\n%s\n", MsgGoodbye)
			return nil
		case text, ok := <-lines:
			if !ok {
				l.printf("\n%s\n", MsgGoodbye)
				return <-readErr
			}
			line = text
		}

		if IsExit(line) {
			l.printf("%s\n", MsgGoodbye)
			return nil
		}
		l.turn(ctx, line)
	}
}

// ShowStage prints voice capture progress.
func (l *Loop) ShowStage(stage voice.Stage) {
	switch stage {
	case voice.StageCalibrating:
		l.printf("%s\n", l.styles.Muted.Render("Calibrating for background noise..."))
	case voice.StageListening:
		l.printf("%s\n", l.styles.Notice.Render("Listening... ask your question."))
	case voice.StageTranscribing:
		l.printf("%s\n", l.styles.Muted.Render("Transcribing..."))
	}
}

func (l *Loop) turn(ctx context.Context, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	ctx, _ = logger.StartTurn(ctx, l.logger)
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panicked", zap.Any("panic", r), zap.Stack("stack"))
			metrics.TurnsTotal.WithLabelValues("panic").Inc()
			l.printf("%s\n", l.styles.Error.Render(MsgGenerationFailed))
		}
	}()

	question, ok, err := l.resolver.ResolveQuestion(ctx, raw)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("no_question").Inc()
		l.printf("%s\n", l.styles.Notice.Render(VoiceMessage(err)))
		return
	}
	if !ok {
		return
	}
	if voice.IsVoiceSentinel(raw) {
		l.printf("%s %s\n", l.styles.Muted.Render("You said:"), question)
	}

	res, err := l.answerer.Answer(ctx, question)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("generation_error").Inc()
		l.printf("%s\n", l.styles.Error.Render(MsgGenerationFailed))
		return
	}

	if res.RetrievalFailed {
		l.printf("%s\n", l.styles.Notice.Render(answer.NoInformation))
	}
	metrics.TurnsTotal.WithLabelValues("answered").Inc()
	l.printf("%s %s\n\n", l.styles.Assistant.Render("Assistant:"), res.Answer)
}

// VoiceMessage maps a capture failure to the line shown to the user.
func VoiceMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSpeech):
		return MsgNoSpeech
	case errors.Is(err, domain.ErrUnintelligible):
		return MsgUnintelligible
	default:
		return MsgSpeechService
	}
}

// readLines feeds input lines to a channel so a blocked read does not delay cancellation.
func (l *Loop) readLines(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(l.in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
	}()

	return lines, errc
}

func (l *Loop) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}
