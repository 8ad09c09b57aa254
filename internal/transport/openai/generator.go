package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdoc/internal/domain"
	"github.com/kailas-cloud/askdoc/internal/metrics"
)

// RetrieveToolName is the function name the model calls to fetch documentation context.
const RetrieveToolName = "retrieve_context"

var errToolRoundsExceeded = errors.New("tool call rounds exceeded")

// Generator answers prompts with OpenAI chat completions, exposing retrieval as a function tool.
type Generator struct {
	client    *openai.Client
	model     string
	maxRounds int
	logger    *zap.Logger
}

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxToolRounds int
	Logger        *zap.Logger
}

// NewGenerator creates a chat completion generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:    newClient(cfg.APIKey, cfg.BaseURL),
		model:     cfg.Model,
		maxRounds: rounds,
		logger:    logger,
	}
}

func retrieveTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        RetrieveToolName,
			Description: "Look up passages of the product documentation relevant to a question.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"question": {
						Type:        jsonschema.String,
						Description: "The question to search the documentation for.",
					},
				},
				Required: []string{"question"},
			},
		},
	}
}

// Generate sends the system and user prompts and resolves tool calls with retrieve until the
// model produces a final answer. A nil retrieve sends the request without tools.
func (g *Generator) Generate(
	ctx context.Context, system, prompt string, retrieve domain.ContextFunc,
) (string, error) {
	start := time.Now()
	answer, err := g.generate(ctx, system, prompt, retrieve)
	metrics.GenerationDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", err
	}
	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	return answer, nil
}

func (g *Generator) generate(
	ctx context.Context, system, prompt string, retrieve domain.ContextFunc,
) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 4)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{Model: g.model}
	if retrieve != nil {
		req.Tools = []openai.Tool{retrieveTool()}
	}

	// One extra round lets the model answer after its last permitted tool call.
	for round := 0; round <= g.maxRounds; round++ {
		req.Messages = messages

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("chat completion: %w: %w", ctx.Err(), domain.ErrGeneration)
			}
			return "", parseAPIError("chat", err, domain.ErrGeneration)
		}
		g.recordUsage(resp.Usage)

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty chat completion response: %w", domain.ErrGeneration)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		if round == g.maxRounds {
			break
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    g.callTool(ctx, call, retrieve),
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("%w after %d rounds: %w", errToolRoundsExceeded, g.maxRounds, domain.ErrGeneration)
}

// callTool runs one tool call and returns the text for the tool message.
// Problems are reported back to the model rather than failing the answer.
func (g *Generator) callTool(ctx context.Context, call openai.ToolCall, retrieve domain.ContextFunc) string {
	if call.Function.Name != RetrieveToolName || retrieve == nil {
		metrics.GenerationToolCallsTotal.WithLabelValues(call.Function.Name, "unknown").Inc()
		g.logger.Warn("model called unknown tool", zap.String("tool", call.Function.Name))
		return fmt.Sprintf("unknown tool %q", call.Function.Name)
	}

	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Question == "" {
		metrics.GenerationToolCallsTotal.WithLabelValues(RetrieveToolName, "bad_arguments").Inc()
		g.logger.Warn("malformed tool arguments", zap.String("arguments", call.Function.Arguments))
		return `invalid arguments: expected {"question": "<text>"}`
	}

	text, err := retrieve(ctx, args.Question)
	if err != nil {
		metrics.GenerationToolCallsTotal.WithLabelValues(RetrieveToolName, "error").Inc()
		return err.Error()
	}
	metrics.GenerationToolCallsTotal.WithLabelValues(RetrieveToolName, "success").Inc()
	return text
}

func (g *Generator) recordUsage(u openai.Usage) {
	if u.TotalTokens == 0 {
		return
	}
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(u.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(u.CompletionTokens))
}
