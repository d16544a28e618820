// Package narrative turns a compact delta summary into free-text commentary
// via an OpenAI-compatible chat completions endpoint.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const (
	// FallbackComment replaces the commentary block when generation fails;
	// the report is still sent.
	FallbackComment = "(commentary generation failed — sending the metric summary only today.)"
	// InsufficientDataComment is used when there is nothing to analyse.
	InsufficientDataComment = "(not enough metric data for commentary.)"
)

const systemPrompt = "You are a performance-marketing and ad-tech analyst. " +
	"You read numeric changes in advertising metrics and call out anomalies " +
	"objectively, proposing actions grounded in the numbers. Never exaggerate."

const userPromptTemplate = `Below is a day-over-day change summary of ad performance data.

%s

Write a short analysis with exactly this structure:
1) Top anomaly (one line)
2) Two brief hypotheses for the cause
3) Three actions to try (keyword, CPC, creative, device, or budget angle)

Formatting rules:
- This is rendered in Slack. Emphasis uses a single asterisk (*bold*).
- Never output double asterisks (**); they break Slack rendering.`

// Generator produces commentary for a metric summary.
type Generator interface {
	Commentary(ctx context.Context, summary string) (string, error)
}

// Options configure the chat completions client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// ChatGenerator talks to an OpenAI-compatible chat endpoint.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	temperature float64
	logger      zerolog.Logger
}

// NewChatGenerator builds a generator from options.
func NewChatGenerator(opts Options, logger zerolog.Logger) *ChatGenerator {
	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &ChatGenerator{
		client:      &client,
		model:       opts.Model,
		temperature: opts.Temperature,
		logger:      logger.With().Str("component", "narrative").Logger(),
	}
}

// Commentary asks the model for analysis of the summary text.
func (g *ChatGenerator) Commentary(ctx context.Context, summary string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, summary)),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	g.logger.Debug().Str("model", g.model).Int("chars", len(content)).Msg("commentary generated")
	return content, nil
}

var _ Generator = (*ChatGenerator)(nil)
