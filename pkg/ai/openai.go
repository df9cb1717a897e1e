package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig defines configuration options for the OpenAI-compatible evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIEvaluator implements Evaluator against any OpenAI-compatible chat
// completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required: %w", ErrNotConfigured)
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIEvaluator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "openai_evaluator").Logger(),
	}, nil
}

// Evaluate sends one chat completion request and returns the generated narrative.
func (e *OpenAIEvaluator) Evaluate(parent context.Context, input PerformanceInput) (string, error) {
	ctx, cancel := context.WithTimeout(parent, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a learning coach. Write a short, encouraging evaluation of a learner's exam performance in plain prose.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPerformancePrompt(input),
			},
		},
	})
	aiDuration.WithLabelValues("openai", e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		// The SDK wraps transport failures in its own error types, so also
		// consult the context to recognise an expired deadline.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		} else {
			err = fmt.Errorf("openai evaluate: %w", err)
		}
		aiFailures.WithLabelValues("openai", e.cfg.Model, failureClass(err)).Inc()
		return "", err
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
		aiFailures.WithLabelValues("openai", e.cfg.Model, failureClass(err)).Inc()
		return "", err
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		err := fmt.Errorf("%w: empty completion", ErrMalformedResponse)
		aiFailures.WithLabelValues("openai", e.cfg.Model, failureClass(err)).Inc()
		return "", err
	}

	return text, nil
}
