package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillforge",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"provider", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillforge",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"provider", "model", "class"})
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiConfig defines configuration options for the Gemini evaluator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// GeminiEvaluator implements Evaluator against the Gemini generateContent API.
type GeminiEvaluator struct {
	cfg        GeminiConfig
	httpClient *http.Client
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewGeminiEvaluator builds a new evaluator using the provided configuration.
// A missing or placeholder API key is reported on Evaluate, not here, so the
// scheduler can still run with fallback-only behaviour.
func NewGeminiEvaluator(cfg GeminiConfig) *GeminiEvaluator {
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GeminiEvaluator{
		cfg:        cfg,
		httpClient: &http.Client{},
		tracer:     otel.Tracer("github.com/noah-isme/skillforge-go-api/pkg/ai/gemini"),
		logger:     cfg.Logger.With().Str("component", "gemini_evaluator").Logger(),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Evaluate performs one generateContent call and extracts the generated text.
func (e *GeminiEvaluator) Evaluate(parent context.Context, input PerformanceInput) (string, error) {
	if key := strings.TrimSpace(e.cfg.APIKey); key == "" || strings.Contains(key, "YOUR_") {
		return "", fmt.Errorf("gemini api key missing or placeholder: %w", ErrNotConfigured)
	}

	ctx, span := e.tracer.Start(parent, "gemini.evaluate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPerformancePrompt(input)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", e.cfg.BaseURL, e.cfg.Model, e.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	aiDuration.WithLabelValues("gemini", e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", e.fail(span, classifyTransportError(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", e.fail(span, fmt.Errorf("read gemini response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(payload)}
		e.logger.Error().
			Int("status", resp.StatusCode).
			Str("class", apiErr.Classification()).
			Msg("gemini request failed")
		return "", e.fail(span, apiErr)
	}

	text, err := extractGeneratedText(payload)
	if err != nil {
		return "", e.fail(span, err)
	}

	return text, nil
}

func (e *GeminiEvaluator) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues("gemini", e.cfg.Model, failureClass(err)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// extractGeneratedText locates the generated text at the fixed path
// candidates[0].content.parts[0].text. Any deviation is a parse failure.
func extractGeneratedText(payload []byte) (string, error) {
	var decoded geminiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates in payload", ErrMalformedResponse)
	}

	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty generated text", ErrMalformedResponse)
	}

	return text, nil
}

func buildPerformancePrompt(input PerformanceInput) string {
	course := input.CourseID
	if course == "" {
		course = "General"
	}

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "Evaluate exam performance for course '%s': score %d out of 100 (%d of %d questions correct). ",
		course, input.Score, input.CorrectAnswers, input.TotalQuestions)
	builder.WriteString("Provide: performanceLevel, feedback, strengths, improvementAreas, recommendations. ")
	builder.WriteString("Respond with plain prose, no markdown.")
	return builder.String()
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("gemini request: %w", err)
}

func failureClass(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotConfigured):
		return "configuration"
	case errors.Is(err, ErrMalformedResponse):
		return "parse"
	case errors.As(err, &apiErr):
		return apiErr.Classification()
	default:
		return "network"
	}
}
