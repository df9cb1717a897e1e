package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, baseURL string, timeout time.Duration) *OpenAIEvaluator {
	t.Helper()
	evaluator, err := NewOpenAIEvaluator(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
		Timeout: timeout,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return evaluator
}

func TestOpenAIEvaluatorRequiresKey(t *testing.T) {
	_, err := NewOpenAIEvaluator(OpenAIConfig{Logger: zerolog.Nop()})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIEvaluateReturnsCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  Nice progress overall.  "}}]}`)
	}))
	defer server.Close()

	evaluator := newTestOpenAI(t, server.URL, 2*time.Second)
	text, err := evaluator.Evaluate(context.Background(), testInput())
	require.NoError(t, err)
	require.Equal(t, "Nice progress overall.", text)
}

func TestOpenAIEvaluateRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	evaluator := newTestOpenAI(t, server.URL, 2*time.Second)
	_, err := evaluator.Evaluate(context.Background(), testInput())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenAIEvaluateClassifiesDeadlineAsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	evaluator := newTestOpenAI(t, server.URL, 50*time.Millisecond)
	_, err := evaluator.Evaluate(context.Background(), testInput())
	require.ErrorIs(t, err, ErrTimeout, "an expired deadline must not be reported as a network failure")
}
