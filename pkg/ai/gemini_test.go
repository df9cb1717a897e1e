package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testInput() PerformanceInput {
	return PerformanceInput{
		Score:          85,
		TotalQuestions: 10,
		CorrectAnswers: 8,
		CourseID:       "go-101",
	}
}

func newTestGemini(baseURL string) *GeminiEvaluator {
	return NewGeminiEvaluator(GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-pro",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
	})
}

func TestGeminiEvaluateExtractsGeneratedText(t *testing.T) {
	var capturedPath string
	var capturedBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"  Solid performance overall.  "}]}}]}`)
	}))
	defer server.Close()

	evaluator := newTestGemini(server.URL)
	text, err := evaluator.Evaluate(context.Background(), testInput())
	require.NoError(t, err)
	require.Equal(t, "Solid performance overall.", text)

	require.Equal(t, "/gemini-pro:generateContent", capturedPath)
	require.Len(t, capturedBody.Contents, 1)
	require.Len(t, capturedBody.Contents[0].Parts, 1)
	require.Contains(t, capturedBody.Contents[0].Parts[0].Text, "go-101")
	require.Contains(t, capturedBody.Contents[0].Parts[0].Text, "8 of 10")
}

func TestGeminiEvaluateClassifiesAPIErrors(t *testing.T) {
	cases := []struct {
		status int
		class  string
	}{
		{http.StatusBadRequest, "malformed request"},
		{http.StatusUnauthorized, "credential rejected"},
		{http.StatusForbidden, "credential rejected"},
		{http.StatusNotFound, "unknown model"},
		{http.StatusTooManyRequests, "rate limited"},
		{http.StatusInternalServerError, "upstream failure"},
		{http.StatusServiceUnavailable, "upstream failure"},
	}

	for _, tc := range cases {
		t.Run(tc.class, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"nope"}}`)
			}))
			defer server.Close()

			evaluator := newTestGemini(server.URL)
			_, err := evaluator.Evaluate(context.Background(), testInput())
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.class, apiErr.Classification())
		})
	}
}

func TestGeminiEvaluateRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"candidates":[`},
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			evaluator := newTestGemini(server.URL)
			_, err := evaluator.Evaluate(context.Background(), testInput())
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGeminiEvaluateRejectsPlaceholderKey(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	for _, key := range []string{"", "   ", "YOUR_API_KEY_HERE"} {
		evaluator := NewGeminiEvaluator(GeminiConfig{
			APIKey:  key,
			BaseURL: server.URL,
			Logger:  zerolog.Nop(),
		})

		_, err := evaluator.Evaluate(context.Background(), testInput())
		require.ErrorIs(t, err, ErrNotConfigured)
	}

	require.Equal(t, 0, requests, "a misconfigured client must not call the provider")
}

func TestGeminiEvaluateTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	evaluator := NewGeminiEvaluator(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
		Logger:  zerolog.Nop(),
	})

	_, err := evaluator.Evaluate(context.Background(), testInput())
	require.ErrorIs(t, err, ErrTimeout)
}

func TestGeminiEvaluateNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	evaluator := newTestGemini(server.URL)
	_, err := evaluator.Evaluate(context.Background(), testInput())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrTimeout))
	require.False(t, errors.Is(err, ErrNotConfigured))
}
