package ai

import (
	"context"
	"errors"
	"fmt"
)

// PerformanceInput carries the graded outcome an evaluator should narrate.
type PerformanceInput struct {
	Score          int
	TotalQuestions int
	CorrectAnswers int
	CourseID       string
}

// Percentage returns the score as a percentage of the maximum.
func (in PerformanceInput) Percentage() float64 {
	return float64(in.Score)
}

// Evaluator describes a generative model capable of producing a performance
// narrative for a graded exam. Implementations make exactly one outbound
// call per invocation and never retry internally.
type Evaluator interface {
	Evaluate(ctx context.Context, input PerformanceInput) (string, error)
}

// ErrNotConfigured indicates the provider credential is missing or still a
// placeholder value.
var ErrNotConfigured = errors.New("ai evaluator is not configured")

// ErrTimeout indicates the call exceeded its deadline.
var ErrTimeout = errors.New("ai evaluation timed out")

// ErrMalformedResponse indicates the provider payload did not match the
// expected shape.
var ErrMalformedResponse = errors.New("malformed ai response")

// APIError is a non-200 response from the provider. The classification only
// matters for diagnostics; every class funnels to the same fallback path.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("ai api error (%d): %s", e.StatusCode, e.Classification())
}

// Classification names the failure class of the status code.
func (e *APIError) Classification() string {
	switch {
	case e.StatusCode == 400:
		return "malformed request"
	case e.StatusCode == 401 || e.StatusCode == 403:
		return "credential rejected"
	case e.StatusCode == 404:
		return "unknown model"
	case e.StatusCode == 429:
		return "rate limited"
	case e.StatusCode >= 500:
		return "upstream failure"
	default:
		return "unexpected status"
	}
}
