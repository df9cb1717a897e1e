package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillforge-go-api/internal/models"
	"github.com/noah-isme/skillforge-go-api/pkg/ai"
)

type fakeEvaluator struct {
	text  string
	err   error
	calls int
	input ai.PerformanceInput
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, input ai.PerformanceInput) (string, error) {
	f.calls++
	f.input = input
	return f.text, f.err
}

func newTestScheduler(store *fakeEvaluationRepo, evaluator ai.Evaluator, now time.Time) *EvaluationScheduler {
	return NewEvaluationScheduler(store, evaluator, nil, SchedulerConfig{
		Cooldown:      20 * time.Minute,
		SweepInterval: 5 * time.Minute,
		Clock:         func() time.Time { return now },
	}, testLogger())
}

func pendingResult(id uint, completedAt time.Time) models.ExamResult {
	minutes := 15
	return models.ExamResult{
		ID:               id,
		ExamID:           1,
		UserID:           7,
		CourseID:         "go-101",
		Score:            85,
		TotalQuestions:   10,
		CorrectAnswers:   8,
		Passed:           true,
		TimeTakenMinutes: &minutes,
		CompletedAt:      completedAt,
		EvaluationStatus: models.EvaluationStatusPending,
	}
}

func TestSchedulerSchedulesFreshPendingRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completedAt := now.Add(-5 * time.Minute)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, completedAt)}}
	evaluator := &fakeEvaluator{text: "great work"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	record := store.results[0]
	require.Equal(t, models.EvaluationStatusScheduled, record.EvaluationStatus)
	require.NotNil(t, record.ScheduledEvaluationTime)
	require.Equal(t, completedAt.Add(20*time.Minute), *record.ScheduledEvaluationTime)
	require.Nil(t, record.EvaluatedAt)
	require.Equal(t, 0, evaluator.calls, "evaluator must not run inside the cooldown window")
}

func TestSchedulerCompletesDueRecordWithAINarrative(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, now.Add(-25*time.Minute))}}
	evaluator := &fakeEvaluator{text: "<p>Strong grasp of goroutines.</p>"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	record := store.results[0]
	require.Equal(t, models.EvaluationStatusCompleted, record.EvaluationStatus)
	require.Equal(t, models.EvaluationSourceAI, record.EvaluationSource)
	require.Equal(t, "Strong grasp of goroutines.", record.AIEvaluation, "markup should be stripped from the narrative")
	require.NotNil(t, record.EvaluatedAt)
	require.Equal(t, now, *record.EvaluatedAt)

	// Structured fields always come from the deterministic engine.
	require.Equal(t, models.PerformanceGood, record.PerformanceLevel)
	require.NotEmpty(t, record.Strengths)
	require.NotEmpty(t, record.Recommendations)
	require.Equal(t, float64(85), record.DetailedAnalysis["accuracyRate"])
	require.Equal(t, TimeEfficiencyGoodPace, record.DetailedAnalysis["timeEfficiency"])

	require.Equal(t, 1, evaluator.calls)
	require.Equal(t, 85, evaluator.input.Score)
	require.Equal(t, "go-101", evaluator.input.CourseID)
}

func TestSchedulerFallsBackWhenAIFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, now.Add(-30*time.Minute))}}
	evaluator := &fakeEvaluator{err: &ai.APIError{StatusCode: 429, Body: "quota exceeded"}}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	record := store.results[0]
	require.Equal(t, models.EvaluationStatusCompleted, record.EvaluationStatus, "client failure must not block completion")
	require.Equal(t, models.EvaluationSourceFallback, record.EvaluationSource)
	require.Contains(t, record.AIEvaluation, models.PerformanceGood)
	require.NotNil(t, record.EvaluatedAt)
}

func TestSchedulerCompletesWithoutEvaluator(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, now.Add(-time.Hour))}}

	scheduler := newTestScheduler(store, nil, now)
	scheduler.Sweep(context.Background())

	record := store.results[0]
	require.Equal(t, models.EvaluationStatusCompleted, record.EvaluationStatus)
	require.Equal(t, models.EvaluationSourceFallback, record.EvaluationSource)
}

func TestSchedulerSweepIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, now.Add(-25*time.Minute))}}
	evaluator := &fakeEvaluator{text: "solid"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	evaluatedAt := store.results[0].EvaluatedAt
	require.NotNil(t, evaluatedAt)

	scheduler.Sweep(context.Background())

	require.Equal(t, 1, evaluator.calls, "completed records must not be re-evaluated")
	require.Equal(t, evaluatedAt, store.results[0].EvaluatedAt)
}

func TestSchedulerScheduledRecordWaitsUntilDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := pendingResult(1, now.Add(-10*time.Minute))
	dueAt := record.CompletedAt.Add(20 * time.Minute)
	record.EvaluationStatus = models.EvaluationStatusScheduled
	record.ScheduledEvaluationTime = &dueAt
	store := &fakeEvaluationRepo{results: []models.ExamResult{record}}
	evaluator := &fakeEvaluator{text: "solid"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	require.Equal(t, models.EvaluationStatusScheduled, store.results[0].EvaluationStatus)
	require.Equal(t, 0, evaluator.calls)
	require.Equal(t, 0, store.updateCalls, "a scheduled record inside its window needs no write")
}

func TestSchedulerMarksErrorWhenCompletionWriteFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{
		results:      []models.ExamResult{pendingResult(1, now.Add(-25 * time.Minute))},
		updateErr:    errors.New("connection reset"),
		failOnStatus: models.EvaluationStatusCompleted,
	}
	evaluator := &fakeEvaluator{text: "solid"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.Sweep(context.Background())

	record := store.results[0]
	require.Equal(t, models.EvaluationStatusError, record.EvaluationStatus)
	require.Nil(t, record.EvaluatedAt, "an errored record has no evaluation timestamp")
	require.Empty(t, record.EvaluationSource)
	require.Contains(t, record.AIEvaluation, "Evaluation failed:")
	require.Empty(t, record.Strengths)
	require.Nil(t, record.DetailedAnalysis)
}

func TestSchedulerDropsRacedTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := pendingResult(1, now.Add(-25*time.Minute))
	store := &fakeEvaluationRepo{results: []models.ExamResult{record}}
	evaluator := &fakeEvaluator{text: "solid"}

	// Another sweep finished the record between the fetch and the write.
	winner := store.results[0]
	winner.EvaluationStatus = models.EvaluationStatusCompleted
	evaluatedAt := now.Add(-time.Minute)
	winner.EvaluatedAt = &evaluatedAt
	store.results[0] = winner

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.transition(context.Background(), record)

	require.Equal(t, models.EvaluationStatusCompleted, store.results[0].EvaluationStatus)
	require.Equal(t, evaluatedAt, *store.results[0].EvaluatedAt, "losing transition must not overwrite the stored record")
}

func TestSchedulerIgnoresTerminalRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := pendingResult(1, now.Add(-time.Hour))
	record.EvaluationStatus = models.EvaluationStatusError
	store := &fakeEvaluationRepo{results: []models.ExamResult{record}}
	evaluator := &fakeEvaluator{text: "solid"}

	scheduler := newTestScheduler(store, evaluator, now)
	scheduler.transition(context.Background(), record)

	require.Equal(t, models.EvaluationStatusError, store.results[0].EvaluationStatus)
	require.Equal(t, 0, evaluator.calls)
	require.Equal(t, 0, store.updateCalls)
}

func TestSchedulerStartSweepsImmediatelyAndStops(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeEvaluationRepo{results: []models.ExamResult{pendingResult(1, now.Add(-25 * time.Minute))}}

	scheduler := newTestScheduler(store, nil, now)
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	require.Eventually(t, func() bool {
		return store.statusOf(1) == models.EvaluationStatusCompleted
	}, time.Second, 10*time.Millisecond)

	cancel()
}
