package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/skillforge-go-api/internal/models"
	"github.com/noah-isme/skillforge-go-api/internal/observability"
	"github.com/noah-isme/skillforge-go-api/internal/repository"
	"github.com/noah-isme/skillforge-go-api/pkg/ai"
)

// sweepStatuses are the pre-transition statuses a record may hold. Status is
// the concurrency token: a conditional write against these statuses that
// affects zero rows means another sweep already moved the record.
var sweepStatuses = []string{models.EvaluationStatusPending, models.EvaluationStatusScheduled}

// SchedulerConfig describes the evaluation scheduler knobs.
type SchedulerConfig struct {
	Cooldown      time.Duration
	SweepInterval time.Duration
	NATSSubject   string
	// Clock overrides the time source; nil means time.Now. Injected so
	// cooldown and due-time logic can be tested without real delays.
	Clock func() time.Time
}

// EvaluationScheduler drives pending exam results through the evaluation
// state machine on a fixed period, independent of any request path.
type EvaluationScheduler struct {
	store       repository.EvaluationRepository
	evaluator   ai.Evaluator
	events      *nats.Conn
	natsSubject string
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	cooldown    time.Duration
	interval    time.Duration
	now         func() time.Time
}

type evaluationCompletedEvent struct {
	ResultID         uint      `json:"result_id"`
	ExamID           uint      `json:"exam_id"`
	UserID           uint      `json:"user_id"`
	Score            int       `json:"score"`
	PerformanceLevel string    `json:"performance_level"`
	Source           string    `json:"source"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// NewEvaluationScheduler constructs the scheduler. The evaluator may be nil,
// in which case every due record is completed from the fallback engine.
func NewEvaluationScheduler(store repository.EvaluationRepository, evaluator ai.Evaluator, events *nats.Conn, cfg SchedulerConfig, logger zerolog.Logger) *EvaluationScheduler {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 20 * time.Minute
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	subject := cfg.NATSSubject
	if subject == "" {
		subject = "skillforge.evaluation.completed"
	}

	return &EvaluationScheduler{
		store:       store,
		evaluator:   evaluator,
		events:      events,
		natsSubject: subject,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "evaluation_scheduler").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/skillforge-go-api/internal/service/scheduler"),
		cooldown:    cfg.Cooldown,
		interval:    cfg.SweepInterval,
		now:         clock,
	}
}

// Start runs sweeps on the configured interval until ctx is cancelled. An
// interrupted sweep leaves remaining records PENDING or SCHEDULED for the
// next period; no half-written state exists because every transition is a
// single conditional write.
func (s *EvaluationScheduler) Start(ctx context.Context) {
	go func() {
		s.logger.Info().
			Dur("interval", s.interval).
			Dur("cooldown", s.cooldown).
			Msg("evaluation scheduler started")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("evaluation scheduler stopped")
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep processes all PENDING records, then all SCHEDULED records, applying
// the transition function to each. Record order within a status group does
// not matter; each record's transition is independent. A failure on one
// record never aborts the sweep for the rest.
func (s *EvaluationScheduler) Sweep(ctx context.Context) {
	spanCtx, span := s.tracer.Start(ctx, "evaluation.sweep")
	defer span.End()

	start := time.Now()
	observability.SweepsTotal().Inc()

	for _, status := range sweepStatuses {
		records, err := s.store.FindByStatus(spanCtx, status)
		if err != nil {
			span.RecordError(err)
			s.logger.Error().Err(err).Str("status", status).Msg("failed to fetch records for sweep")
			continue
		}

		observability.RecordsSwept().WithLabelValues(status).Add(float64(len(records)))

		for _, record := range records {
			if spanCtx.Err() != nil {
				s.logger.Warn().Msg("sweep interrupted, remaining records left for next period")
				return
			}
			s.transition(spanCtx, record)
		}
	}

	observability.SweepDuration().Observe(time.Since(start).Seconds())
}

// transition applies the state machine once to a single record.
func (s *EvaluationScheduler) transition(ctx context.Context, record models.ExamResult) {
	if record.IsTerminal() {
		return
	}

	now := s.now().UTC()
	dueAt := record.EvaluationDueAt(s.cooldown)

	if now.Before(dueAt) {
		if record.ScheduledEvaluationTime != nil {
			return
		}
		s.schedule(ctx, record, dueAt)
		return
	}

	s.evaluate(ctx, record, now)
}

func (s *EvaluationScheduler) schedule(ctx context.Context, record models.ExamResult, dueAt time.Time) {
	record.ScheduledEvaluationTime = &dueAt
	record.EvaluationStatus = models.EvaluationStatusScheduled
	record.UpdatedAt = s.now().UTC()

	applied, err := s.store.UpdateStatusFrom(ctx, &record, sweepStatuses)
	if err != nil {
		s.logger.Error().Err(err).Uint("result_id", record.ID).Msg("failed to schedule evaluation")
		return
	}

	if !applied {
		observability.TransitionsDropped().Inc()
		return
	}

	s.logger.Info().
		Uint("result_id", record.ID).
		Time("due_at", dueAt).
		Msg("evaluation scheduled")
}

func (s *EvaluationScheduler) evaluate(ctx context.Context, record models.ExamResult, now time.Time) {
	_, span := s.tracer.Start(ctx, "evaluation.transition", trace.WithAttributes(
		attribute.Int64("result_id", int64(record.ID)),
	))
	defer span.End()

	percentage := record.Percentage()
	fallback := FallbackEvaluate(percentage, record.TimeTakenMinutes, record.TotalQuestions)

	narrative := ""
	source := models.EvaluationSourceFallback

	if s.evaluator != nil {
		text, err := s.evaluator.Evaluate(ctx, ai.PerformanceInput{
			Score:          record.Score,
			TotalQuestions: record.TotalQuestions,
			CorrectAnswers: record.CorrectAnswers,
			CourseID:       record.CourseID,
		})
		if err != nil {
			// Every client failure class funnels to the fallback; the
			// distinction only matters for logs and metrics.
			span.RecordError(err)
			s.logger.Warn().Err(err).
				Uint("result_id", record.ID).
				Msg("ai evaluation unavailable, using fallback")
		} else {
			narrative = strings.TrimSpace(s.sanitizer.Sanitize(text))
			source = models.EvaluationSourceAI
		}
	}

	if narrative == "" {
		narrative = fallback.Narrative
		source = models.EvaluationSourceFallback
	}

	evaluatedAt := now
	record.EvaluationStatus = models.EvaluationStatusCompleted
	record.EvaluatedAt = &evaluatedAt
	record.EvaluationSource = source
	record.AIEvaluation = narrative
	record.PerformanceLevel = fallback.PerformanceLevel
	record.Strengths = fallback.Strengths
	record.ImprovementAreas = fallback.ImprovementAreas
	record.Recommendations = fallback.Recommendations
	record.DetailedAnalysis = datatypes.JSONMap{
		"accuracyRate":   percentage,
		"timeEfficiency": fallback.TimeEfficiency,
		"evaluationDate": evaluatedAt.Format(time.RFC3339),
	}
	record.UpdatedAt = now

	applied, err := s.store.UpdateStatusFrom(ctx, &record, sweepStatuses)
	if err != nil {
		s.markError(ctx, record, err)
		return
	}

	if !applied {
		// Another sweep won the race; this attempt is a no-op.
		observability.TransitionsDropped().Inc()
		s.logger.Debug().Uint("result_id", record.ID).Msg("evaluation transition dropped")
		return
	}

	observability.EvaluationsCompleted().WithLabelValues(source).Inc()
	s.logger.Info().
		Uint("result_id", record.ID).
		Str("performance_level", record.PerformanceLevel).
		Str("source", source).
		Msg("evaluation completed")

	s.publishCompleted(record)
}

// markError records an unexpected orchestration failure. ERROR is terminal
// and never retried automatically; it exists for operator attention, not for
// AI client failures, which are absorbed by the fallback.
func (s *EvaluationScheduler) markError(ctx context.Context, record models.ExamResult, cause error) {
	observability.EvaluationsErrored().Inc()
	s.logger.Error().Err(cause).Uint("result_id", record.ID).Msg("evaluation orchestration failed")

	record.EvaluationStatus = models.EvaluationStatusError
	record.EvaluatedAt = nil
	record.EvaluationSource = ""
	record.AIEvaluation = fmt.Sprintf("Evaluation failed: %v", cause)
	record.PerformanceLevel = ""
	record.Strengths = nil
	record.ImprovementAreas = nil
	record.Recommendations = nil
	record.DetailedAnalysis = nil
	record.UpdatedAt = s.now().UTC()

	if _, err := s.store.UpdateStatusFrom(ctx, &record, sweepStatuses); err != nil {
		s.logger.Error().Err(err).Uint("result_id", record.ID).Msg("failed to mark record as errored")
	}
}

func (s *EvaluationScheduler) publishCompleted(record models.ExamResult) {
	if s.events == nil {
		return
	}

	event := evaluationCompletedEvent{
		ResultID:         record.ID,
		ExamID:           record.ExamID,
		UserID:           record.UserID,
		Score:            record.Score,
		PerformanceLevel: record.PerformanceLevel,
		Source:           record.EvaluationSource,
		EvaluatedAt:      *record.EvaluatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode completion event")
		return
	}

	if err := s.events.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("result_id", record.ID).Msg("failed to publish completion event")
	}
}
