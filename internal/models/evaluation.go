package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation lifecycle statuses. A record only ever moves forward:
// PENDING -> SCHEDULED -> COMPLETED | ERROR. COMPLETED and ERROR are terminal.
const (
	EvaluationStatusPending   = "PENDING"
	EvaluationStatusScheduled = "SCHEDULED"
	EvaluationStatusCompleted = "COMPLETED"
	EvaluationStatusError     = "ERROR"
)

// Performance levels derived from the score percentage band.
const (
	PerformanceExcellent        = "Excellent"
	PerformanceGood             = "Good"
	PerformanceAverage          = "Average"
	PerformanceNeedsImprovement = "Needs Improvement"
)

// Origin of the evaluation narrative stored on a result.
const (
	EvaluationSourceAI       = "ai"
	EvaluationSourceFallback = "fallback"
)

// ExamResult is the persisted outcome of one exam submission, tracked
// through the deferred evaluation state machine.
type ExamResult struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ExamID           uint      `gorm:"not null;index" json:"exam_id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	CourseID         string    `gorm:"size:64" json:"course_id"`
	Score            int       `gorm:"not null" json:"score"`
	TotalQuestions   int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers   int       `gorm:"not null" json:"correct_answers"`
	Passed           bool      `gorm:"not null" json:"passed"`
	TimeTakenMinutes *int      `json:"time_taken_minutes"`
	CompletedAt      time.Time `gorm:"not null" json:"completed_at"`

	EvaluationStatus        string     `gorm:"size:16;not null;default:PENDING;index" json:"evaluation_status"`
	ScheduledEvaluationTime *time.Time `json:"scheduled_evaluation_time"`
	EvaluatedAt             *time.Time `json:"evaluated_at"`
	EvaluationSource        string     `gorm:"size:16" json:"evaluation_source,omitempty"`
	AIEvaluation            string     `gorm:"type:text" json:"ai_evaluation,omitempty"`
	PerformanceLevel        string     `gorm:"size:32" json:"performance_level,omitempty"`

	Strengths        datatypes.JSONSlice[string] `json:"strengths,omitempty"`
	ImprovementAreas datatypes.JSONSlice[string] `json:"improvement_areas,omitempty"`
	Recommendations  datatypes.JSONSlice[string] `json:"recommendations,omitempty"`
	DetailedAnalysis datatypes.JSONMap           `json:"detailed_analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the record has left the sweepable states.
func (r ExamResult) IsTerminal() bool {
	return r.EvaluationStatus == EvaluationStatusCompleted || r.EvaluationStatus == EvaluationStatusError
}

// EvaluationDueAt returns the moment the cooldown window closes.
func (r ExamResult) EvaluationDueAt(cooldown time.Duration) time.Time {
	return r.CompletedAt.Add(cooldown)
}

// Percentage is the score expressed as a fraction of the maximum, 0-100.
// Score already is a percentage; kept as a method so callers do not reach
// for TotalQuestions by mistake.
func (r ExamResult) Percentage() float64 {
	return float64(r.Score)
}

// PerformanceLevelForPercentage maps a percentage to its coarse band.
func PerformanceLevelForPercentage(percentage float64) string {
	switch {
	case percentage >= 90:
		return PerformanceExcellent
	case percentage >= 75:
		return PerformanceGood
	case percentage >= 60:
		return PerformanceAverage
	default:
		return PerformanceNeedsImprovement
	}
}
