package dto

import (
	"time"

	"github.com/noah-isme/skillforge-go-api/internal/models"
)

// ExamResultResponse is an exam result as returned to API clients,
// including any evaluation content produced after the cooldown window.
type ExamResultResponse struct {
	ID               uint      `json:"id"`
	ExamID           uint      `json:"exam_id"`
	UserID           uint      `json:"user_id"`
	CourseID         string    `json:"course_id"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	Passed           bool      `json:"passed"`
	TimeTakenMinutes *int      `json:"time_taken_minutes,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`

	EvaluationStatus        string         `json:"evaluation_status"`
	ScheduledEvaluationTime *time.Time     `json:"scheduled_evaluation_time,omitempty"`
	EvaluatedAt             *time.Time     `json:"evaluated_at,omitempty"`
	EvaluationSource        string         `json:"evaluation_source,omitempty"`
	AIEvaluation            string         `json:"ai_evaluation,omitempty"`
	PerformanceLevel        string         `json:"performance_level,omitempty"`
	Strengths               []string       `json:"strengths,omitempty"`
	ImprovementAreas        []string       `json:"improvement_areas,omitempty"`
	Recommendations         []string       `json:"recommendations,omitempty"`
	DetailedAnalysis        map[string]any `json:"detailed_analysis,omitempty"`
}

// NewExamResultResponse converts an exam result model.
func NewExamResultResponse(result models.ExamResult) ExamResultResponse {
	return ExamResultResponse{
		ID:                      result.ID,
		ExamID:                  result.ExamID,
		UserID:                  result.UserID,
		CourseID:                result.CourseID,
		Score:                   result.Score,
		TotalQuestions:          result.TotalQuestions,
		CorrectAnswers:          result.CorrectAnswers,
		Passed:                  result.Passed,
		TimeTakenMinutes:        result.TimeTakenMinutes,
		CompletedAt:             result.CompletedAt,
		EvaluationStatus:        result.EvaluationStatus,
		ScheduledEvaluationTime: result.ScheduledEvaluationTime,
		EvaluatedAt:             result.EvaluatedAt,
		EvaluationSource:        result.EvaluationSource,
		AIEvaluation:            result.AIEvaluation,
		PerformanceLevel:        result.PerformanceLevel,
		Strengths:               result.Strengths,
		ImprovementAreas:        result.ImprovementAreas,
		Recommendations:         result.Recommendations,
		DetailedAnalysis:        result.DetailedAnalysis,
	}
}

// NewExamResultResponseSlice converts a list of exam result models.
func NewExamResultResponseSlice(results []models.ExamResult) []ExamResultResponse {
	responses := make([]ExamResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewExamResultResponse(result))
	}
	return responses
}
