package dto

import (
	"time"

	"github.com/noah-isme/skillforge-go-api/internal/models"
)

// QuestionPayload describes one question in an exam create request.
type QuestionPayload struct {
	Text           string   `json:"text" validate:"required,min=3"`
	Type           string   `json:"type" validate:"omitempty,oneof=multiple_choice multiple_answer"`
	Options        []string `json:"options" validate:"required,min=2"`
	CorrectAnswers []string `json:"correct_answers" validate:"required,min=1"`
	Points         int      `json:"points" validate:"omitempty,gt=0"`
	Explanation    string   `json:"explanation"`
}

// ExamCreateRequest is the payload for creating an exam with bulk questions.
type ExamCreateRequest struct {
	Title           string            `json:"title" validate:"required,min=3"`
	Description     string            `json:"description"`
	CourseID        string            `json:"course_id" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"omitempty,gt=0"`
	PassingScore    *int              `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	Published       bool              `json:"published"`
	Questions       []QuestionPayload `json:"questions" validate:"omitempty,dive"`
}

// SubmittedAnswer is one answered question in an exam submission.
type SubmittedAnswer struct {
	QuestionID uint     `json:"question_id" validate:"required,gt=0"`
	Answers    []string `json:"answers"`
}

// ExamSubmitRequest is the payload for submitting a completed exam.
type ExamSubmitRequest struct {
	Answers          []SubmittedAnswer `json:"answers" validate:"dive"`
	TimeTakenMinutes *int              `json:"time_taken_minutes" validate:"omitempty,gte=0"`
}

// QuestionResponse is a question as returned to API clients.
type QuestionResponse struct {
	ID             uint     `json:"id"`
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
	Points         int      `json:"points"`
	Explanation    string   `json:"explanation,omitempty"`
}

// ExamResponse is an exam as returned to API clients.
type ExamResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	CourseID        string             `json:"course_id"`
	DurationMinutes int                `json:"duration_minutes"`
	TotalQuestions  int                `json:"total_questions"`
	PassingScore    int                `json:"passing_score"`
	Published       bool               `json:"published"`
	CreatedAt       time.Time          `json:"created_at"`
	Questions       []QuestionResponse `json:"questions,omitempty"`
}

// NewExamResponse converts an exam model. When includeAnswers is false the
// canonical answer sets and explanations are stripped.
func NewExamResponse(exam models.Exam, includeAnswers bool) ExamResponse {
	response := ExamResponse{
		ID:              exam.ID,
		Title:           exam.Title,
		Description:     exam.Description,
		CourseID:        exam.CourseID,
		DurationMinutes: exam.DurationMinutes,
		TotalQuestions:  exam.TotalQuestions,
		PassingScore:    exam.PassingScore,
		Published:       exam.Published,
		CreatedAt:       exam.CreatedAt,
	}

	for _, question := range exam.Questions {
		item := QuestionResponse{
			ID:      question.ID,
			Text:    question.Text,
			Type:    question.Type,
			Options: question.Options,
			Points:  question.Points,
		}
		if includeAnswers {
			item.CorrectAnswers = question.CorrectAnswers
			item.Explanation = question.Explanation
		}
		response.Questions = append(response.Questions, item)
	}

	return response
}

// NewExamResponseSlice converts a list of exam models without questions.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam, false))
	}
	return responses
}
