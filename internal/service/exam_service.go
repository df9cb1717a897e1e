package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/dto"
	"github.com/noah-isme/skillforge-go-api/internal/models"
	"github.com/noah-isme/skillforge-go-api/internal/repository"
)

// ExamService exposes exam management operations.
type ExamService interface {
	Create(ctx context.Context, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, id uint, includeAnswers bool) (dto.ExamResponse, error)
	ListByCourse(ctx context.Context, courseID string) ([]dto.ExamResponse, error)
}

type examService struct {
	exams     repository.ExamRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExamService constructs the exam management service.
func NewExamService(exams repository.ExamRepository, validate *validator.Validate, logger zerolog.Logger) ExamService {
	return &examService{
		exams:     exams,
		validator: validate,
		logger:    logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) Create(ctx context.Context, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	passingScore := 70
	if payload.PassingScore != nil {
		passingScore = *payload.PassingScore
	}

	duration := payload.DurationMinutes
	if duration <= 0 {
		duration = 60
	}

	exam := models.Exam{
		Title:           payload.Title,
		Description:     payload.Description,
		CourseID:        payload.CourseID,
		DurationMinutes: duration,
		PassingScore:    passingScore,
		Active:          true,
		Published:       payload.Published,
		TotalQuestions:  len(payload.Questions),
	}

	for _, question := range payload.Questions {
		points := question.Points
		if points <= 0 {
			points = 1
		}

		questionType := question.Type
		if questionType == "" {
			questionType = models.QuestionTypeMultipleChoice
		}

		exam.Questions = append(exam.Questions, models.Question{
			Text:           question.Text,
			Type:           questionType,
			Options:        datatypes.NewJSONSlice(question.Options),
			CorrectAnswers: datatypes.NewJSONSlice(question.CorrectAnswers),
			Points:         points,
			Explanation:    question.Explanation,
		})
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().
		Uint("exam_id", exam.ID).
		Str("course_id", exam.CourseID).
		Int("questions", len(exam.Questions)).
		Msg("exam created")

	return dto.NewExamResponse(exam, true), nil
}

func (s *examService) Get(ctx context.Context, id uint, includeAnswers bool) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam, includeAnswers), nil
}

func (s *examService) ListByCourse(ctx context.Context, courseID string) ([]dto.ExamResponse, error) {
	exams, err := s.exams.ListPublishedByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewExamResponseSlice(exams), nil
}
