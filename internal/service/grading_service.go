package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/dto"
	"github.com/noah-isme/skillforge-go-api/internal/models"
	"github.com/noah-isme/skillforge-go-api/internal/repository"
)

// ErrExamNotFound indicates the referenced exam cannot be located.
var ErrExamNotFound = errors.New("exam not found")

// ErrExamNotAvailable indicates the exam is unpublished or inactive.
var ErrExamNotAvailable = errors.New("exam not available")

// GradingService scores submitted answer sets synchronously on the request path.
type GradingService interface {
	Grade(ctx context.Context, examID uint, userID uint, payload dto.ExamSubmitRequest) (dto.ExamResultResponse, error)
}

type gradingService struct {
	exams       repository.ExamRepository
	evaluations repository.EvaluationRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(exams repository.ExamRepository, evaluations repository.EvaluationRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		exams:       exams,
		evaluations: evaluations,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, examID uint, userID uint, payload dto.ExamSubmitRequest) (dto.ExamResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResultResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResultResponse{}, ErrExamNotFound
		}
		return dto.ExamResultResponse{}, err
	}

	if !exam.Active || !exam.Published {
		return dto.ExamResultResponse{}, ErrExamNotAvailable
	}

	questions, err := s.exams.QuestionsByExam(ctx, examID)
	if err != nil {
		return dto.ExamResultResponse{}, err
	}

	submitted := make(map[uint][]string, len(payload.Answers))
	for _, answer := range payload.Answers {
		submitted[answer.QuestionID] = answer.Answers
	}

	totalPoints := 0
	earnedPoints := 0
	correctCount := 0

	for _, question := range questions {
		totalPoints += question.Points

		// A missing submission counts as incorrect, never as an error.
		answers, ok := submitted[question.ID]
		if !ok {
			continue
		}

		if answerSetsEqual(answers, question.CorrectAnswers) {
			correctCount++
			earnedPoints += question.Points
		}
	}

	score := 0
	if totalPoints > 0 {
		score = earnedPoints * 100 / totalPoints
	}

	result := models.ExamResult{
		ExamID:           exam.ID,
		UserID:           userID,
		CourseID:         exam.CourseID,
		Score:            score,
		TotalQuestions:   len(questions),
		CorrectAnswers:   correctCount,
		Passed:           score >= exam.PassingScore,
		TimeTakenMinutes: payload.TimeTakenMinutes,
		CompletedAt:      s.now().UTC(),
		EvaluationStatus: models.EvaluationStatusPending,
	}

	if err := s.evaluations.Create(ctx, &result); err != nil {
		return dto.ExamResultResponse{}, err
	}

	s.logger.Info().
		Uint("exam_id", exam.ID).
		Uint("user_id", userID).
		Int("score", score).
		Bool("passed", result.Passed).
		Msg("exam graded")

	return dto.NewExamResultResponse(result), nil
}

// answerSetsEqual reports whether the two answer sets contain the same
// elements, ignoring order and duplicates.
func answerSetsEqual(submitted, correct []string) bool {
	if len(correct) == 0 {
		return false
	}

	submittedSet := make(map[string]struct{}, len(submitted))
	for _, answer := range submitted {
		submittedSet[answer] = struct{}{}
	}

	correctSet := make(map[string]struct{}, len(correct))
	for _, answer := range correct {
		correctSet[answer] = struct{}{}
	}

	if len(submittedSet) != len(correctSet) {
		return false
	}

	for answer := range correctSet {
		if _, ok := submittedSet[answer]; !ok {
			return false
		}
	}

	return true
}
