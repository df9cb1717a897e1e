package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/dto"
	"github.com/noah-isme/skillforge-go-api/internal/models"
)

func TestExamServiceCreateAppliesDefaults(t *testing.T) {
	repo := &fakeExamRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewExamService(repo, validate, testLogger())

	response, err := svc.Create(context.Background(), dto.ExamCreateRequest{
		Title:    "Go Basics",
		CourseID: "go-101",
		Questions: []dto.QuestionPayload{
			{
				Text:           "What starts a goroutine?",
				Options:        []string{"go", "run", "spawn"},
				CorrectAnswers: []string{"go"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 70, response.PassingScore)
	require.Equal(t, 60, response.DurationMinutes)
	require.Equal(t, 1, response.TotalQuestions)

	created := repo.exam
	require.True(t, created.Active)
	require.Len(t, created.Questions, 1)
	require.Equal(t, models.QuestionTypeMultipleChoice, created.Questions[0].Type)
	require.Equal(t, 1, created.Questions[0].Points)
}

func TestExamServiceCreateRejectsInvalidPayload(t *testing.T) {
	repo := &fakeExamRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewExamService(repo, validate, testLogger())

	_, err := svc.Create(context.Background(), dto.ExamCreateRequest{Title: "ok title"})
	require.Error(t, err, "course_id is required")
	require.Empty(t, repo.exam.Title)
}

func TestExamServiceGetStripsAnswersForLearners(t *testing.T) {
	exams, _ := newTestExam()
	exams.exam.Questions = exams.questions
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewExamService(exams, validate, testLogger())

	learnerView, err := svc.Get(context.Background(), 1, false)
	require.NoError(t, err)
	for _, question := range learnerView.Questions {
		require.Empty(t, question.CorrectAnswers)
		require.Empty(t, question.Explanation)
	}

	instructorView, err := svc.Get(context.Background(), 1, true)
	require.NoError(t, err)
	require.NotEmpty(t, instructorView.Questions[0].CorrectAnswers)
}

func TestExamServiceGetNotFound(t *testing.T) {
	repo := &fakeExamRepo{getErr: gorm.ErrRecordNotFound}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewExamService(repo, validate, testLogger())

	_, err := svc.Get(context.Background(), 99, false)
	require.ErrorIs(t, err, ErrExamNotFound)
}
