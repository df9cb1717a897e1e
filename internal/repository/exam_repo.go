package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/models"
)

// ExamRepository exposes persistence helpers for exams and their questions.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	ListPublishedByCourse(ctx context.Context, courseID string) ([]models.Exam, error)
	QuestionsByExam(ctx context.Context, examID uint) ([]models.Question, error)
}

// NewExamRepository constructs an exam repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

type examRepository struct {
	db *gorm.DB
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	err := r.db.WithContext(ctx).
		Preload("Questions").
		First(&exam, id).Error
	if err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) ListPublishedByCourse(ctx context.Context, courseID string) ([]models.Exam, error) {
	var exams []models.Exam
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND published = ? AND active = ?", courseID, true, true).
		Order("created_at DESC").
		Find(&exams).Error
	return exams, err
}

func (r *examRepository) QuestionsByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}
