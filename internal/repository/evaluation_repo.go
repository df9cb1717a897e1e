package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/models"
)

// evaluationTransitionColumns are the only columns the scheduler may touch.
// Grading-time fields (score, completed_at, ...) are immutable after creation.
var evaluationTransitionColumns = []string{
	"evaluation_status",
	"scheduled_evaluation_time",
	"evaluated_at",
	"evaluation_source",
	"ai_evaluation",
	"performance_level",
	"strengths",
	"improvement_areas",
	"recommendations",
	"detailed_analysis",
	"updated_at",
}

// EvaluationRepository is the store for exam results and their evaluation lifecycle.
type EvaluationRepository interface {
	Create(ctx context.Context, result *models.ExamResult) error
	GetByID(ctx context.Context, id uint) (models.ExamResult, error)
	FindByStatus(ctx context.Context, status string) ([]models.ExamResult, error)
	ListByUser(ctx context.Context, userID uint) ([]models.ExamResult, error)
	ListByExam(ctx context.Context, examID uint) ([]models.ExamResult, error)
	// UpdateStatusFrom persists the evaluation fields of result only if the
	// stored record still holds one of the given statuses. It reports whether
	// the write applied; false means another sweep already moved the record.
	UpdateStatusFrom(ctx context.Context, result *models.ExamResult, fromStatuses []string) (bool, error)
}

// NewEvaluationRepository constructs the gorm-backed evaluation store.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

type evaluationRepository struct {
	db *gorm.DB
}

func (r *evaluationRepository) Create(ctx context.Context, result *models.ExamResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.ExamResult, error) {
	var result models.ExamResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return models.ExamResult{}, err
	}
	return result, nil
}

func (r *evaluationRepository) FindByStatus(ctx context.Context, status string) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.db.WithContext(ctx).
		Where("evaluation_status = ?", status).
		Order("completed_at ASC").
		Find(&results).Error
	return results, err
}

func (r *evaluationRepository) ListByUser(ctx context.Context, userID uint) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&results).Error
	return results, err
}

func (r *evaluationRepository) ListByExam(ctx context.Context, examID uint) ([]models.ExamResult, error) {
	var results []models.ExamResult
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("completed_at DESC").
		Find(&results).Error
	return results, err
}

func (r *evaluationRepository) UpdateStatusFrom(ctx context.Context, result *models.ExamResult, fromStatuses []string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.ExamResult{}).
		Where("id = ? AND evaluation_status IN ?", result.ID, fromStatuses).
		Select(evaluationTransitionColumns).
		Updates(result)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
