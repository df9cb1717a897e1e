package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillforge-go-api/internal/dto"
	"github.com/noah-isme/skillforge-go-api/internal/repository"
)

// ErrResultNotFound indicates the exam result cannot be located.
var ErrResultNotFound = errors.New("exam result not found")

// ResultService exposes read access to exam results and their evaluations.
type ResultService interface {
	Get(ctx context.Context, id uint) (dto.ExamResultResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.ExamResultResponse, error)
	ListByExam(ctx context.Context, examID uint) ([]dto.ExamResultResponse, error)
	InvalidateUser(ctx context.Context, userID uint)
}

type resultService struct {
	evaluations repository.EvaluationRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewResultService builds the result query service. The cache client may be
// nil, in which case every read goes to the store.
func NewResultService(evaluations repository.EvaluationRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultService {
	return &resultService{
		evaluations: evaluations,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) Get(ctx context.Context, id uint) (dto.ExamResultResponse, error) {
	result, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResultResponse{}, ErrResultNotFound
		}
		return dto.ExamResultResponse{}, err
	}

	return dto.NewExamResultResponse(result), nil
}

func (s *resultService) ListByUser(ctx context.Context, userID uint) ([]dto.ExamResultResponse, error) {
	cacheKey := userResultsCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.ExamResultResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("results cache hit")
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read results cache")
		}
	}

	results, err := s.evaluations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := dto.NewExamResultResponseSlice(results)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store results cache")
			}
		}
	}

	return responses, nil
}

func (s *resultService) ListByExam(ctx context.Context, examID uint) ([]dto.ExamResultResponse, error) {
	results, err := s.evaluations.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewExamResultResponseSlice(results), nil
}

// InvalidateUser drops the cached result list after a new submission so the
// learner immediately sees the PENDING record.
func (s *resultService) InvalidateUser(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, userResultsCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate results cache")
	}
}

func userResultsCacheKey(userID uint) string {
	return fmt.Sprintf("results:user:%d", userID)
}
