package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillforge-go-api/internal/config"
	"github.com/noah-isme/skillforge-go-api/internal/database"
	"github.com/noah-isme/skillforge-go-api/internal/handler"
	"github.com/noah-isme/skillforge-go-api/internal/middleware"
	"github.com/noah-isme/skillforge-go-api/internal/models"
	"github.com/noah-isme/skillforge-go-api/internal/repository"
	"github.com/noah-isme/skillforge-go-api/internal/router"
	"github.com/noah-isme/skillforge-go-api/internal/service"
	"github.com/noah-isme/skillforge-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Exam{}, &models.Question{}, &models.ExamResult{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	evaluator := buildEvaluator(cfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	examService := service.NewExamService(examRepo, validate, logger)
	gradingService := service.NewGradingService(examRepo, evaluationRepo, validate, logger)
	resultService := service.NewResultService(evaluationRepo, redisClient, cfg.ResultsCacheTTL, logger)

	scheduler := service.NewEvaluationScheduler(evaluationRepo, evaluator, natsConn, service.SchedulerConfig{
		Cooldown:      cfg.EvaluationCooldown,
		SweepInterval: cfg.SweepInterval,
	}, logger)

	examHandler := handler.NewExamHandler(examService, gradingService, resultService, logger)
	resultHandler := handler.NewResultHandler(resultService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:   examHandler,
		ResultHandler: resultHandler,
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	scheduler.Start(schedulerCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopScheduler)
}

func buildEvaluator(cfg config.Config, logger zerolog.Logger) ai.Evaluator {
	switch cfg.AIProvider {
	case "openai":
		evaluator, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AITimeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai evaluator unavailable, evaluations will use fallback")
			return nil
		}
		return evaluator
	default:
		return ai.NewGeminiEvaluator(ai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.AITimeout,
			Logger:  logger,
		})
	}
}

func waitForShutdown(app *fiber.App, stopScheduler context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	// Stop sweeping first; an interrupted sweep leaves records for the next run.
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
