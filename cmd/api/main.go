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
	"github.com/rs/zerolog"

	"github.com/Rithvik985/situated-learning-api/internal/config"
	"github.com/Rithvik985/situated-learning-api/internal/database"
	"github.com/Rithvik985/situated-learning-api/internal/handler"
	"github.com/Rithvik985/situated-learning-api/internal/middleware"
	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/router"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/pkg/ai"
	"github.com/Rithvik985/situated-learning-api/pkg/detect"
	"github.com/Rithvik985/situated-learning-api/pkg/extract"
	"github.com/Rithvik985/situated-learning-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Course{}, &models.Assignment{}, &models.Rubric{}, &models.Submission{}, &models.Evaluation{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	events := connectEvents(cfg, logger)

	model, err := buildModelClient(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}

	files, err := storage.NewLocal(cfg.StorageDir, logger)
	if err != nil {
		log.Fatalf("failed to initialise file storage: %v", err)
	}

	extractor := extract.New(cfg.ExtractorURL, cfg.ExtractorTimeout, logger)
	detector := detect.New(cfg.DetectorURL, cfg.ExtractorTimeout, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	sessionStore := repository.NewSessionStore(redisClient, cfg.SessionTTL)

	generationService := service.NewGenerationService(courseRepo, assignmentRepo, model, events, validate, logger)
	rubricService := service.NewRubricService(rubricRepo, assignmentRepo, model, events, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, files, extractor, detector, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, submissionRepo, assignmentRepo, rubricRepo, model, cfg.AIModel, events, validate, logger)
	reviewService := service.NewReviewService(evaluationRepo, submissionRepo, assignmentRepo, events, validate, logger)
	workflowService := service.NewWorkflowService(sessionStore, logger)

	generationHandler := handler.NewGenerationHandler(generationService, logger)
	rubricHandler := handler.NewRubricHandler(rubricService, logger)
	evaluationHandler := handler.NewEvaluationHandler(generationService, rubricService, submissionService, evaluationService, reviewService, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GenerationHandler: generationHandler,
		RubricHandler:     rubricHandler,
		EvaluationHandler: evaluationHandler,
		WorkflowHandler:   workflowHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

type modelClient interface {
	ai.Generator
	ai.Evaluator
}

func buildModelClient(cfg config.Config, logger zerolog.Logger) (modelClient, error) {
	if cfg.AIProvider == "anthropic" {
		return ai.NewAnthropicClient(ai.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.AIBaseURL,
			Logger:  logger,
		})
	}

	return ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.AIModel,
		Logger: logger,
	})
}

// connectEvents falls back to a no-op publisher when NATS is not configured,
// so a development setup does not need a running broker.
func connectEvents(cfg config.Config, logger zerolog.Logger) service.Publisher {
	if cfg.NATSURL == "" {
		logger.Info().Msg("nats url not configured, event publishing disabled")
		return service.NewNoopPublisher()
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
	if err != nil {
		logger.Warn().Err(err).Msg("failed to connect to nats, event publishing disabled")
		return service.NewNoopPublisher()
	}

	return service.NewNATSPublisher(conn, logger)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
