package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"stepable/internal/api/v1/router"
	"stepable/internal/config"
	"stepable/internal/logger"
	"stepable/internal/orchestrator/achievement"
	"stepable/internal/pgmq"
	"stepable/internal/repository"
	"stepable/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "achievement", "Orchestrator mode: achievement")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Initialize DB connection
	db, err := router.OpenDB(cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()
	logger.Info().Msg("Database connection established")

	// Initialize PGMQ client
	pgmqClient := pgmq.New(db)
	logger.Info().Msg("PGMQ client initialized")

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "achievement":
		projects := service.NewProjectService(repository.NewProjectRepo(db, logger), logger)
		journey := service.NewJourneyService(
			projects,
			repository.NewModuleRepo(db),
			repository.NewProgressRepo(db),
			repository.NewAchievementRepo(db),
			logger,
		)
		runErr = achievement.Run(ctx, logger, pgmqClient, journey, achievement.Options{
			QueueName:      cfg.AchievementQueueName,
			PollTimeoutSec: cfg.AchievementPollTimeoutSec,
			MaxMessages:    cfg.AchievementPollMaxMsg,
		})
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
