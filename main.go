package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/auth"
	"github.com/introloop/referral-engine/pkg/config"
	"github.com/introloop/referral-engine/pkg/database"
	"github.com/introloop/referral-engine/pkg/handlers"
	"github.com/introloop/referral-engine/pkg/middleware"
	"github.com/introloop/referral-engine/pkg/repositories"
	"github.com/introloop/referral-engine/pkg/scoring"
	"github.com/introloop/referral-engine/pkg/services"
	"github.com/introloop/referral-engine/pkg/token"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("scoring_provider", cfg.Scoring.Provider),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)))

	ctx := context.Background()

	// Migrations run through database/sql; the service itself uses pgxpool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	jobRepo := repositories.NewJobRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)
	connectorRepo := repositories.NewConnectorRepository(db)
	matchRepo := repositories.NewMatchRepository(db)
	recRepo := repositories.NewRecommendationRepository(db)
	linkRepo := repositories.NewLinkRepository(db)

	// Token codec
	codec, err := token.NewCodec(cfg.LinkSigningSecret)
	if err != nil {
		logger.Fatal("Failed to create token codec", zap.Error(err))
	}

	// Scorer (nil when provider is "none")
	scorer, err := scoring.NewScorer(&cfg.Scoring, logger)
	if err != nil {
		logger.Fatal("Failed to create scorer", zap.Error(err))
	}
	pool := scoring.NewWorkerPool(cfg.Scoring.MaxConcurrent, logger)

	// Services
	jobStatusService := services.NewJobStatusService(jobRepo, recRepo, logger)
	eligibilityService := services.NewEligibilityService(
		connectorRepo, candidateRepo, matchRepo, recRepo,
		services.EligibilityThresholds{
			Broad:      cfg.Eligibility.BroadThreshold,
			Actionable: cfg.Eligibility.ActionableThreshold,
		},
		logger)
	linkService := services.NewLinkService(
		codec, linkRepo, jobRepo, connectorRepo, recRepo, eligibilityService, logger)
	recommendationService := services.NewRecommendationService(
		recRepo, jobStatusService, linkService, logger)
	scoringService := services.NewScoringService(
		scorer, pool, jobRepo, candidateRepo, matchRepo, connectorRepo,
		time.Duration(cfg.Scoring.CallTimeoutSeconds)*time.Second, logger)

	// Staff authentication
	verifier, err := auth.NewJWKSVerifier(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS verifier", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(verifier, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewLinksHandler(linkService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewRecommendationsHandler(recommendationService, linkService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewJobsHandler(jobRepo, matchRepo, connectorRepo, scoringService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting referral-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
