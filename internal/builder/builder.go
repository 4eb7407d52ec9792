package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stepone-ai/validation-backend/internal/api"
	validationapi "github.com/stepone-ai/validation-backend/internal/api/validation"
	"github.com/stepone-ai/validation-backend/internal/api/voicestream"
	"github.com/stepone-ai/validation-backend/internal/config"
	"github.com/stepone-ai/validation-backend/internal/integration/gateway"
	"github.com/stepone-ai/validation-backend/internal/repository"
	"github.com/stepone-ai/validation-backend/internal/usecase/coach"
	"github.com/stepone-ai/validation-backend/internal/usecase/flow"
	"go.uber.org/zap"
)

// aiGateway is the full AI gateway surface the application wires up.
// Both the real connector and the mock satisfy it.
type aiGateway interface {
	flow.GatewayConnector
	voicestream.GatewayConnector
	HealthCheck(ctx context.Context) error
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	validationRepo := repository.NewValidationPostgres(db)
	coachingRepo := repository.NewCoachingPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize the AI gateway connector (with mock support)
	var gatewayConnector aiGateway
	if cfg.EnableMocks {
		logger.Info("Using mock AI gateway connector")
		gatewayConnector = gateway.NewMockConnector(logger)
	} else {
		logger.Info("Using real AI gateway connector")
		gatewayConnector = gateway.NewConnector(cfg.GatewayConnectorCfg, logger)

		if err := gatewayConnector.HealthCheck(ctx); err != nil {
			// The gateway may come up later; startup proceeds.
			logger.Warn("AI gateway health check failed", zap.Error(err))
		}
	}

	// Initialize use cases
	registry := flow.NewRegistry(cfg.SessionTTL)
	newController := func(userID string) *flow.Controller {
		return flow.NewController(userID, gatewayConnector, validationRepo, logger)
	}

	coachUC := coach.NewUsecase(validationRepo, coachingRepo, cfg.StatsCacheTTL, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	validationHandler := validationapi.NewHandler(registry, newController, coachUC, validationRepo)
	voiceHandler := voicestream.NewHandler(registry, gatewayConnector, cfg.VoiceCfg, gateway.VoiceForPersona)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(validationHandler, voiceHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
