package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"teachers_portal/backend/internal/auth"
	"teachers_portal/backend/internal/gateway"
	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/maestra"
	"teachers_portal/backend/internal/report"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
	"teachers_portal/backend/internal/teacher"
)

func main() {
	envErr := shared.LoadEnv(".env")

	// 1. Load Configuration (MONGO_URI and JWT_SECRET are required)
	cfg, err := shared.LoadServiceConfig("teachers-portal")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := shared.ValidateServiceConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := shared.NewLogger(cfg)
	log.Logger = logger
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("using system environment variables")
	}
	shared.PrintConfig(cfg, logger)

	// 2. Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			logger.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	// 3. Stores
	users := auth.NewMongoUserStore(db)
	sessions := auth.NewMongoSessionStore(db)
	students := roster.NewMongoStore(db, cfg.Portal.StudentsCollection, logger)
	grades := grade.NewMongoStore(db, logger)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	g, gctx := errgroup.WithContext(indexCtx)
	for name, ensure := range map[string]func(context.Context) error{
		"docentes": users.EnsureIndexes,
		"sessions": sessions.EnsureIndexes,
		"grades":   grades.EnsureIndexes,
	} {
		name, ensure := name, ensure
		g.Go(func() error {
			if err := ensure(gctx); err != nil {
				return fmt.Errorf("%s indexes: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("failed to ensure indexes")
	}
	cancelIndexes()

	// 4. Services
	validate := validator.New(validator.WithRequiredStructEnabled())
	auditor := shared.NewMongoAuditor(db, logger)

	writer := grade.NewWriter(grades, cfg.Portal.GradeQueueSize, cfg.Portal.GradeWriteTimeout, logger)
	registry := teacher.NewRegistry(cfg.Portal.WorkspaceTTL, roster.NewSource(students, logger), writer, logger)

	router := gateway.SetupRoutes(&gateway.Services{
		Auth:       auth.NewAuthService(users, sessions, cfg, auditor, validate, logger),
		Workspaces: registry,
		Reports:    report.NewService(students, grades, cfg.Portal.ReportSubjects, cfg.Portal.PassingAverage, logger),
		Students:   maestra.NewService(students, grades, auditor, validate, logger),
		Validate:   validate,
		CORS:       cfg.CORS,
		Logger:     logger,
		Ping: func(ctx context.Context) error {
			return shared.PingMongoDB(ctx, client)
		},
	})

	// 5. Configure Server
	server := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.ServicePort).Msg("portal listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down portal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown")
	}

	// pending grades are flushed before the database goes away
	writer.Close()
	logger.Info().Msg("portal stopped")
}
