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

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanko-field/schedule/internal/domain"
	"github.com/hanko-field/schedule/internal/handlers"
	"github.com/hanko-field/schedule/internal/platform/config"
	pfirestore "github.com/hanko-field/schedule/internal/platform/firestore"
	"github.com/hanko-field/schedule/internal/platform/jobs"
	"github.com/hanko-field/schedule/internal/platform/observability"
	"github.com/hanko-field/schedule/internal/repositories"
	firestoreRepo "github.com/hanko-field/schedule/internal/repositories/firestore"
	"github.com/hanko-field/schedule/internal/repositories/memory"
	"github.com/hanko-field/schedule/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("schedule")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			logger.Fatal("invalid configuration", zap.Strings("fields", verr.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	projects, closeStore, err := newProjectRepository(ctx, cfg, startedAt)
	if err != nil {
		logger.Fatal("failed to initialise project store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("project store close error", zap.Error(err))
		}
	}()

	publisher, closePublisher, err := newConflictPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise conflict publisher", zap.Error(err))
	}
	defer closePublisher()

	svc, err := services.NewScheduleService(services.ScheduleServiceDeps{
		Projects:          projects,
		Publisher:         publisher,
		Logger:            logger.Named("service"),
		DisableCycleCheck: !cfg.Analytics.CycleCheck,
	})
	if err != nil {
		logger.Fatal("failed to initialise schedule service", zap.Error(err))
	}

	httpLogger := logger.Named("http")
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(httpLogger),
		observability.TraceMiddleware(cfg.Trace.ProjectID),
		observability.RecoveryMiddleware(httpLogger),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithReadinessCheck(svc.Ready),
	)
	scheduleHandlers := handlers.NewScheduleHandlers(svc, handlers.WithMaxBodyBytes(cfg.Analytics.MaxBodyBytes))

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithScheduleRoutes(scheduleHandlers.Routes),
	)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := httpLogger.With(zap.String("addr", server.Addr), zap.String("store", cfg.Store.Backend))
	go func() {
		serverLogger.Info("schedule api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newProjectRepository(ctx context.Context, cfg config.Config, seedAt time.Time) (repositories.ProjectRepository, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return nil, nil, err
		}
		repo, err := firestoreRepo.NewProjectRepository(provider)
		if err != nil {
			_ = provider.Close()
			return nil, nil, err
		}
		return repo, provider.Close, nil
	default:
		seed := memory.SampleProjects(seedAt)
		if cfg.Store.SeedFile != "" {
			loaded, err := memory.LoadSnapshotFile(cfg.Store.SeedFile, domain.WithCycleCheck(cfg.Analytics.CycleCheck))
			if err != nil {
				return nil, nil, err
			}
			seed = loaded
		}
		return memory.NewProjectRepository(seed...), func() error { return nil }, nil
	}
}

func newConflictPublisher(ctx context.Context, cfg config.Config) (services.ConflictPublisher, func(), error) {
	if cfg.PubSub.ConflictTopic == "" {
		return nil, func() {}, nil
	}

	var opts []option.ClientOption
	if host := os.Getenv("PUBSUB_EMULATOR_HOST"); host != "" {
		opts = append(opts,
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub: create client: %w", err)
	}

	publisher, err := jobs.NewPubSubConflictPublisher(client.Topic(cfg.PubSub.ConflictTopic))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func() {
		publisher.Stop()
		_ = client.Close()
	}, nil
}
