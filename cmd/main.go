package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/efootball-tournament/config"
	"github.com/Dosada05/efootball-tournament/db"
	"github.com/Dosada05/efootball-tournament/handlers"
	"github.com/Dosada05/efootball-tournament/realtime"
	"github.com/Dosada05/efootball-tournament/repositories"
	api "github.com/Dosada05/efootball-tournament/routes"
	"github.com/Dosada05/efootball-tournament/services"
	"github.com/Dosada05/efootball-tournament/storage"
	"github.com/go-chi/chi/v5"
)

const (
	shutdownTimeout = 15 * time.Second
	requestTimeout  = 30 * time.Second
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("timezone", cfg.Location.String()),
		slog.Bool("r2_enabled", cfg.R2Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Хранилище для выгрузки сетки (Cloudflare R2); без настроек выгрузка отключена
	var store storage.ObjectStore
	if cfg.R2Enabled() {
		store, err = storage.NewCloudflareR2Store(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 store initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 is not configured, bracket export disabled")
	}

	// WebSocket Hub, SSE и диспетчер событий
	wsHub := realtime.NewHub(logger)
	sseBroadcaster := realtime.NewSSEBroadcaster(logger)
	dispatcher := realtime.NewDispatcher(realtime.DefaultDispatchBuffer, logger, wsHub, sseBroadcaster)
	hubDone := make(chan struct{})
	go func() {
		wsHub.Run(ctx)
		close(hubDone)
	}()
	go dispatcher.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	transactor := repositories.NewTransactor(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	eventRepo := repositories.NewPostgresMatchEventRepository(dbConn)
	configRepo := repositories.NewPostgresConfigRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	rankingService := services.NewRankingService(participantRepo)
	scheduleService := services.NewScheduleService(configRepo, matchRepo, cfg.Location)
	bracketService := services.NewBracketService(
		transactor,
		roundRepo,
		matchRepo,
		participantRepo,
		rankingService,
		scheduleService,
		logger,
	)
	roundService := services.NewRoundService(roundRepo, logger)
	matchService := services.NewMatchService(
		transactor,
		matchRepo,
		roundRepo,
		participantRepo,
		eventRepo,
		bracketService,
		logger,
	)
	suggestionService := services.NewSuggestionService(roundRepo, matchRepo, participantRepo, logger)
	participantService := services.NewParticipantService(participantRepo, rankingService, logger)
	tournamentService := services.NewTournamentService(configRepo)
	exportService := services.NewExportService(bracketService, tournamentService, store, logger)
	logger.Info("Services initialized")

	var exportScheduler *services.ExportScheduler
	if store != nil && cfg.ExportInterval > 0 {
		exportScheduler, err = services.StartExportScheduler(ctx, exportService, cfg.ExportInterval, logger)
		if err != nil {
			logger.Error("failed to start export scheduler", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Инициализация обработчиков HTTP
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Bracket:     handlers.NewBracketHandler(bracketService, exportService, cfg.Location, logger),
		Round:       handlers.NewRoundHandler(roundService, bracketService, logger),
		Match:       handlers.NewMatchHandler(matchService, suggestionService, dispatcher, logger),
		Participant: handlers.NewParticipantHandler(participantService, logger),
		Tournament:  handlers.NewTournamentHandler(tournamentService, dbConn, logger),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, cfg.CORSOrigins, logger),
		Events:      sseBroadcaster,
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSOrigins,
		RequestTimeout: requestTimeout,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	// без WriteTimeout: SSE-потоки долгоживущие, /api ограничен middleware.Timeout
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	// SSE-клиенты закрываются сразу, иначе Shutdown ждёт их до таймаута
	server.RegisterOnShutdown(sseBroadcaster.Shutdown)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			<-hubDone
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// хаб закрывает websocket-клиентов после отмены ctx
	stop()
	exportScheduler.Stop()
	<-hubDone
	logger.Info("application exited")
}
