package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medassist/telehealth-platform/cmd/mainconfig"
	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/api/router"
	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/booking"
	"github.com/medassist/telehealth-platform/internal/chatlog"
	appconfig "github.com/medassist/telehealth-platform/internal/config"
	"github.com/medassist/telehealth-platform/internal/diagnosis"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/observability/metrics"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/internal/video"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	// Stores
	accountRepo := accounts.NewRepository(pool)
	patientRepo := patients.NewRepository(pool)
	doctorRepo := doctors.NewRepository(pool)
	appointmentRepo := appointments.NewRepository(pool)
	historyStore := chatlog.NewStore(dynamoClient, cfg.ChatHistoryTable, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	// Services
	sessions := accounts.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, redisClient)
	accountService := accounts.NewService(accountRepo, patientRepo, doctorRepo, sessions, logger)
	appointmentService := appointments.NewService(appointmentRepo, doctorRepo, patientRepo, logger)
	bookingWorkflow := booking.NewWorkflow(appointmentRepo, doctorRepo, logger, bookingMetrics)

	classifier, err := diagnosis.NewClient(diagnosis.ClientConfig{
		BaseURL: cfg.DiagnosisAPIURL,
		Timeout: cfg.DiagnosisTimeout,
	})
	if err != nil {
		logger.Error("failed to build diagnosis client", "error", err)
		os.Exit(1)
	}
	intakeCache := diagnosis.NewSessionCache(redisClient, cfg.SessionTTL)
	diagnosisService := diagnosis.NewService(classifier, intakeCache, doctorRepo, historyStore, logger, intakeMetrics)

	tokenClient, err := video.NewTokenClient(video.ClientConfig{
		BaseURL: cfg.VideoTokenURL,
		Timeout: cfg.VideoTokenTimeout,
	})
	if err != nil {
		logger.Error("failed to build video token client", "error", err)
		os.Exit(1)
	}
	videoService := video.NewService(tokenClient, appointmentRepo, doctorRepo, patientRepo, logger)

	// Router
	r := router.New(&router.Config{
		Logger:              logger,
		SessionValidator:    sessions,
		AccountsHandler:     accounts.NewHandler(accountService, logger),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentService, logger),
		BookingHandler:      booking.NewHandler(bookingWorkflow, patientRepo, logger),
		DiagnosisHandler:    diagnosis.NewHandler(diagnosisService, patientRepo, historyStore, logger),
		VideoHandler:        video.NewHandler(videoService, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
