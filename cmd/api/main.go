package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brighthome/leadquiz/cmd/mainconfig"
	"github.com/brighthome/leadquiz/internal/api/router"
	"github.com/brighthome/leadquiz/internal/app/bootstrap"
	appconfig "github.com/brighthome/leadquiz/internal/config"
	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/notify"
	"github.com/brighthome/leadquiz/internal/quiz"
	"github.com/brighthome/leadquiz/internal/sheetstore"
	"github.com/brighthome/leadquiz/internal/submit"
	"github.com/brighthome/leadquiz/internal/variant"
	"github.com/brighthome/leadquiz/internal/webhook"
	"github.com/brighthome/leadquiz/pkg/logging"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadquiz API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	sesClient := sesv2.NewFromConfig(awsCfg)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	leadsRepo, closeRepo, err := bootstrap.BuildLeadsRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	sinkList, err := bootstrap.BuildSinks(cfg, logger)
	if err != nil {
		logger.Error("failed to build sinks", "error", err)
		os.Exit(1)
	}

	sheet, err := sheetstore.NewStore(cfg.WorkbookPath, logger)
	if err != nil {
		logger.Error("failed to open workbook", "error", err)
		os.Exit(1)
	}

	m := bootstrap.BuildMetrics()
	assigner := variant.NewAssigner(bootstrap.BuildVariantStore(redisClient, logger), logger)
	sessionStore := bootstrap.BuildSessionStore(dynamoClient, cfg, logger)
	submitter := submit.NewSubmitter(sinkList, m, logger)
	notifier := notify.NewService(bootstrap.BuildEmailSender(cfg, sesClient, logger), cfg.SalesNotifyEmail, logger)
	processor := webhook.NewProcessor(sheet, leadsRepo, notifier, m, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		QuizHandler:        quiz.NewHandler(sessionStore, assigner, submitter, m, logger),
		WebhookHandler:     webhook.NewHandler(processor, logger),
		LeadsHandler:       leads.NewHandler(leadsRepo, logger),
		MetricsHandler:     promhttp.Handler(),
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicRateLimit:    10,
		PublicRateBurst:    30,
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
