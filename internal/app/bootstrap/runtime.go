// Package bootstrap wires optional infrastructure (Redis, DynamoDB,
// Postgres, email) from configuration, falling back to in-memory
// implementations so the API can run with nothing but a port.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/brighthome/leadquiz/internal/config"
	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/notify"
	"github.com/brighthome/leadquiz/internal/observability/metrics"
	"github.com/brighthome/leadquiz/internal/quiz"
	"github.com/brighthome/leadquiz/internal/sinks"
	"github.com/brighthome/leadquiz/internal/variant"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildVariantStore returns the Redis-backed bucket store when Redis is
// available, otherwise a process-local one.
func BuildVariantStore(redisClient *redis.Client, logger *logging.Logger) variant.Store {
	if redisClient != nil {
		return variant.NewRedisStore(redisClient)
	}
	if logger != nil {
		logger.Warn("redis not configured, variant assignments are process-local")
	}
	return variant.NewMemoryStore()
}

// BuildSessionStore returns the DynamoDB session store when a client is
// provided, otherwise an in-memory store.
func BuildSessionStore(dynamoClient *dynamodb.Client, cfg *appconfig.Config, logger *logging.Logger) quiz.SessionStore {
	if dynamoClient != nil && cfg != nil && strings.TrimSpace(cfg.QuizSessionsTable) != "" {
		return quiz.NewDynamoSessionStore(dynamoClient, cfg.QuizSessionsTable, cfg.QuizSessionTTL, logger)
	}
	if logger != nil {
		logger.Warn("dynamodb not configured, quiz sessions are process-local")
	}
	return quiz.NewMemorySessionStore()
}

// BuildLeadsRepository connects to Postgres when DATABASE_URL is set. The
// returned cleanup closes the pool; it is a no-op for the in-memory fallback.
func BuildLeadsRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Repository, func(), error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		if logger != nil {
			logger.Warn("database not configured, leads are stored in memory")
		}
		return leads.NewInMemoryRepository(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return leads.NewPostgresRepository(pool), pool.Close, nil
}

// BuildEmailSender picks the configured email provider. A misconfigured or
// disabled provider falls back to the logging stub so notifications never
// block lead capture.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	case "ses":
		if sender := notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

// BuildSinks assembles the outbound fan-out targets from configuration.
// Both sinks are optional individually but at least one must be configured.
func BuildSinks(cfg *appconfig.Config, logger *logging.Logger) ([]sinks.Sink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}

	var out []sinks.Sink
	if strings.TrimSpace(cfg.ReceiverURL) != "" {
		receiver, err := sinks.NewReceiverSink(sinks.ReceiverConfig{
			URL:     cfg.ReceiverURL,
			Timeout: cfg.SinkTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: build receiver sink: %w", err)
		}
		out = append(out, receiver)
	}
	if strings.TrimSpace(cfg.AutomationWebhookURL) != "" {
		automation, err := sinks.NewAutomationSink(sinks.AutomationConfig{
			URL:     cfg.AutomationWebhookURL,
			Timeout: cfg.SinkTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: build automation sink: %w", err)
		}
		out = append(out, automation)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bootstrap: no sinks configured, set RECEIVER_URL or AUTOMATION_WEBHOOK_URL")
	}
	return out, nil
}

// BuildMetrics registers and returns the funnel metrics.
func BuildMetrics() *metrics.LeadMetrics {
	return metrics.NewLeadMetrics(nil)
}
