package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/brighthome/leadquiz/internal/config"
	"github.com/brighthome/leadquiz/internal/notify"
	"github.com/brighthome/leadquiz/internal/variant"
	"github.com/brighthome/leadquiz/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Default(), false); client != nil {
		t.Fatal("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientVerifiesPing(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.Default(), true)
	if client == nil {
		t.Fatal("expected client for reachable redis")
	}
	defer client.Close()

	addr := mr.Addr()
	mr.Close()
	cfg = &appconfig.Config{RedisAddr: addr}
	if client := BuildRedisClient(context.Background(), cfg, logging.Default(), true); client != nil {
		t.Fatal("expected nil client when ping fails")
	}
}

func TestBuildVariantStoreFallsBackToMemory(t *testing.T) {
	store := BuildVariantStore(nil, logging.Default())
	if _, ok := store.(*variant.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildSessionStoreFallsBackToMemory(t *testing.T) {
	cfg := &appconfig.Config{QuizSessionsTable: "quiz_sessions", QuizSessionTTL: time.Hour}
	store := BuildSessionStore(nil, cfg, logging.Default())
	if store == nil {
		t.Fatal("expected a session store")
	}
}

func TestBuildLeadsRepositoryFallsBackToMemory(t *testing.T) {
	repo, cleanup, err := BuildLeadsRepository(context.Background(), &appconfig.Config{}, logging.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()
	if repo == nil {
		t.Fatal("expected a repository")
	}
}

func TestBuildEmailSenderDefaultsToStub(t *testing.T) {
	sender := BuildEmailSender(&appconfig.Config{EmailProvider: "none"}, nil, logging.Default())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}

	// SES selected but no client wired still degrades to the stub.
	sender = BuildEmailSender(&appconfig.Config{EmailProvider: "ses"}, nil, logging.Default())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
}

func TestBuildSinks(t *testing.T) {
	if _, err := BuildSinks(&appconfig.Config{}, logging.Default()); err == nil {
		t.Fatal("expected error with no sink URLs")
	}

	cfg := &appconfig.Config{
		ReceiverURL:          "https://receiver.example/webhooks/leads",
		AutomationWebhookURL: "https://automation.example/hooks/abc",
		SinkTimeout:          5 * time.Second,
	}
	built, err := BuildSinks(cfg, logging.Default())
	if err != nil {
		t.Fatalf("BuildSinks returned error: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("expected two sinks, got %d", len(built))
	}

	cfg.AutomationWebhookURL = ""
	built, err = BuildSinks(cfg, logging.Default())
	if err != nil {
		t.Fatalf("BuildSinks returned error: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("expected one sink, got %d", len(built))
	}
}
