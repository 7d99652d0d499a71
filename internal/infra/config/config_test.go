package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "MONGO_DB", "SESSION_TTL", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr default: got %q", cfg.HTTPAddr)
	}
	if cfg.MongoDB != "rently" {
		t.Fatalf("mongo db default: got %q", cfg.MongoDB)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("session ttl default: got %v", cfg.SessionTTL)
	}
	if cfg.OutboxPollInterval != 500*time.Millisecond {
		t.Fatalf("poll interval default: got %v", cfg.OutboxPollInterval)
	}
	want := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	if len(cfg.RetryBackoff) != len(want) {
		t.Fatalf("backoff default: got %v", cfg.RetryBackoff)
	}
	for i := range want {
		if cfg.RetryBackoff[i] != want[i] {
			t.Fatalf("backoff[%d]: got %v", i, cfg.RetryBackoff[i])
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("RETRY_BACKOFF", "2s,10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("http addr: got %q", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Fatalf("brokers: got %v", cfg.KafkaBrokers)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("session ttl: got %v", cfg.SessionTTL)
	}
	if len(cfg.RetryBackoff) != 2 || cfg.RetryBackoff[1] != 10*time.Second {
		t.Fatalf("backoff: got %v", cfg.RetryBackoff)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("want error for invalid SESSION_TTL")
	}
}
