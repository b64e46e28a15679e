package config

import "testing"

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Relay: RelayConfig{
			AdminIDs:    []int64{1},
			BotUsername: "@ventrelay_bot",
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode default = %q", cfg.Telegram.RunMode)
	}
	if cfg.Store.Backend != StoreBackendRedis {
		t.Fatalf("store backend default = %q", cfg.Store.Backend)
	}
	if cfg.Store.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr default = %q", cfg.Store.Redis.Addr)
	}
	if cfg.Relay.BotUsername != "ventrelay_bot" {
		t.Fatalf("bot username not trimmed: %q", cfg.Relay.BotUsername)
	}
}

func TestNormalizeRequiresAdmins(t *testing.T) {
	cfg := validConfig()
	cfg.Relay.AdminIDs = nil
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for empty admin list")
	}

	cfg = validConfig()
	cfg.Relay.AdminIDs = []int64{1, 0}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for zero admin ID")
	}
}

func TestNormalizeWebhookRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = "webhook"
	cfg.Webhook = WebhookConfig{URL: "https://example.com/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("polling alias not accepted: %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = "dynamo"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNormalizePostgresRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = "postgres"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for postgres backend without host")
	}
}

func TestIsAdmin(t *testing.T) {
	r := RelayConfig{AdminIDs: []int64{10, 20}}
	if !r.IsAdmin(10) || !r.IsAdmin(20) {
		t.Fatal("configured admins must match")
	}
	if r.IsAdmin(30) || r.IsAdmin(0) {
		t.Fatal("unknown IDs must not match")
	}
}
