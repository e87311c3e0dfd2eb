package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("FREESTORE_APP_ENV", "dev")
	t.Setenv("FREESTORE_DB_DSN", "postgres://localhost/freestore_test")
	t.Setenv("FREESTORE_JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env")
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.App.Port)
	}
	if cfg.Session.CookieName != "freestore_sid" {
		t.Fatalf("unexpected session cookie %q", cfg.Session.CookieName)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Fatalf("unexpected session ttl %s", cfg.Session.TTL)
	}
	if len(cfg.Checkout.EmailDomains) != 2 {
		t.Fatalf("expected two default email domains, got %v", cfg.Checkout.EmailDomains)
	}
	if cfg.Checkout.ShopfloorLocation != "Shopfloor" {
		t.Fatalf("unexpected shopfloor location %q", cfg.Checkout.ShopfloorLocation)
	}
	if got := cfg.JWT.RefreshTokenTTL(); got != 43200*time.Minute {
		t.Fatalf("unexpected refresh ttl %s", got)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("FREESTORE_APP_ENV", "dev")
	t.Setenv("FREESTORE_DB_DSN", "")
	t.Setenv("FREESTORE_JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DSN")
	}
}
