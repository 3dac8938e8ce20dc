package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENTITLE_APP_ENV", "dev")
	t.Setenv("ENTITLE_JWT_SECRET", "secret")
	t.Setenv("ENTITLE_JWT_ISSUER", "entitle")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.App.Port)
	}
	if cfg.Billing.CacheTTL != 60*time.Minute {
		t.Fatalf("expected 60m cache ttl, got %s", cfg.Billing.CacheTTL)
	}
	if cfg.Stripe.Environment() != "test" {
		t.Fatalf("expected test stripe env, got %s", cfg.Stripe.Environment())
	}
}

func TestLoadRejectsBadStripeEnv(t *testing.T) {
	t.Setenv("ENTITLE_APP_ENV", "dev")
	t.Setenv("ENTITLE_JWT_SECRET", "secret")
	t.Setenv("ENTITLE_JWT_ISSUER", "entitle")
	t.Setenv("ENTITLE_STRIPE_ENV", "sandbox")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid stripe env")
	}
}

func TestRecognizedPriceIDs(t *testing.T) {
	t.Setenv("ENTITLE_APP_ENV", "dev")
	t.Setenv("ENTITLE_JWT_SECRET", "secret")
	t.Setenv("ENTITLE_JWT_ISSUER", "entitle")
	t.Setenv("ENTITLE_STRIPE_PRICE_IDS", "price_a, price_b ,,price_c")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := cfg.Stripe.RecognizedPriceIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 price ids, got %v", ids)
	}
	if ids[1] != "price_b" {
		t.Fatalf("expected trimmed price_b, got %q", ids[1])
	}
}
