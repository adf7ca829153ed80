package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "EVENTS_EXCHANGE")
	unsetEnvWithCleanup(t, "FUZZY_AMOUNT_TOLERANCE_CENTS")
	unsetEnvWithCleanup(t, "REMINDER_LEAD_HOURS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.EventsExchange != "pickleball.events" {
		t.Fatalf("expected default events exchange, got %q", cfg.EventsExchange)
	}
	if cfg.FuzzyAmountToleranceCents != 0 {
		t.Fatalf("expected zero default amount tolerance, got %d", cfg.FuzzyAmountToleranceCents)
	}
	if cfg.FuzzySenderDistanceMax != 2 {
		t.Fatalf("expected default sender distance 2, got %d", cfg.FuzzySenderDistanceMax)
	}
	if cfg.ReminderLeadHours != 48 {
		t.Fatalf("expected default reminder lead 48h, got %d", cfg.ReminderLeadHours)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "DATABASE_URL", "postgres://localhost:5432/roster")
	setEnvWithCleanup(t, "FUZZY_AMOUNT_TOLERANCE_CENTS", "25")
	setEnvWithCleanup(t, "NOTICE_RATE_LIMIT_PER_MINUTE", "15")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected server port 9090, got %q", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "postgres://localhost:5432/roster" {
		t.Fatalf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.FuzzyAmountToleranceCents != 25 {
		t.Fatalf("expected amount tolerance 25, got %d", cfg.FuzzyAmountToleranceCents)
	}
	if cfg.NoticeRateLimitPerMinute != 15 {
		t.Fatalf("expected notice rate limit 15, got %d", cfg.NoticeRateLimitPerMinute)
	}
}

func TestLoadConfig_PortEnvTakesPrecedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "PORT", "3000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "3000" {
		t.Fatalf("expected PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_InternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "ROSTER_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_CoercesNegativeTuning(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "FUZZY_AMOUNT_TOLERANCE_CENTS", "-5")
	setEnvWithCleanup(t, "FUZZY_SENDER_DISTANCE_MAX", "-1")
	setEnvWithCleanup(t, "REMINDER_LEAD_HOURS", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FuzzyAmountToleranceCents != 0 {
		t.Fatalf("expected coerced tolerance 0, got %d", cfg.FuzzyAmountToleranceCents)
	}
	if cfg.FuzzySenderDistanceMax != 0 {
		t.Fatalf("expected coerced distance 0, got %d", cfg.FuzzySenderDistanceMax)
	}
	if cfg.ReminderLeadHours != 48 {
		t.Fatalf("expected lead hours fallback 48, got %d", cfg.ReminderLeadHours)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
