package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "RABBITMQ_URL", "REDIS_ADDR", "QB_ENVIRONMENT", "CATEGORY_CACHE_TTL", "RUN_MIGRATIONS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HTTPAddr != ":3001" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.RabbitURL != "" || cfg.RedisAddr != "" {
		t.Fatalf("optional integrations should default to disabled: %+v", cfg)
	}
	if cfg.QuickBooks.Environment != "sandbox" {
		t.Fatalf("QuickBooks.Environment = %q", cfg.QuickBooks.Environment)
	}
	if cfg.CategoryCacheTTL != 5*time.Minute {
		t.Fatalf("CategoryCacheTTL = %s", cfg.CategoryCacheTTL)
	}
	if !cfg.RunMigrations {
		t.Fatalf("RunMigrations should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("RUN_MIGRATIONS", "no")
	t.Setenv("QB_ENVIRONMENT", "production")
	t.Setenv("CATEGORY_CACHE_TTL", "30s")
	t.Setenv("QB_REFRESH_WINDOW", "bogus")

	cfg := Load()
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.RunMigrations {
		t.Fatalf("RunMigrations should be false")
	}
	if cfg.QuickBooks.Environment != "production" {
		t.Fatalf("QuickBooks.Environment = %q", cfg.QuickBooks.Environment)
	}
	if cfg.CategoryCacheTTL != 30*time.Second {
		t.Fatalf("CategoryCacheTTL = %s", cfg.CategoryCacheTTL)
	}
	if cfg.QuickBooks.RefreshWindow != 20*time.Minute {
		t.Fatalf("invalid duration should fall back, got %s", cfg.QuickBooks.RefreshWindow)
	}
}

func TestEnvBool(t *testing.T) {
	tests := map[string]struct {
		value    string
		fallback bool
		want     bool
	}{
		"empty uses fallback": {"", true, true},
		"yes":                 {"yes", false, true},
		"zero":                {"0", true, false},
		"garbage":             {"maybe", true, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("RENTAL_TEST_BOOL", tt.value)
			if got := envBool("RENTAL_TEST_BOOL", tt.fallback); got != tt.want {
				t.Fatalf("envBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("splitCSV = %v", got)
	}
	if got := splitCSV(" , "); len(got) != 1 || got[0] != "*" {
		t.Fatalf("empty list should allow all, got %v", got)
	}
}
