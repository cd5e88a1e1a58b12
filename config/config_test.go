package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_EnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), "test.env")
	content := "PTRADE_CURRENCY=EUR\nPTRADE_STORE=pebble\nPTRADE_FEED_MAX_AGE=5s\nPTRADE_ALLOWED_ORIGINS=http://a, http://b\n"
	if err := os.WriteFile(env, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables already set, and t.Setenv restores them.
	for _, k := range []string{EnvCurrency, EnvStore, EnvFeedMaxAge, EnvAllowedOrigins} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv(EnvRetries, "5")

	cfg, err := Load(env)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	want.Currency = "EUR"
	want.Store = StorePebble
	want.FeedMaxAge = 5 * time.Second
	want.AllowedOrigins = []string{"http://a", "http://b"}
	want.Retries = 5
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NotValidated(t *testing.T) {
	t.Setenv(EnvStore, StorePostgres)
	t.Setenv(EnvDSN, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want the incomplete config", err)
	}
	if cfg.Validate() == nil {
		t.Error("Validate() accepted postgres without a DSN")
	}
	cfg.Store = StoreMemory
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after override error = %v", err)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() accepted a missing explicit env file")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown currency", func(c *Config) { c.Currency = "XXXX" }, true},
		{"unknown store", func(c *Config) { c.Store = "s3" }, true},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }, true},
		{"postgres with dsn", func(c *Config) { c.Store = StorePostgres; c.DSN = "postgres://localhost/db" }, false},
		{"negative retries", func(c *Config) { c.Retries = -1 }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
