// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnv = []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "SESSION_SECRET", "SESSION_TTL", "ALLOWED_ORIGIN"}

// clearEnv unsets the config variables for the rest of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "test-secret")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.SessionTTL)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 3318 || cfg.DatabaseType != "sqlite" || cfg.SessionTTL != 12*time.Hour || cfg.AllowedOrigin != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "other.db", "-session-secret", "s1", "-origin", "https://mun.example"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "other.db" || cfg.SessionSecret != "s1" || cfg.AllowedOrigin != "https://mun.example" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParseFlags_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{"missing database", map[string]string{"SESSION_SECRET": "s"}, nil, "database URL required"},
		{"missing secret", map[string]string{"DATABASE_URL": "x.db"}, nil, "SESSION_SECRET required"},
		{"bad type", map[string]string{"DATABASE_URL": "x.db", "SESSION_SECRET": "s"}, []string{"-t", "mysql"}, "unsupported database type"},
		{"bad port", map[string]string{"DATABASE_URL": "x.db", "SESSION_SECRET": "s"}, []string{"-p", "70000"}, "invalid port"},
		{"bad env port", map[string]string{"PORT": "abc"}, nil, "parse env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := ParseFlags(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MUNVOTE_DOTENV_PROBE=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MUNVOTE_DOTENV_PROBE", "")
	os.Unsetenv("MUNVOTE_DOTENV_PROBE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("MUNVOTE_DOTENV_PROBE"); got != "loaded" {
		t.Errorf("expected loaded, got %q", got)
	}
}
