package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envNames {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "kontrollen.db" {
			t.Fatalf("unexpected default store: %q %q", cfg.StoreBackend, cfg.SQLitePath)
		}
		if cfg.DocumentPath != "kontrollen.json" {
			t.Fatalf("unexpected default document path: %q", cfg.DocumentPath)
		}
		if cfg.Location.String() != "Europe/Zurich" {
			t.Fatalf("expected Europe/Zurich, got %s", cfg.Location)
		}
		if cfg.StoreTimeout != 15*time.Second {
			t.Fatalf("expected 15s store timeout, got %s", cfg.StoreTimeout)
		}
		if len(cfg.Roster) != 6 || cfg.Roster[0] != "Aniko" {
			t.Fatalf("unexpected default roster: %v", cfg.Roster)
		}
		if cfg.HolidayStart.Format("2006-01-02") != "2025-06-10" || cfg.HolidayEnd.Format("2006-01-02") != "2025-08-31" {
			t.Fatalf("unexpected holiday period: %s..%s", cfg.HolidayStart, cfg.HolidayEnd)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected log settings: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KONTROLLE_HTTP_PORT", "9090")
		t.Setenv("KONTROLLE_STORE_BACKEND", "GitHub")
		t.Setenv("KONTROLLE_GITHUB_TOKEN", "token")
		t.Setenv("KONTROLLE_GITHUB_OWNER", "library")
		t.Setenv("KONTROLLE_GITHUB_REPO", "state")
		t.Setenv("KONTROLLE_GITHUB_BRANCH", "data")
		t.Setenv("KONTROLLE_DOCUMENT_PATH", "data/kontrollen.json")
		t.Setenv("KONTROLLE_ROSTER", " Aniko , Sarah ")
		t.Setenv("KONTROLLE_TIMEZONE", "UTC")
		t.Setenv("KONTROLLE_STORE_TIMEOUT", "2s")
		t.Setenv("KONTROLLE_HOLIDAY_START", "2026-07-01")
		t.Setenv("KONTROLLE_HOLIDAY_END", "2026-08-15")
		t.Setenv("KONTROLLE_LOG_LEVEL", "DEBUG")
		t.Setenv("KONTROLLE_LOG_FORMAT", "text")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.StoreBackend != BackendGitHub || cfg.GitHubOwner != "library" || cfg.GitHubRepo != "state" || cfg.GitHubBranch != "data" {
			t.Fatalf("unexpected github settings: %+v", cfg)
		}
		if !slices.Equal(cfg.Roster, []string{"Aniko", "Sarah"}) {
			t.Fatalf("unexpected roster: %v", cfg.Roster)
		}
		if cfg.Location != time.UTC {
			t.Fatalf("expected UTC, got %s", cfg.Location)
		}
		if cfg.StoreTimeout != 2*time.Second {
			t.Fatalf("expected 2s timeout, got %s", cfg.StoreTimeout)
		}
		if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected log settings: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("errors when github values are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KONTROLLE_STORE_BACKEND", "github")
		t.Setenv("KONTROLLE_GITHUB_OWNER", "library")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: KONTROLLE_GITHUB_TOKEN, KONTROLLE_GITHUB_REPO"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KONTROLLE_HTTP_PORT", "0")
		t.Setenv("KONTROLLE_STORE_BACKEND", "s3")
		t.Setenv("KONTROLLE_TIMEZONE", "Mars/Olympus")
		t.Setenv("KONTROLLE_STORE_TIMEOUT", "soon")
		t.Setenv("KONTROLLE_LOG_FORMAT", "xml")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{
			"KONTROLLE_HTTP_PORT",
			"KONTROLLE_STORE_BACKEND",
			"KONTROLLE_TIMEZONE",
			"KONTROLLE_STORE_TIMEOUT",
			"KONTROLLE_LOG_FORMAT",
		} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("rejects duplicate and blank roster names", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KONTROLLE_ROSTER", "Aniko,Aniko")

		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "KONTROLLE_ROSTER") {
			t.Fatalf("expected roster error, got %v", err)
		}

		t.Setenv("KONTROLLE_ROSTER", "Aniko,,Sarah")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "KONTROLLE_ROSTER") {
			t.Fatalf("expected roster error, got %v", err)
		}
	})

	t.Run("rejects a holiday period ending before it starts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KONTROLLE_HOLIDAY_START", "2025-09-01")

		_, err := Load()
		expected := "environment variables have invalid values: KONTROLLE_HOLIDAY_END"
		if err == nil || err.Error() != expected {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLoader_DotenvFiles(t *testing.T) {

	t.Run("reads files and lets the environment win", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), ".env")
		content := "KONTROLLE_HTTP_PORT=9191\nKONTROLLE_LOG_LEVEL=debug\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write dotenv: %v", err)
		}
		t.Setenv("KONTROLLE_LOG_LEVEL", "warn")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9191 {
			t.Fatalf("expected port from dotenv, got %d", cfg.HTTPPort)
		}
		if cfg.LogLevel != "warn" {
			t.Fatalf("expected environment to win, got %q", cfg.LogLevel)
		}
	})

	t.Run("ignores missing files", func(t *testing.T) {
		clearEnv(t)

		if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
			t.Fatalf("expected missing dotenv to be ignored, got %v", err)
		}
	})
}

func TestConfig_Today(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// 22:30 UTC is already the next day in Zurich summer time.
	now := time.Date(2025, time.June, 10, 22, 30, 0, 0, time.UTC)
	if got := cfg.Today(now); got != "2025-06-11" {
		t.Fatalf("expected 2025-06-11, got %s", got)
	}
}
