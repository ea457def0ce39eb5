package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/searchproxy/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.Shorthand != "o" {
		t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
	}
	if flag.DefValue != config.DefaultConfigFile {
		t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
	}
	if cmd.Flags().Lookup("force") == nil {
		t.Error("expected force flag")
	}
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".searchproxy")
		out, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, path) {
			t.Errorf("expected output to mention %s, got %q", path, out)
		}

		cfg := config.NewConfig()
		if err := config.LoadFile(path, cfg); err != nil {
			t.Fatalf("generated file does not load: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("generated file does not validate: %v", err)
		}
		if cfg.Port != config.DefaultPort || cfg.Upstream.URL != config.DefaultUpstreamURL {
			t.Errorf("expected template to carry defaults, got port %d url %q", cfg.Port, cfg.Upstream.URL)
		}
		if cfg.Upstream.UserAgent != config.DefaultUserAgent {
			t.Errorf("expected user agent %q, got %q", config.DefaultUserAgent, cfg.Upstream.UserAgent)
		}
		if cfg.RateLimit.Limit != config.DefaultRateLimit || cfg.RateLimit.Window != config.DefaultRateWindow {
			t.Errorf("expected default rate limit, got %d per %v", cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
		if cfg.Tor.Mode != config.TorModeOff {
			t.Errorf("expected tor mode off, got %q", cfg.Tor.Mode)
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
		if _, err := runInit(t, "-o", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".searchproxy")
		if err := os.WriteFile(path, []byte("port: 8080\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := runInit(t, "-o", path)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("expected already exists error, got %v", err)
		}
		content, _ := os.ReadFile(path)
		if string(content) != "port: 8080\n" {
			t.Error("expected existing file to be untouched")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".searchproxy")
		if err := os.WriteFile(path, []byte("port: 8080\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, _ := os.ReadFile(path)
		if !strings.Contains(string(content), "rateLimit:") {
			t.Error("expected file to be replaced by the template")
		}
	})
}
