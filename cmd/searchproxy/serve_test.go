package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/searchproxy/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// writeConfig writes content to a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		file  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "file values without flags",
			file: "port: 8080\nupstream:\n  timeout: 5s\n",
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Port != 8080 {
					t.Errorf("expected port 8080, got %d", cfg.Port)
				}
				if cfg.Upstream.Timeout != 5*time.Second {
					t.Errorf("expected timeout 5s, got %v", cfg.Upstream.Timeout)
				}
			},
		},
		{
			name: "flags override file",
			file: "port: 8080\nhost: 0.0.0.0\n",
			args: []string{"--port", "9000", "--host", "127.0.0.1", "--upstream-timeout", "2s", "--metrics-addr", "127.0.0.1:9090"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Port != 9000 {
					t.Errorf("expected port 9000, got %d", cfg.Port)
				}
				if cfg.Host != "127.0.0.1" {
					t.Errorf("expected host 127.0.0.1, got %q", cfg.Host)
				}
				if cfg.Upstream.Timeout != 2*time.Second {
					t.Errorf("expected timeout 2s, got %v", cfg.Upstream.Timeout)
				}
				if cfg.MetricsAddr != "127.0.0.1:9090" {
					t.Errorf("expected metrics addr, got %q", cfg.MetricsAddr)
				}
			},
		},
		{
			name: "unset flags keep file values",
			file: "upstream:\n  timeout: 7s\n",
			args: []string{"--port", "4000"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Upstream.Timeout != 7*time.Second {
					t.Errorf("expected file timeout 7s to survive, got %v", cfg.Upstream.Timeout)
				}
			},
		},
		{
			name: "embedded tor",
			file: "tor:\n  mode: \"off\"\n",
			args: []string{"--tor"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Tor.Mode != config.TorModeEmbedded {
					t.Errorf("expected embedded mode, got %q", cfg.Tor.Mode)
				}
			},
		},
		{
			name: "external tor",
			file: "",
			args: []string{"--external-tor", "127.0.0.1:9150", "-v"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Tor.Mode != config.TorModeExternal {
					t.Errorf("expected external mode, got %q", cfg.Tor.Mode)
				}
				if cfg.Tor.ProxyAddress != "127.0.0.1:9150" {
					t.Errorf("expected proxy address, got %q", cfg.Tor.ProxyAddress)
				}
				if !cfg.Verbose {
					t.Error("expected verbose")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			serveCmd, _, err := root.Find([]string{"serve"})
			if err != nil {
				t.Fatalf("failed to find serve command: %v", err)
			}
			args := append([]string{"--config", writeConfig(t, tt.file)}, tt.args...)
			if err := serveCmd.ParseFlags(args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg, err := buildConfig(serveCmd)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestBuildConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	if _, err := buildConfig(cmd); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestServeCmd_TorFlagsAreExclusive(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--tor", "--external-tor", "127.0.0.1:9050"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when both --tor and --external-tor are set")
	}
}

func TestServeCmd_RejectsInvalidOnionUpstream(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "upstream:\n  url: http://facebookcorewwwi.onion/html/\ntor:\n  mode: external\n")

	cmd := NewServeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "deprecated") {
		t.Errorf("expected v2 onion rejection, got %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Log.Level = "loud"
	if _, err := setupLogger(cfg); err == nil {
		t.Error("expected error for unknown log level")
	}

	cfg.Log.Level = "info"
	logger, err := setupLogger(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level to be enabled")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be disabled")
	}
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServe_EndToEnd(t *testing.T) {
	t.Parallel()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<a href="/l/?q=`+r.URL.Query().Get("q")+`">result</a>`)
	}))
	defer provider.Close()

	cfg := config.NewConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.Upstream.URL = provider.URL + "/html/"
	cfg.ShutdownTimeout = time.Second

	cmd := NewServeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cmd, cfg, logger)
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	base := "http://" + cfg.Addr()

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = client.Get(base + "/search?q=gopher")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if want := `href="` + provider.URL + `/l/?q=gopher"`; !strings.Contains(string(body), want) {
		t.Errorf("expected body to contain %s, got %q", want, string(body))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
