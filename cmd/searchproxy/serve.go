package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/searchproxy/internal/config"
	applog "github.com/nao1215/searchproxy/internal/log"
	"github.com/nao1215/searchproxy/internal/metrics"
	"github.com/nao1215/searchproxy/internal/search"
	"github.com/nao1215/searchproxy/internal/server"
	"github.com/nao1215/searchproxy/internal/tor"
	"github.com/nao1215/searchproxy/internal/upstream"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search proxy",
		Long: `Serve starts the HTTP server.

Routes:
  GET /                 landing page with a search form
  GET /search?q=&safe=  proxied DuckDuckGo results (safe: off, moderate, strict)

Every client is limited to 30 requests per rolling minute by default.

Examples:
  # Listen on the default port (3000, or $PORT)
  searchproxy serve

  # Listen on localhost only, port 8080
  searchproxy serve --host 127.0.0.1 --port 8080

  # Fetch results through an embedded Tor daemon
  searchproxy serve --tor

  # Fetch results through an existing Tor proxy and expose metrics
  searchproxy serve --external-tor 127.0.0.1:9150 --metrics-addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addServeFlags(cmd)
	return cmd
}

// addServeFlags registers the serve flags on cmd. The root command carries
// them too because it serves when no subcommand is given.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on (env PORT)")
	cmd.Flags().String("host", "", "Interface to listen on (default all interfaces)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .searchproxy in current or home directory)")
	cmd.Flags().DurationP("upstream-timeout", "t", config.DefaultUpstreamTimeout, "Timeout for one upstream fetch")
	cmd.Flags().Bool("tor", false, "Fetch results through an embedded Tor daemon")
	cmd.Flags().StringP("external-tor", "e", "",
		"Fetch results through an existing Tor proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.MarkFlagsMutuallyExclusive("tor", "external-tor")
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := tor.ValidateHost(cfg.UpstreamHost()); err != nil {
		return fmt.Errorf("configuration error: upstream host %q: %w", cfg.UpstreamHost(), err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cmd, cfg, logger)
}

// buildConfig loads defaults, the configuration file, and the environment,
// then applies the flags the user set explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("port") {
		if cfg.Port, err = flags.GetInt("port"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("host") {
		if cfg.Host, err = flags.GetString("host"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("upstream-timeout") {
		if cfg.Upstream.Timeout, err = flags.GetDuration("upstream-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("metrics-addr") {
		if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tor") {
		useTor, err := flags.GetBool("tor")
		if err != nil {
			return nil, err
		}
		if useTor {
			cfg.Tor.Mode = config.TorModeEmbedded
		} else {
			cfg.Tor.Mode = config.TorModeOff
		}
	}
	if flags.Changed("external-tor") {
		addr, err := flags.GetString("external-tor")
		if err != nil {
			return nil, err
		}
		cfg.Tor.Mode = config.TorModeExternal
		cfg.Tor.ProxyAddress = addr
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag reads --verbose from the command or the root.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger builds the process logger from the log settings.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := applog.ParseLevel(cfg.Log.Level, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return applog.NewSecureLogger(os.Stderr, applog.Options{
		Format: cfg.Log.Format,
		Level:  level,
	}), nil
}

// serve wires the upstream transport, fetcher, metrics and server, and
// blocks until ctx is done.
func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	httpClient, cleanup, err := upstreamHTTPClient(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	endpoint, err := search.NewEndpoint(cfg.Upstream.URL)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var m *metrics.Metrics
	opts := []upstream.Option{
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithMaxBodySize(cfg.Upstream.MaxBodySize),
		upstream.WithMaxInFlight(cfg.Upstream.MaxInFlight),
		upstream.WithLogger(logger),
	}
	if httpClient != nil {
		opts = append(opts, upstream.WithHTTPClient(httpClient))
	}
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		opts = append(opts, upstream.WithObserver(func(o upstream.Outcome, elapsed time.Duration) {
			m.RecordUpstream(string(o), elapsed)
		}))
	}
	fetcher := upstream.NewFetcher(endpoint, opts...)

	srv, err := server.New(cfg, fetcher, m, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Running on port %d\n", cfg.Port)
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(out, "Metrics on %s/metrics\n", cfg.MetricsAddr)
	}
	return srv.Run(ctx)
}

// upstreamHTTPClient returns the HTTP client for the configured Tor mode,
// or nil for direct access. cleanup is always safe to call.
func upstreamHTTPClient(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	noop := func() {}

	switch cfg.Tor.Mode {
	case config.TorModeExternal:
		client, err := tor.NewClient(cfg.Tor.ProxyAddress)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("tor proxy check failed: %s (make sure Tor is running at %s)",
				status, cfg.Tor.ProxyAddress)
		}
		logger.Info("Tor proxy connection verified", slog.String("address", cfg.Tor.ProxyAddress))
		return client.NewHTTPClient(), noop, nil

	case config.TorModeEmbedded:
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting embedded Tor daemon...")
		fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		daemon := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.Tor.StartupTimeout))
		if err := daemon.Start(ctx); err != nil {
			return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon")
			if err := daemon.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", slog.Any("error", err))
			}
		}

		client, err := daemon.NewClient()
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			cleanup()
			return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %s", status)
		}
		fmt.Fprintf(out, "Embedded Tor daemon started (SOCKS proxy %s)\n", daemon.SocksAddr())
		return client.NewHTTPClient(), cleanup, nil

	default:
		return nil, noop, nil
	}
}
