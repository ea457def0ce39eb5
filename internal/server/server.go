package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/searchproxy/internal/config"
	"github.com/nao1215/searchproxy/internal/metrics"
	"github.com/nao1215/searchproxy/internal/middleware"
	"github.com/nao1215/searchproxy/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

// Server is the proxy's HTTP front.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the engine and routes. m may be nil, in which case no metrics
// are recorded and no metrics listener is started.
func New(cfg *config.Config, searcher Searcher, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	limiter, err := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.MaxClients)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	public := Public()
	index, err := fs.ReadFile(public, "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read landing page: %w", err)
	}

	engine := gin.New()
	// Clients are identified by the socket address, never by forwarding headers.
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to configure trusted proxies: %w", err)
	}

	// Recovery runs inside the request log and metrics, which then see the 500.
	var onReject func()
	engine.Use(middleware.RequestLogger(logger))
	if m != nil {
		engine.Use(middleware.Metrics(m))
		onReject = m.RecordRateLimited
	}
	engine.Use(
		middleware.Recovery(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(limiter, onReject),
		middleware.Static(public),
	)

	getOrHead := []string{http.MethodGet, http.MethodHead}
	engine.Match(getOrHead, "/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	engine.Match(getOrHead, "/search", NewSearchHandler(searcher, logger).Handle)
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, NotFoundMessage)
	})

	return &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: m,
		logger:  logger,
	}, nil
}

// Handler returns the main HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured addresses and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}

	var metricsLn net.Listener
	if s.metrics != nil && s.cfg.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", s.cfg.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.MetricsAddr, err)
		}
	}

	return s.Serve(ctx, ln, metricsLn)
}

// listener pairs an http.Server with the listener it serves.
type listener struct {
	srv *http.Server
	ln  net.Listener
}

// Serve serves the proxy on ln and, if metricsLn is not nil, the Prometheus
// endpoint on metricsLn. It returns after ctx is done and every server has
// shut down, or as soon as one server fails.
func (s *Server) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	listeners := []listener{{srv: s.newHTTPServer(s.engine), ln: ln}}
	if metricsLn != nil && s.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		listeners = append(listeners, listener{srv: s.newHTTPServer(mux), ln: metricsLn})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		g.Go(func() error {
			s.logger.Info("listening", slog.String("addr", l.ln.Addr().String()))
			if err := l.srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", l.ln.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down", slog.Duration("grace", s.cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		for _, l := range listeners {
			if err := l.srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("forcing close after grace period",
					slog.String("addr", l.ln.Addr().String()),
					slog.Any("error", err),
				)
				_ = l.srv.Close()
			}
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) newHTTPServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
}
