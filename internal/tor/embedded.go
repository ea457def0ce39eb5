package tor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultStartupTimeout bounds the bootstrap of the embedded daemon.
const DefaultStartupTimeout = 3 * time.Minute

// EmbeddedTor runs a private Tor daemon for the lifetime of the server.
// Bootstrapping usually takes between one and three minutes.
type EmbeddedTor struct {
	startupTimeout time.Duration

	mu        sync.Mutex
	process   *tornago.TorProcess
	socksAddr string
}

// EmbeddedTorOption configures an EmbeddedTor.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets how long Start waits for the daemon to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor returns an EmbeddedTor that has not been started.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon on loopback ports chosen by the OS and blocks
// until it has bootstrapped, the startup timeout passes, or ctx is done.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	cfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr("127.0.0.1:0"),
		tornago.WithTorControlAddr("127.0.0.1:0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type result struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := tornago.StartTorDaemon(cfg)
		done <- result{process: p, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to start embedded Tor daemon: %w", r.err)
		}
		e.mu.Lock()
		e.process = r.process
		e.socksAddr = r.process.SocksAddr()
		e.mu.Unlock()
		return nil
	case <-ctx.Done():
		// The daemon may still come up; stop it once it does.
		go func() {
			if r := <-done; r.err == nil {
				_ = r.process.Stop()
			}
		}()
		return ctx.Err()
	}
}

// Stop shuts the daemon down. It is a no-op if the daemon is not running.
func (e *EmbeddedTor) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process != nil
}

// SocksAddr returns the daemon's SOCKS5 address, or "" if it is not running.
func (e *EmbeddedTor) SocksAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.socksAddr
}

// NewClient returns a Client that dials through the running daemon.
func (e *EmbeddedTor) NewClient() (*Client, error) {
	addr := e.SocksAddr()
	if addr == "" {
		return nil, ErrNotRunning
	}
	return NewClient(addr)
}
