package config

import (
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG paths and the default config file name.
	AppName = "searchproxy"

	// DefaultPort is used when neither PORT nor a flag sets one.
	DefaultPort = 3000

	// DefaultUpstreamURL is DuckDuckGo's JavaScript-free results page.
	DefaultUpstreamURL = "https://duckduckgo.com/html/"

	// DefaultUserAgent is sent on every upstream request.
	DefaultUserAgent = "Mozilla/5.0 (DDG Proxy)"

	// DefaultUpstreamTimeout bounds one upstream fetch including reading the
	// body. net/http has no timeout of its own.
	DefaultUpstreamTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of an upstream response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultMaxInFlight caps concurrent upstream fetches.
	DefaultMaxInFlight = 64

	// DefaultRateLimit is the number of requests allowed per client per window.
	DefaultRateLimit = 30

	// DefaultRateWindow is the rolling rate-limit window.
	DefaultRateWindow = 60 * time.Second

	// DefaultRateMaxClients bounds the number of clients tracked at once.
	// The least recently seen client is forgotten first.
	DefaultRateMaxClients = 10000

	// DefaultTorProxyAddress is the Tor daemon's standard SOCKS port.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout bounds the embedded daemon's bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultShutdownTimeout is the grace period for in-flight requests on shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Tor routing modes.
const (
	TorModeOff      = "off"
	TorModeExternal = "external"
	TorModeEmbedded = "embedded"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds every setting of the proxy server.
type Config struct {
	// Host is the interface to listen on. Empty means all interfaces.
	Host string `yaml:"host,omitempty" env:"SEARCHPROXY_HOST"`

	// Port is the listening port.
	Port int `yaml:"port,omitempty" env:"PORT"`

	// Upstream describes the search provider.
	Upstream UpstreamConfig `yaml:"upstream,omitempty"`

	// RateLimit configures the per-client request window.
	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`

	// Tor configures optional routing of upstream traffic through Tor.
	Tor TorConfig `yaml:"tor,omitempty"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log,omitempty"`

	// MetricsAddr is the listen address of the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string `yaml:"metricsAddr,omitempty" env:"SEARCHPROXY_METRICS_ADDR"`

	// ShutdownTimeout is how long in-flight requests may take to finish
	// after a shutdown signal.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty" env:"SEARCHPROXY_SHUTDOWN_TIMEOUT"`

	// Verbose forces debug logging. Set from the --verbose flag only.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// UpstreamConfig describes the search provider and how to reach it.
type UpstreamConfig struct {
	// URL is the provider's HTML results endpoint.
	URL string `yaml:"url,omitempty" env:"SEARCHPROXY_UPSTREAM_URL"`

	// UserAgent is sent with every upstream request.
	UserAgent string `yaml:"userAgent,omitempty" env:"SEARCHPROXY_USER_AGENT"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `yaml:"timeout,omitempty" env:"SEARCHPROXY_UPSTREAM_TIMEOUT"`

	// MaxBodySize is the number of response bytes read; the rest is dropped.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty" env:"SEARCHPROXY_MAX_BODY_SIZE"`

	// MaxInFlight is the number of upstream fetches allowed at once.
	MaxInFlight int64 `yaml:"maxInFlight,omitempty" env:"SEARCHPROXY_MAX_IN_FLIGHT"`
}

// RateLimitConfig configures the rolling per-client window.
type RateLimitConfig struct {
	// Limit is the number of requests allowed inside Window.
	Limit int `yaml:"limit,omitempty" env:"SEARCHPROXY_RATE_LIMIT"`

	// Window is the rolling window length.
	Window time.Duration `yaml:"window,omitempty" env:"SEARCHPROXY_RATE_WINDOW"`

	// MaxClients bounds the number of tracked clients.
	MaxClients int `yaml:"maxClients,omitempty" env:"SEARCHPROXY_RATE_MAX_CLIENTS"`
}

// TorConfig configures upstream routing through Tor.
type TorConfig struct {
	// Mode is TorModeOff, TorModeExternal or TorModeEmbedded.
	Mode string `yaml:"mode,omitempty" env:"SEARCHPROXY_TOR_MODE"`

	// ProxyAddress is the SOCKS5 address used in external mode.
	ProxyAddress string `yaml:"proxyAddress,omitempty" env:"SEARCHPROXY_TOR_PROXY"`

	// StartupTimeout bounds the embedded daemon's bootstrap.
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty" env:"SEARCHPROXY_TOR_STARTUP_TIMEOUT"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Format is LogFormatText or LogFormatJSON.
	Format string `yaml:"format,omitempty" env:"SEARCHPROXY_LOG_FORMAT"`

	// Level is an slog level name. Empty means warn.
	Level string `yaml:"level,omitempty" env:"SEARCHPROXY_LOG_LEVEL"`
}

// NewConfig returns a Config filled with the defaults above.
func NewConfig() *Config {
	return &Config{
		Port: DefaultPort,
		Upstream: UpstreamConfig{
			URL:         DefaultUpstreamURL,
			UserAgent:   DefaultUserAgent,
			Timeout:     DefaultUpstreamTimeout,
			MaxBodySize: DefaultMaxBodySize,
			MaxInFlight: DefaultMaxInFlight,
		},
		RateLimit: RateLimitConfig{
			Limit:      DefaultRateLimit,
			Window:     DefaultRateWindow,
			MaxClients: DefaultRateMaxClients,
		},
		Tor: TorConfig{
			Mode:           TorModeOff,
			ProxyAddress:   DefaultTorProxyAddress,
			StartupTimeout: DefaultTorStartupTimeout,
		},
		Log: LogConfig{
			Format: LogFormatText,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpstreamHost returns the lower-cased host name of the upstream URL, or
// an empty string if the URL does not parse.
func (c *Config) UpstreamHost() string {
	u, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// XDGConfigDir returns the per-user configuration directory.
// On Linux: ~/.config/searchproxy
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}

	u, err := url.Parse(c.Upstream.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidUpstreamURL
	}
	if c.Upstream.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Upstream.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Upstream.MaxInFlight <= 0 {
		return ErrInvalidMaxInFlight
	}

	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.MaxClients <= 0 {
		return ErrInvalidRateLimit
	}

	switch c.Tor.Mode {
	case TorModeOff, TorModeExternal, TorModeEmbedded:
	default:
		return ErrInvalidTorMode
	}
	if c.Tor.Mode == TorModeOff && strings.HasSuffix(strings.ToLower(u.Hostname()), ".onion") {
		return ErrOnionRequiresTor
	}

	switch strings.ToLower(c.Log.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return ErrInvalidLogFormat
	}

	if c.ShutdownTimeout < 0 {
		return ErrInvalidShutdownTimeout
	}
	return nil
}
