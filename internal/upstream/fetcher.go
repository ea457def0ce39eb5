package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/searchproxy/internal/document"
	"github.com/nao1215/searchproxy/internal/search"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/transform"
)

// Outcome labels a finished fetch for observers.
type Outcome string

// Fetch outcomes.
const (
	OutcomeOK    Outcome = "ok"
	OutcomeBusy  Outcome = "busy"
	OutcomeError Outcome = "error"
)

// ObserveFunc is called once per Fetch with its outcome and duration.
type ObserveFunc func(outcome Outcome, elapsed time.Duration)

// Fetcher retrieves and parses provider result pages.
type Fetcher struct {
	endpoint    *search.Endpoint
	httpClient  *http.Client
	client      *resty.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	maxInFlight int64
	inFlight    *semaphore.Weighted
	observe     ObserveFunc
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the underlying HTTP client, for example one that
// dials through Tor. Its Timeout is replaced by the fetcher's timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTimeout bounds each fetch, body included.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodySize caps the number of body bytes read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithMaxInFlight caps concurrent fetches.
func WithMaxInFlight(n int64) Option {
	return func(f *Fetcher) {
		f.maxInFlight = n
	}
}

// WithObserver registers fn to be told about every fetch.
func WithObserver(fn ObserveFunc) Option {
	return func(f *Fetcher) {
		f.observe = fn
	}
}

// WithLogger sets the logger for debug output and resty's own messages.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher returns a Fetcher for endpoint.
func NewFetcher(endpoint *search.Endpoint, opts ...Option) *Fetcher {
	f := &Fetcher{
		endpoint:    endpoint,
		userAgent:   "Mozilla/5.0 (DDG Proxy)",
		timeout:     30 * time.Second,
		maxBodySize: 5 * 1024 * 1024,
		maxInFlight: 64,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.httpClient == nil {
		f.httpClient = newDefaultHTTPClient()
	}
	if f.maxInFlight <= 0 {
		f.maxInFlight = 1
	}
	f.inFlight = semaphore.NewWeighted(f.maxInFlight)

	f.client = resty.NewWithClient(f.httpClient).
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: f.logger})

	return f
}

// newDefaultHTTPClient returns a client for direct (non-Tor) upstream access.
func newDefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// Endpoint returns the endpoint this fetcher queries.
func (f *Fetcher) Endpoint() *search.Endpoint {
	return f.endpoint
}

// Fetch performs one upstream request for req and returns the parsed page.
func (f *Fetcher) Fetch(ctx context.Context, req search.Request) (*document.Document, error) {
	start := time.Now()

	if err := f.inFlight.Acquire(ctx, 1); err != nil {
		f.report(OutcomeBusy, start)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamBusy, err)
	}
	defer f.inFlight.Release(1)

	doc, err := f.fetch(ctx, f.endpoint.URL(req))
	if err != nil {
		f.report(OutcomeError, start)
		return nil, err
	}
	f.report(OutcomeOK, start)
	return doc, nil
}

func (f *Fetcher) fetch(ctx context.Context, target string) (*document.Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.userAgent).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	body := resp.RawBody()
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	contentType := resp.Header().Get("Content-Type")
	text, err := decodeUTF8(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	f.logger.Debug("upstream response",
		"url", target,
		"status", resp.StatusCode(),
		"contentType", contentType,
		"bytes", len(raw),
	)

	doc, err := document.Parse(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

func (f *Fetcher) report(outcome Outcome, start time.Time) {
	if f.observe != nil {
		f.observe(outcome, time.Since(start))
	}
}

// decodeUTF8 converts raw to UTF-8 using the Content-Type charset, a BOM
// or a <meta> declaration, in that order of precedence.
func decodeUTF8(raw []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" {
		return raw, nil
	}
	return io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
}

// restyLogger routes resty's messages into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
