package posters

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

type options struct {
	logger     *log.Logger
	httpClient *http.Client
	now        func() time.Time
	baseURL    string
}

// Option configures a poster.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the client used for Bluesky XRPC calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock overrides time.Now for post timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBaseURL points a poster at another server. Used by tests.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func newOptions(opts []Option) options {
	o := options{
		logger:     log.New(io.Discard),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
