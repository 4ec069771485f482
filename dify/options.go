package dify

import (
	"net/http"
	"time"

	"github.com/petal-labs/dify-go/core"
)

// DefaultBaseURL is the default Dify Service API base URL.
const DefaultBaseURL = "https://api.dify.ai/v1"

// Config holds configuration for the client.
type Config struct {
	// APIKey is the Dify application API key (required).
	APIKey core.Secret

	// BaseURL is the API base URL. Defaults to https://api.dify.ai/v1
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	// It is shared by all calls and must be safe for concurrent use.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	// A caller-supplied Authorization header takes precedence over the
	// bearer token derived from APIKey.
	Headers http.Header

	// Timeout is the optional per-request timeout. Note that it bounds
	// the whole request including streaming reads.
	Timeout time.Duration

	// Telemetry receives request lifecycle events. Defaults to a noop.
	Telemetry core.TelemetryHook
}

// Option configures the client.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTelemetry sets the telemetry hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		if h != nil {
			c.Telemetry = h
		}
	}
}
