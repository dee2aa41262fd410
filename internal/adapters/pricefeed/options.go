package pricefeed

import (
	"net/http"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.rps = rps
		}
		if burst > 0 {
			cl.burst = burst
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open before probing again.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(cl *Client) {
		if failures > 0 {
			cl.maxFailures = failures
		}
		if openFor > 0 {
			cl.openFor = openFor
		}
	}
}
