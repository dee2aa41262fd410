// Package pricefeed fetches spot token prices over HTTP.
//
// The feed answers GET {base}/price?ticker=nmr with {"ticker":"nmr","price":12.3}.
// Calls are rate limited and go through a circuit breaker so a failing feed
// is not hammered while reports keep asking.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/pkg/metrics"
)

// Sentinel kinds for price feed errors.
var (
	ErrBadStatus = errors.New("price feed returned an error status")
	ErrBadPrice  = errors.New("price feed returned an invalid price")
)

// Defaults.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultRPS         = 2
	DefaultBurst       = 2
	DefaultMaxFailures = 3
	DefaultOpenFor     = 30 * time.Second
	maxBody            = 1 << 16
)

type quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// Client is a lookup.PriceOracle backed by an HTTP price feed.
type Client struct {
	base        *url.URL
	http        *http.Client
	timeout     time.Duration
	rps         float64
	burst       int
	maxFailures uint32
	openFor     time.Duration

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ lookup.PriceOracle = (*Client)(nil)

// New builds a client for the feed at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid price feed url %q", baseURL)
	}
	c := &Client{
		base:        u,
		http:        &http.Client{},
		timeout:     DefaultTimeout,
		rps:         DefaultRPS,
		burst:       DefaultBurst,
		maxFailures: DefaultMaxFailures,
		openFor:     DefaultOpenFor,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.limiter = rate.NewLimiter(rate.Limit(c.rps), c.burst)
	st := gobreaker.Settings{Name: "price_feed", Timeout: c.openFor}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= c.maxFailures }
	st.OnStateChange = func(_ string, _, to gobreaker.State) {
		metrics.UpdatePriceFeedBreakerState(breakerGauge(to))
	}
	c.breaker = gobreaker.NewCircuitBreaker(st)
	metrics.UpdatePriceFeedBreakerState(metrics.BreakerClosed)
	return c, nil
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Spot implements lookup.PriceOracle.
func (c *Client) Spot(ctx context.Context, ticker string) (float64, error) {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, ticker)
	})
	ms := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.RecordLookup(lookup.ServiceSpot, outcome, ms)
		return 0, lookup.Wrap(lookup.ServiceSpot, ticker, err)
	}
	metrics.RecordLookup(lookup.ServiceSpot, "ok", ms)
	return v.(float64), nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath("price")
	u.RawQuery = url.Values{"ticker": {ticker}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return 0, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	var q quote
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&q); err != nil {
		return 0, fmt.Errorf("decode price feed response: %w", err)
	}
	if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return 0, fmt.Errorf("%w: %v", ErrBadPrice, q.Price)
	}
	return q.Price, nil
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
