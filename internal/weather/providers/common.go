package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const userAgent = "weather-dashboard/1.0"

// BreakerConfig controls the optional per-provider circuit breaker.
type BreakerConfig struct {
	Enabled             bool
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns a disabled breaker with usable settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            1 * time.Minute,
		Timeout:             2 * time.Minute,
		ConsecutiveFailures: 5,
	}
}

// HTTPClientConfig bundles the shared transport and resilience settings.
type HTTPClientConfig struct {
	Client  *resty.Client
	Breaker BreakerConfig
	Metrics *metrics.Recorder
	Logger  *zap.Logger
}

// NewRestyClient wraps the shared *http.Client. Retries stay disabled: a
// failed call becomes an absent section, not a second attempt.
func NewRestyClient(httpClient *http.Client, logger *zap.Logger) *resty.Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := resty.NewWithClient(httpClient).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("provider response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
			zap.Int("bytes", len(resp.Body())),
		)
		return nil
	})
	return c
}

// requester performs the single GET each provider needs.
type requester struct {
	name    string
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
	metrics *metrics.Recorder
}

func newRequester(name string, cfg HTTPClientConfig) *requester {
	client := cfg.Client
	if client == nil {
		client = NewRestyClient(&http.Client{Timeout: 10 * time.Second}, cfg.Logger)
	}
	r := &requester{
		name:    name,
		client:  client,
		metrics: cfg.Metrics,
	}
	if cfg.Breaker.Enabled {
		failures := cfg.Breaker.ConsecutiveFailures
		r.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		})
	}
	return r
}

var errCircuitOpen = errors.New("circuit breaker open")

// getJSON issues one GET and decodes a 2xx JSON body into out. Transport and
// status failures wrap weather.ErrUpstream; decode failures wrap
// weather.ErrMalformedResponse.
func (r *requester) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	start := time.Now()
	body, err := r.get(ctx, endpoint, params)
	if err != nil {
		r.metrics.ObserveProvider(r.name, "upstream_error", time.Since(start))
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		r.metrics.ObserveProvider(r.name, "malformed", time.Since(start))
		return r.malformed("decode body: %v", err)
	}
	r.metrics.ObserveProvider(r.name, "ok", time.Since(start))
	return nil
}

func (r *requester) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	do := func() (interface{}, error) {
		resp, err := r.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			Get(endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", weather.ErrUpstream, r.name, err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%w: %s: status %d%s", weather.ErrUpstream, r.name, resp.StatusCode(), upstreamReason(resp.Body()))
		}
		return resp.Body(), nil
	}

	if r.circuit == nil {
		res, err := do()
		if err != nil {
			return nil, err
		}
		return res.([]byte), nil
	}

	res, err := r.circuit.Execute(do)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w: %v", weather.ErrUpstream, r.name, errCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	body, ok := res.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (r *requester) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", weather.ErrMalformedResponse, r.name, fmt.Sprintf(format, args...))
}

// upstreamReason extracts the error text providers put in failure bodies
// (Open-Meteo "reason", OpenWeatherMap "message").
func upstreamReason(body []byte) string {
	var payload struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Reason != "":
		return ": " + payload.Reason
	case payload.Message != "":
		return ": " + payload.Message
	}
	return ""
}

func coord(v float64) string {
	return fmt.Sprintf("%f", v)
}
