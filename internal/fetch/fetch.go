// Package fetch wraps outbound HTTP calls with a throttling-aware retry policy.
// Every upstream client goes through a Fetcher; each logical call starts its
// own backoff counter and no rate-limit state is shared between calls.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
)

const tracerName = "github.com/genomemcp/genomemcp/internal/fetch"

// DefaultTimeout is the per-request budget for data fetches.
const DefaultTimeout = 30 * time.Second

// Status classifies a single fetch result.
type Status int

const (
	StatusSuccess Status = iota
	StatusThrottled
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusThrottled:
		return "retryable_throttle"
	default:
		return "failure"
	}
}

// Outcome is the result of the last HTTP attempt of a fetch. It is consumed
// immediately by the calling client and never stored.
type Outcome struct {
	URL        string
	Status     Status
	StatusCode int
	Payload    []byte
	Attempts   int
}

// OK reports a 2xx response.
func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// Err returns nil for a successful outcome, otherwise a *core.TransportError
// carrying the HTTP status.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &core.TransportError{URL: o.URL, StatusCode: o.StatusCode}
}

// JSON decodes the payload into v.
func (o Outcome) JSON(v any) error {
	return json.Unmarshal(o.Payload, v)
}

// Policy configures the throttling backoff. The wait before retry n (0-based)
// is BaseDelay * Multiplier^n.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultPolicy waits 0.5s, 1.5s, 4.5s, then makes one final attempt.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Multiplier:  3,
}

// Delay returns the wait after throttled attempt n.
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetcher performs rate-limit-aware HTTP requests.
type Fetcher struct {
	HTTP      *http.Client
	Policy    Policy
	Sleep     SleepFunc
	Logger    *zap.Logger
	UserAgent string
}

// New creates a fetcher with the given per-request timeout (DefaultTimeout when zero).
func New(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		HTTP:      &http.Client{Timeout: timeout},
		Policy:    DefaultPolicy,
		Sleep:     sleepContext,
		Logger:    logger,
		UserAgent: "genomemcp/1.0",
	}
}

// WithMaxAttempts returns a copy of f that retries throttling n times.
func (f *Fetcher) WithMaxAttempts(n int) *Fetcher {
	cp := *f
	cp.Policy.MaxAttempts = n
	return &cp
}

// Get issues a GET request with the given query parameters.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) (Outcome, error) {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}
	return f.do(ctx, http.MethodGet, target, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
}

// PostJSON issues a POST request with body encoded as JSON.
func (f *Fetcher) PostJSON(ctx context.Context, rawURL string, body any) (Outcome, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch: marshal body: %w", err)
	}
	return f.do(ctx, http.MethodPost, rawURL, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (f *Fetcher) do(ctx context.Context, method, target string, build func() (*http.Request, error)) (Outcome, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fetch "+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", target))

	sleep := f.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := 0
	for i := 0; i < f.Policy.MaxAttempts; i++ {
		out, err := f.attempt(build, target)
		attempts++
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Outcome{URL: target, Status: StatusFailure, Attempts: attempts}, err
		}
		if out.Status != StatusThrottled {
			out.Attempts = attempts
			span.SetAttributes(attribute.Int("http.status_code", out.StatusCode), attribute.Int("fetch.attempts", attempts))
			return out, nil
		}
		wait := f.Policy.Delay(i)
		logger.Debug("throttled, backing off",
			zap.String("url", target), zap.Int("attempt", i), zap.Duration("wait", wait))
		if err := sleep(ctx, wait); err != nil {
			terr := &core.TransportError{URL: target, Cause: err}
			span.RecordError(terr)
			return Outcome{URL: target, Status: StatusFailure, Attempts: attempts}, terr
		}
	}

	// Final unconditional attempt; its outcome is returned as-is.
	out, err := f.attempt(build, target)
	attempts++
	out.Attempts = attempts
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	span.SetAttributes(attribute.Int("http.status_code", out.StatusCode), attribute.Int("fetch.attempts", attempts))
	return out, nil
}

func (f *Fetcher) attempt(build func() (*http.Request, error), target string) (Outcome, error) {
	req, err := build()
	if err != nil {
		return Outcome{URL: target, Status: StatusFailure}, &core.TransportError{URL: target, Cause: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{URL: target, Status: StatusFailure}, &core.TransportError{URL: target, Cause: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{URL: target, Status: StatusFailure, StatusCode: resp.StatusCode},
			&core.TransportError{URL: target, StatusCode: resp.StatusCode, Cause: err}
	}
	out := Outcome{URL: target, StatusCode: resp.StatusCode, Payload: payload}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		out.Status = StatusThrottled
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		out.Status = StatusSuccess
	default:
		out.Status = StatusFailure
	}
	return out, nil
}
