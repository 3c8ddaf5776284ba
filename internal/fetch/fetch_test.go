package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/genomemcp/genomemcp/internal/core"
)

func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestFetcher_BackoffOnThrottle(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var delays []time.Duration
	f := New(time.Second, nil)
	f.Sleep = recordingSleep(&delays)

	out, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, 4500 * time.Millisecond}
	if diff := cmp.Diff(want, delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if out.Status != StatusThrottled {
		t.Errorf("status = %v, want throttled", out.Status)
	}
	if out.Attempts != 4 || atomic.LoadInt32(&hits) != 4 {
		t.Errorf("attempts = %d, hits = %d, want 4", out.Attempts, hits)
	}
}

func TestFetcher_RecoversAfterThrottle(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	f := New(time.Second, nil)
	f.Sleep = recordingSleep(&delays)

	out, err := f.Get(context.Background(), srv.URL, url.Values{"q": {"x"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !out.OK() || out.Attempts != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	var body struct{ OK bool }
	if err := out.JSON(&body); err != nil || !body.OK {
		t.Errorf("JSON: %v %+v", err, body)
	}
	if len(delays) != 1 || delays[0] != 500*time.Millisecond {
		t.Errorf("delays = %v", delays)
	}
}

func TestFetcher_NonThrottleStatusReturnsImmediately(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(time.Second, nil)
	f.Sleep = func(context.Context, time.Duration) error {
		t.Fatal("unexpected sleep")
		return nil
	}
	out, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Status != StatusFailure || out.StatusCode != 500 || hits != 1 {
		t.Errorf("outcome = %+v hits = %d", out, hits)
	}
	var terr *core.TransportError
	if !errors.As(out.Err(), &terr) || terr.StatusCode != 500 {
		t.Errorf("Err() = %v", out.Err())
	}
}

func TestFetcher_NetworkErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := New(time.Second, nil)
	_, err := f.Get(context.Background(), addr, nil)
	var terr *core.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestFetcher_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		w.Write(b)
	}))
	defer srv.Close()

	f := New(time.Second, nil)
	out, err := f.PostJSON(context.Background(), srv.URL, map[string]string{"query": "{ x }"})
	if err != nil || !out.OK() {
		t.Fatalf("PostJSON: %v %+v", err, out)
	}
	if string(out.Payload) != `{"query":"{ x }"}` {
		t.Errorf("payload = %s", out.Payload)
	}
}

func TestFetcher_WithMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var delays []time.Duration
	f := New(time.Second, nil)
	f.Sleep = recordingSleep(&delays)
	out, err := f.WithMaxAttempts(1).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Attempts != 2 || len(delays) != 1 {
		t.Errorf("attempts = %d delays = %v", out.Attempts, delays)
	}
	if f.Policy.MaxAttempts != 3 {
		t.Errorf("original policy mutated")
	}
}

func TestFetcher_SleepCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(time.Second, nil)
	f.Sleep = func(context.Context, time.Duration) error { return context.Canceled }
	_, err := f.Get(context.Background(), srv.URL, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
