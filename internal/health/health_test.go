package health

import (
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestTracker(clock *fixedClock) *Tracker {
	t := NewTracker("model")
	t.now = clock.now
	return t
}

func TestTracker_States(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := newTestTracker(clock)

	if got := tr.HealthCheck().Status; got != StatusUnknown {
		t.Fatalf("fresh tracker = %q", got)
	}

	tr.RecordSuccess()
	if got := tr.HealthCheck().Status; got != StatusOK {
		t.Fatalf("after success = %q", got)
	}

	clock.t = clock.t.Add(time.Second)
	tr.RecordError(errors.New("connection refused"))
	h := tr.HealthCheck()
	if h.Status != StatusError || h.Message != "connection refused" {
		t.Fatalf("after error = %+v", h)
	}

	clock.t = clock.t.Add(time.Second)
	tr.Record(nil)
	if got := tr.HealthCheck().Status; got != StatusDegraded {
		t.Fatalf("recovered = %q", got)
	}

	clock.t = clock.t.Add(recoveryWindow + time.Second)
	h = tr.HealthCheck()
	if h.Status != StatusOK || h.Successes != 2 || h.Errors != 1 {
		t.Fatalf("after window = %+v", h)
	}
}

func TestRegistry_Overall(t *testing.T) {
	r := NewRegistry()
	r.Register("store", CheckerFunc(func() ComponentHealth { return ComponentHealth{Name: "store", Status: StatusOK} }))
	if got := r.Check().Status; got != StatusOK {
		t.Fatalf("status = %q", got)
	}
	r.Register("model", CheckerFunc(func() ComponentHealth { return ComponentHealth{Name: "model", Status: StatusDegraded} }))
	if got := r.Check().Status; got != StatusDegraded {
		t.Fatalf("status = %q", got)
	}
	r.Register("fetch", CheckerFunc(func() ComponentHealth { return ComponentHealth{Name: "fetch", Status: StatusError} }))
	rep := r.Check()
	if rep.Status != StatusError || len(rep.Components) != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if names := r.Names(); names[0] != "fetch" || names[2] != "store" {
		t.Errorf("names = %v", names)
	}
}

func TestRegistry_UnknownIsNotError(t *testing.T) {
	r := NewRegistry()
	r.Register("model", NewTracker("model"))
	if got := r.Check().Status; got != StatusOK {
		t.Errorf("status = %q", got)
	}
}
