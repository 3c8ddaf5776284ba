package health

import (
	"sort"
	"sync"
	"time"
)

// Status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
	StatusUnknown  = "unknown"
)

// recoveryWindow is how long a recovered component stays degraded.
const recoveryWindow = 5 * time.Minute

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LastOK    time.Time `json:"last_ok"`
	LastError time.Time `json:"last_error,omitempty"`
	Successes int64     `json:"successes"`
	Errors    int64     `json:"errors"`
}

// Report aggregates health from all components.
type Report struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker is implemented by components that report their health.
type Checker interface {
	HealthCheck() ComponentHealth
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() ComponentHealth

func (f CheckerFunc) HealthCheck() ComponentHealth { return f() }

// Registry holds health checkers for all components.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates a new health registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a component health checker, replacing any with the same name.
func (r *Registry) Register(name string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// Names returns the registered component names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.checkers))
	for n := range r.checkers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Check runs all health checks and returns a report.
func (r *Registry) Check() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := Report{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(r.checkers)),
	}
	for name, c := range r.checkers {
		report.Components[name] = c.HealthCheck()
	}
	report.Status = overall(report.Components)
	return report
}

// overall is error if any component errors, degraded if any is degraded, else ok.
func overall(cs map[string]ComponentHealth) string {
	status := StatusOK
	for _, c := range cs {
		switch c.Status {
		case StatusError:
			return StatusError
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Tracker records call outcomes for one component.
type Tracker struct {
	name string
	now  func() time.Time

	mu           sync.RWMutex
	lastSuccess  time.Time
	lastError    time.Time
	lastErrorMsg string
	successCount int64
	errorCount   int64
}

// NewTracker returns a tracker reporting under name.
func NewTracker(name string) *Tracker {
	return &Tracker{name: name, now: time.Now}
}

// RecordSuccess records a successful call.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSuccess = t.now()
	t.successCount++
}

// RecordError records a failed call.
func (t *Tracker) RecordError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastError = t.now()
	t.lastErrorMsg = err.Error()
	t.errorCount++
}

// Record records err, or a success when err is nil.
func (t *Tracker) Record(err error) {
	if err != nil {
		t.RecordError(err)
		return
	}
	t.RecordSuccess()
}

// HealthCheck reports error while the latest call failed, degraded for a
// while after recovering, and unknown before any call succeeded.
func (t *Tracker) HealthCheck() ComponentHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := ComponentHealth{
		Name:      t.name,
		Status:    StatusOK,
		LastOK:    t.lastSuccess,
		Successes: t.successCount,
		Errors:    t.errorCount,
	}
	if !t.lastError.IsZero() {
		h.LastError = t.lastError
		if t.lastError.After(t.lastSuccess) {
			h.Status = StatusError
			h.Message = t.lastErrorMsg
			return h
		}
		if t.now().Sub(t.lastError) < recoveryWindow {
			h.Status = StatusDegraded
			h.Message = "recent error: " + t.lastErrorMsg
		}
	}
	if t.lastSuccess.IsZero() {
		h.Status = StatusUnknown
		h.Message = "no calls yet"
	}
	return h
}
