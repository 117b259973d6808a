// Package health exposes liveness and readiness probe endpoints.
//
// Checks run periodically in the background. A check flips to unhealthy only
// after failing several times in a row, and back to healthy after a clean
// pass, so a single slow poll does not flap the probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type probeKind int

const (
	probeLiveness probeKind = iota
	probeReadiness
)

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

type check struct {
	name    string
	kind    probeKind
	timeout time.Duration
	fn      CheckFunc

	// healthy and lastErr are read by HTTP handlers from arbitrary
	// goroutines; the consecutive counters are touched only by the single
	// poll goroutine.
	healthy atomic.Bool
	lastErr atomic.Pointer[error]
	fails   int
	passes  int
}

func (c *check) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.passes = 0
		if c.fails++; c.fails >= defaultFailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	if c.passes++; c.passes >= defaultSuccessThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "check is unhealthy", true
}

// Service tracks probe checks and overall readiness for one process.
type Service struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New returns a Service in the not-ready state. Call SetReady(true) once
// startup has finished.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check that gates the liveness probe.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(name, probeLiveness, timeout, fn)
}

// AddReadinessCheck registers a check that gates the readiness probe,
// typically connectivity to a hard dependency such as the database.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(name, probeReadiness, timeout, fn)
}

func (s *Service) add(name string, kind probeKind, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: kind, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	s.mu.Lock()
	s.checks = append(s.checks, c)
	s.mu.Unlock()
}

// Start polls every registered check at the given interval until the context
// is cancelled or Stop is called. Register all checks before calling Start.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := make([]*check, len(s.checks))
	copy(checks, s.checks)
	s.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.poll(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.poll(ctx)
				}
			}
		}()
	}
}

// Stop cancels the background polling goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set it to false during graceful
// shutdown so load balancers drain the instance before connections close.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// currently passes.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	return len(s.snapshot(probeReadiness, nil)) == 0
}

// snapshot returns failure messages for checks of the given kind, keyed by
// check name, with extra entries merged in.
func (s *Service) snapshot(kind probeKind, extra map[string]string) map[string]string {
	s.mu.RLock()
	checks := make([]*check, len(s.checks))
	copy(checks, s.checks)
	s.mu.RUnlock()

	failures := make(map[string]string, len(extra))
	for _, c := range checks {
		if c.kind != kind {
			continue
		}
		if msg, failed := c.failure(); failed {
			failures[c.name] = msg
		}
	}
	for k, v := range extra {
		failures[k] = v
	}
	return failures
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe: 200 while every liveness check
// passes, 503 with per-check messages otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, s.snapshot(probeLiveness, nil))
}

// ReadyEndpoint serves the readiness probe: 200 once SetReady(true) has been
// called and every readiness check passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	var extra map[string]string
	if !s.ready.Load() {
		extra = map[string]string{"_readiness": "service is not ready"}
	}
	writeProbe(w, s.snapshot(probeReadiness, extra))
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
