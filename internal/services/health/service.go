package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

// Service encapsulates liveness and readiness checks.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Check
	Timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Check), Timeout: defaultCheckTimeout}
}

// Register adds a named readiness check.
func (s *Service) Register(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Status returns the liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Report is the readiness payload.
type Report struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Ready runs every check with a per-check timeout.
func (s *Service) Ready(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	report := Report{Ready: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := checks[name](cctx)
		cancel()
		if err != nil {
			report.Ready = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
