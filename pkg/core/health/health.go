// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     health
// Description: Health check registry for the compile service
// Author:      msto63
// Created:     2026-09-14
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a service
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Checker is one dependency check of the compile service (store,
// detector, listeners)
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// funcChecker is a named check function
type funcChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return funcChecker{name: name, fn: fn}
}

func (c funcChecker) Name() string                          { return c.name }
func (c funcChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Registry manages multiple health checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates a new health check registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Service returns the service name reported by the registry
func (r *Registry) Service() string {
	return r.service
}

// Uptime returns the time since the registry was created
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startAt)
}

// Check runs all health checks concurrently and returns the overall status.
// Checks are reported sorted by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Uptime:    time.Since(r.startAt),
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(r.checkers)),
	}

	var wg sync.WaitGroup
	results := make(chan CheckResult, len(r.checkers))

	for _, checker := range r.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			if result.Name == "" {
				result.Name = c.Name()
			}
			results <- result
		}(checker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	overallStatus := StatusHealthy
	for result := range results {
		report.Checks = append(report.Checks, result)
		switch result.Status {
		case StatusUnhealthy:
			overallStatus = StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			if overallStatus != StatusUnhealthy {
				overallStatus = StatusDegraded
			}
		}
	}
	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})

	report.Status = overallStatus
	return report
}

// Report represents the overall health report
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether the service can serve requests. Degraded
// counts as serving.
func (r *Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Common health checks

// PingCheck reports unhealthy when ping returns an error
func PingCheck(name string, ping func(ctx context.Context) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Name: name, Status: StatusHealthy, Message: "ok"}
	})
}

// HTTPCheck checks url with a GET request. Optional dependencies report
// degraded instead of unhealthy when unreachable.
func HTTPCheck(name, url string, timeout time.Duration, optional bool) Checker {
	client := &http.Client{Timeout: timeout}
	failed := StatusUnhealthy
	if optional {
		failed = StatusDegraded
	}

	return NewChecker(name, func(ctx context.Context) CheckResult {
		result := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Details: map[string]interface{}{"url": url},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			result.Status = failed
			result.Message = err.Error()
			return result
		}
		resp, err := client.Do(req)
		if err != nil {
			result.Status = failed
			result.Message = err.Error()
			return result
		}
		resp.Body.Close()

		result.Details["status_code"] = resp.StatusCode
		if resp.StatusCode >= 500 {
			result.Status = failed
			result.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
			return result
		}
		result.Message = "reachable"
		return result
	})
}

// AlwaysHealthy reports healthy as long as the process answers
func AlwaysHealthy(name string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		return CheckResult{Name: name, Status: StatusHealthy, Message: "serving"}
	})
}
