package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	LastCheck time.Time         `json:"last_check"`
	Duration  time.Duration     `json:"duration_ms"`
	Details   map[string]string `json:"details,omitempty"`
}

// SystemHealth represents the overall health of the server
type SystemHealth struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Summary    HealthSummary              `json:"summary"`
}

type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Degraded  int `json:"degraded"`
}

// CheckFunc reports the health of one component
type CheckFunc func(ctx context.Context) ComponentHealth

// Checker runs the registered component checks concurrently
type Checker struct {
	components map[string]CheckFunc
	mutex      sync.RWMutex
	timeout    time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Checker{
		components: make(map[string]CheckFunc),
		timeout:    timeout,
	}
}

func (c *Checker) RegisterComponent(name string, check CheckFunc) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.components[name] = check
}

// Check runs every component check. A check that outlives the timeout is
// reported unhealthy.
func (c *Checker) Check(ctx context.Context) SystemHealth {
	c.mutex.RLock()
	components := make(map[string]CheckFunc, len(c.components))
	for name, check := range c.components {
		components[name] = check
	}
	c.mutex.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resultChan := make(chan ComponentHealth, len(components))
	var wg sync.WaitGroup

	for name, check := range components {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			done := make(chan ComponentHealth, 1)
			go func() {
				result := check(checkCtx)
				result.Name = name
				done <- result
			}()

			select {
			case result := <-done:
				resultChan <- result
			case <-checkCtx.Done():
				resultChan <- ComponentHealth{
					Name:      name,
					Status:    StatusUnhealthy,
					Message:   "health check timeout",
					LastCheck: time.Now(),
					Duration:  c.timeout,
				}
			}
		}(name, check)
	}

	wg.Wait()
	close(resultChan)

	results := make(map[string]ComponentHealth, len(components))
	for result := range resultChan {
		results[result.Name] = result
	}

	return summarize(results)
}

func summarize(results map[string]ComponentHealth) SystemHealth {
	summary := HealthSummary{Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusHealthy:
			summary.Healthy++
		case StatusUnhealthy:
			summary.Unhealthy++
		case StatusDegraded:
			summary.Degraded++
		}
	}

	overall := StatusHealthy
	if summary.Unhealthy > 0 {
		overall = StatusUnhealthy
	} else if summary.Degraded > 0 {
		overall = StatusDegraded
	}

	return SystemHealth{
		Status:     overall,
		Timestamp:  time.Now(),
		Components: results,
		Summary:    summary,
	}
}

// Handler serves the system health as JSON. Unhealthy systems answer 503.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := c.Check(r.Context())

		status := http.StatusOK
		if result.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(result)
	}
}

// CountsCheck reports a component healthy and lists its non-zero counts as
// details.
func CountsCheck(counts func() map[string]int) CheckFunc {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		health := ComponentHealth{
			Status:    StatusHealthy,
			LastCheck: start,
			Details:   make(map[string]string),
		}

		total := 0
		for key, n := range counts() {
			total += n
			if n > 0 {
				health.Details[key] = strconv.Itoa(n)
			}
		}
		health.Details["total"] = strconv.Itoa(total)

		health.Duration = time.Since(start)
		return health
	}
}
