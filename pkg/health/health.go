// Package health probes the dependencies of a running process. Required
// dependencies (backing store, increment ledger) make the process unready
// when down; optional ones (sample sink) only degrade it.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check probes one dependency and returns nil when it is usable.
type Check func(ctx context.Context) error

// Ping adapts a ping method such as (*sql.DB).PingContext.
func Ping(ping func(ctx context.Context) error) Check {
	return Check(ping)
}

type ComponentHealth struct {
	Status   Status `json:"status"`
	Required bool   `json:"required"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

type probe struct {
	check    Check
	required bool
}

// Checker holds the registered probes. Each probe gets at most Timeout.
type Checker struct {
	Timeout time.Duration

	mu     sync.RWMutex
	probes map[string]probe
}

func NewChecker() *Checker {
	return &Checker{Timeout: 3 * time.Second, probes: make(map[string]probe)}
}

// Register adds a dependency the process cannot work without.
func (c *Checker) Register(name string, check Check) {
	c.add(name, probe{check: check, required: true})
}

// RegisterOptional adds a dependency whose failure only degrades the process.
func (c *Checker) RegisterOptional(name string, check Check) {
	c.add(name, probe{check: check})
}

func (c *Checker) add(name string, p probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run probes every dependency concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	probes := make(map[string]probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.RUnlock()

	results := make(map[string]ComponentHealth, len(probes))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, p := range probes {
		name, p := name, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.probe(ctx, p)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if res.Required {
			status = StatusDown
			break
		}
		status = StatusDegraded
	}
	return Report{Status: status, Components: results, CheckedAt: time.Now().UTC()}
}

func (c *Checker) probe(ctx context.Context, p probe) ComponentHealth {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	start := time.Now()
	err := p.check(ctx)
	res := ComponentHealth{
		Status:   StatusUp,
		Required: p.required,
		Latency:  time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		res.Status = StatusDown
		res.Message = err.Error()
	}
	return res
}

// LiveHandler answers 200 while the process runs.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]Status{"status": StatusUp})
	}
}

// ReadyHandler answers 503 only when a required dependency is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
