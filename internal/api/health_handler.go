package api

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/psbridge/psbridge/internal/config"
	"github.com/psbridge/psbridge/internal/runner"
	"golang.org/x/sync/errgroup"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	proc         runner.ProcessRunner
	health       config.HealthConfig
	runnerBinary string
	playbookPath string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(proc runner.ProcessRunner, health config.HealthConfig, runnerCfg config.RunnerConfig) *HealthHandler {
	health.ApplyDefaults()
	runnerCfg.ApplyDefaults()
	return &HealthHandler{
		proc:         proc,
		health:       health,
		runnerBinary: runnerCfg.Binary,
		playbookPath: runnerCfg.PlaybookPath,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string          `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
	Version      string          `json:"version"`
	Dependencies map[string]bool `json:"dependencies"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. Each configured dependency is probed with
// "<binary> --version"; a failed probe is reported, not fatal.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Version:      Version,
		Dependencies: h.probeDependencies(r.Context()),
	})
}

func (h *HealthHandler) probeDependencies(ctx context.Context) map[string]bool {
	names := make([]string, 0, len(h.health.Dependencies))
	for name := range h.health.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	available := make([]bool, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i := i
		binary := h.health.Dependencies[name]
		g.Go(func() error {
			res, err := h.proc.Run(ctx, runner.Command{
				Path:    binary,
				Args:    []string{"--version"},
				Timeout: h.health.CheckTimeout(),
			})
			available[i] = err == nil && res.ExitCode == 0
			return nil
		})
	}
	_ = g.Wait()

	deps := make(map[string]bool, len(names))
	for i, name := range names {
		deps[name] = available[i]
	}
	return deps
}

// Ready handles GET /ready: the playbook must exist and the runner binary
// must resolve.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"playbook": "ok",
		"runner":   "ok",
	}
	ready := true

	if _, err := os.Stat(h.playbookPath); err != nil {
		checks["playbook"] = err.Error()
		ready = false
	}
	if _, err := exec.LookPath(h.runnerBinary); err != nil {
		checks["runner"] = err.Error()
		ready = false
	}

	response := ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Checks:    checks,
	}
	status := http.StatusOK
	if !ready {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	sendJSON(w, status, response)
}
