// Package execution runs one PowerShell action against a set of Windows
// targets: inventory, runner, parse, summarize.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/psbridge/psbridge/internal/inventory"
	"github.com/psbridge/psbridge/internal/results"
	"github.com/psbridge/psbridge/internal/runner"
)

// Options are the recognized per-request knobs
type Options struct {
	Timeout    int    `json:"timeout,omitempty" validate:"gte=0"`
	Cleanup    bool   `json:"cleanup,omitempty"`
	GitRepo    string `json:"gitRepo,omitempty"`
	ScriptPath string `json:"scriptPath,omitempty"`
}

// Request is a single execution request
type Request struct {
	Targets    []string       `json:"targets" validate:"required,min=1,dive,required"`
	Action     string         `json:"action" validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    Options        `json:"options"`
}

// Service executes requests. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	builder      *inventory.Builder
	invoker      *runner.Invoker
	parser       results.Parser
	inventoryDir string
	logger       *slog.Logger
	newID        func() string
}

// NewService wires the execution pipeline
func NewService(builder *inventory.Builder, invoker *runner.Invoker, parser results.Parser, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder:      builder,
		invoker:      invoker,
		parser:       parser,
		inventoryDir: invoker.Config().InventoryDir,
		logger:       logger.With("component", "execution"),
		newID:        func() string { return uuid.New().String() },
	}
}

// Execute runs req and always returns a well-formed response; every failure
// is reported as data.
//
// The runner is detached from ctx cancellation: a client that goes away does
// not kill a playbook half way. Only the runner deadline does.
func (s *Service) Execute(ctx context.Context, req Request) results.Response {
	executionID := s.newID()
	total := len(req.Targets)
	start := time.Now()

	logger := s.logger.With("execution_id", executionID)
	logger.Info("Execution started",
		"action", req.Action,
		"targets", total,
	)

	inv := runner.Invocation{
		ExecutionID: executionID,
		Targets:     req.Targets,
		Action:      req.Action,
		Parameters:  req.Parameters,
		Timeout:     time.Duration(req.Options.Timeout) * time.Second,
		Cleanup:     req.Options.Cleanup,
		GitRepo:     req.Options.GitRepo,
		ScriptPath:  req.Options.ScriptPath,
	}

	res, err := s.run(context.WithoutCancel(ctx), &inv)
	switch {
	case errors.Is(err, runner.ErrTimeout):
		logger.Warn("Execution timed out", "deadline", s.invoker.Deadline(inv))
		return results.TimedOut(executionID, total, s.invoker.Timeout(inv))
	case err != nil:
		logger.Error("Execution failed", "error", err)
		return results.Failed(executionID, total, err)
	}

	hosts := s.parser.Parse(res.Stdout, req.Targets)
	resp := results.Completed(executionID, res.ExitCode, res.Stdout, res.Stderr, hosts, total, time.Since(start))

	logger.Info("Execution finished",
		"success", resp.Success,
		"exit_code", res.ExitCode,
		"successful", resp.Summary.Successful,
		"failed", resp.Summary.Failed,
		"unreachable", resp.Summary.Unreachable,
		"unknown", resp.Summary.Unknown,
		"duration_s", resp.Summary.TotalDuration,
	)
	if resp.Summary.Unknown > 0 {
		logger.Warn("Some hosts could not be classified from runner output", "unknown", resp.Summary.Unknown)
	}

	return resp
}

// run writes the inventory, invokes the runner and removes the inventory on
// every exit path, panics included.
func (s *Service) run(ctx context.Context, inv *runner.Invocation) (runner.Result, error) {
	path, cleanup, err := s.builder.Build(inv.Targets).Write(s.inventoryDir)
	if err != nil {
		return runner.Result{}, fmt.Errorf("inventory: %w", err)
	}
	defer cleanup()

	inv.InventoryPath = path
	return s.invoker.Invoke(ctx, *inv)
}
