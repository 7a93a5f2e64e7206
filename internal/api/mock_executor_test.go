package api

import (
	"context"
	"sync"

	"github.com/psbridge/psbridge/internal/execution"
	"github.com/psbridge/psbridge/internal/results"
	"github.com/psbridge/psbridge/internal/runner"
)

// MockExecutor records requests and answers with ExecuteFunc
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, req execution.Request) results.Response

	Requests []execution.Request
}

func (m *MockExecutor) Execute(ctx context.Context, req execution.Request) results.Response {
	m.Requests = append(m.Requests, req)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, req)
	}
	return results.Response{Success: true, Message: results.MessageCompleted, Results: []results.HostResult{}}
}

// MockProcessRunner answers dependency probes by binary name
type MockProcessRunner struct {
	mu        sync.Mutex
	Available map[string]bool
	Calls     []runner.Command
}

func (m *MockProcessRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, cmd)
	if m.Available[cmd.Path] {
		return runner.Result{Stdout: cmd.Path + " 1.0"}, nil
	}
	return runner.Result{ExitCode: 127}, nil
}
