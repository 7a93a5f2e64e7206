// Package runner builds and runs the ansible-playbook command line for one
// execution request.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/psbridge/psbridge/internal/config"
)

// Invocation is everything the runner needs for one request. Zero values for
// Timeout, GitRepo and ScriptPath fall back to the configured defaults.
type Invocation struct {
	ExecutionID   string
	InventoryPath string
	Targets       []string
	Action        string
	Parameters    map[string]any
	Timeout       time.Duration
	Cleanup       bool
	GitRepo       string
	ScriptPath    string
}

// Invoker turns an Invocation into a process run
type Invoker struct {
	cfg    config.RunnerConfig
	proc   ProcessRunner
	logger *slog.Logger
}

// NewInvoker creates an invoker. cfg is copied and defaulted.
func NewInvoker(cfg config.RunnerConfig, proc ProcessRunner, logger *slog.Logger) *Invoker {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		cfg:    cfg,
		proc:   proc,
		logger: logger.With("component", "runner_invoker"),
	}
}

// Config returns the effective runner configuration
func (i *Invoker) Config() config.RunnerConfig {
	return i.cfg
}

// Timeout returns the script timeout for inv, applying the default
func (i *Invoker) Timeout(inv Invocation) time.Duration {
	if inv.Timeout > 0 {
		return inv.Timeout
	}
	return i.cfg.DefaultTimeout()
}

// Deadline returns the wall-clock budget for the runner process: the script
// timeout plus the configured buffer.
func (i *Invoker) Deadline(inv Invocation) time.Duration {
	return i.Timeout(inv) + i.cfg.DeadlineBuffer()
}

// Command builds the process invocation for inv
func (i *Invoker) Command(inv Invocation) (Command, error) {
	gitRepo := inv.GitRepo
	if gitRepo == "" {
		gitRepo = i.cfg.DefaultGitRepo
	}
	scriptPath := inv.ScriptPath
	if scriptPath == "" {
		scriptPath = i.cfg.DefaultScriptPath
	}
	timeoutSeconds := int(i.Timeout(inv) / time.Second)

	args := []string{
		i.cfg.PlaybookPath,
		"-i", inv.InventoryPath,
		"--limit", strings.Join(inv.Targets, ","),
		"-e", "ps_action=" + inv.Action,
		"-e", "execution_id=" + inv.ExecutionID,
		"-e", "git_repo=" + gitRepo,
		"-e", "script_file=" + scriptPath,
		"-e", "async_timeout=" + strconv.Itoa(timeoutSeconds),
	}

	if len(inv.Parameters) > 0 {
		encoded, err := json.Marshal(inv.Parameters)
		if err != nil {
			return Command{}, fmt.Errorf("failed to encode parameters: %w", err)
		}
		args = append(args, "-e", "ps_parameters="+string(encoded))
	}

	if outputPath, ok := OutputPath(inv.Parameters); ok {
		args = append(args, "-e", "output_path="+outputPath)
	}

	args = append(args, "-e", "cleanup_temp="+strconv.FormatBool(inv.Cleanup))

	var env []string
	if i.cfg.OutputFormat == config.OutputFormatJSONL {
		env = append(env, "ANSIBLE_STDOUT_CALLBACK="+i.cfg.EventCallback)
	}

	return Command{
		Path:    i.cfg.Binary,
		Args:    args,
		Env:     env,
		Timeout: i.Deadline(inv),
	}, nil
}

// Invoke runs the runner for inv and blocks until it exits or the deadline
// fires, in which case ErrTimeout is returned.
func (i *Invoker) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	cmd, err := i.Command(inv)
	if err != nil {
		return Result{}, err
	}

	i.logger.Info("Executing runner",
		"execution_id", inv.ExecutionID,
		"command", cmd.Path+" "+strings.Join(cmd.Args, " "),
		"deadline", cmd.Timeout,
	)

	res, err := i.proc.Run(ctx, cmd)
	if err != nil {
		return res, err
	}

	i.logger.Debug("Runner exited",
		"execution_id", inv.ExecutionID,
		"exit_code", res.ExitCode,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)

	return res, nil
}

// OutputPath returns parameters["outputPath"] when it is set to a non-empty value
func OutputPath(parameters map[string]any) (string, bool) {
	v, ok := parameters["outputPath"]
	if !ok || v == nil {
		return "", false
	}
	s, isString := v.(string)
	if !isString {
		s = fmt.Sprint(v)
	}
	if s == "" {
		return "", false
	}
	return s, true
}
