package results

import (
	"time"
)

const (
	MessageCompleted = "PowerShell script execution completed"
	MessageFailed    = "PowerShell script execution failed"
	MessageTimedOut  = "Execution timed out"
)

// Summarize counts results by status. totalHosts is the requested target
// count and duration the measured wall-clock seconds.
func Summarize(results []HostResult, totalHosts int, duration float64) Summary {
	s := Summary{
		TotalHosts:    totalHosts,
		TotalDuration: duration,
	}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Successful++
		case StatusFailed:
			s.Failed++
		case StatusUnreachable:
			s.Unreachable++
		default:
			s.Unknown++
		}
	}
	return s
}

// Completed assembles the response for a runner that exited on its own.
func Completed(executionID string, exitCode int, stdout, stderr string, hosts []HostResult, totalHosts int, elapsed time.Duration) Response {
	success := exitCode == 0

	resp := Response{
		Success:     success,
		Message:     MessageCompleted,
		ExecutionID: executionID,
		Results:     hosts,
		Summary:     Summarize(hosts, totalHosts, elapsed.Seconds()),
		Stderr:      stderr,
	}
	if !success {
		resp.Message = MessageFailed
		resp.Stdout = stdout
	}
	if resp.Results == nil {
		resp.Results = []HostResult{}
	}
	return resp
}

// TimedOut assembles the response for a runner killed at its deadline. Every
// target counts as unreachable and the duration reported is the configured
// script timeout, not the time actually spent.
func TimedOut(executionID string, totalHosts int, timeout time.Duration) Response {
	return Response{
		Success:     false,
		Message:     MessageTimedOut,
		ExecutionID: executionID,
		Results:     []HostResult{},
		Summary: Summary{
			TotalHosts:    totalHosts,
			Unreachable:   totalHosts,
			TotalDuration: timeout.Seconds(),
		},
	}
}

// Failed assembles the response for a runner that could not be run at all.
// Every target counts as failed.
func Failed(executionID string, totalHosts int, err error) Response {
	return Response{
		Success:     false,
		Message:     "Execution failed: " + err.Error(),
		ExecutionID: executionID,
		Results:     []HostResult{},
		Summary: Summary{
			TotalHosts: totalHosts,
			Failed:     totalHosts,
		},
	}
}
