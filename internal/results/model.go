// Package results classifies per-host outcomes from runner output and folds
// them into execution summaries.
package results

// Status is the classified outcome for one host
type Status string

const (
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
	StatusUnreachable Status = "unreachable"
	StatusUnknown     Status = "unknown"
)

// HostResult is the outcome recorded for one target
type HostResult struct {
	Host    string `json:"host"`
	Status  Status `json:"status"`
	Output  string `json:"output"`
	Changed bool   `json:"changed"`
	// Duration is always 0; per-host timing is not measured.
	Duration float64 `json:"duration"`
}

// Summary counts host outcomes for one execution. Unknown is reported
// separately so Successful+Failed+Unreachable+Unknown == TotalHosts whenever
// results were parsed.
type Summary struct {
	TotalHosts    int     `json:"totalHosts"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	Unreachable   int     `json:"unreachable"`
	Unknown       int     `json:"unknown"`
	TotalDuration float64 `json:"totalDuration"`
}

// Response is returned for every execution request, successful or not.
type Response struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	ExecutionID string       `json:"executionId"`
	Results     []HostResult `json:"results"`
	Summary     Summary      `json:"summary"`
	Stdout      string       `json:"ansible_stdout,omitempty"`
	Stderr      string       `json:"ansible_stderr,omitempty"`
}
