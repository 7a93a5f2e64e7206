package results

import (
	"encoding/json"
	"strings"
)

// Runner callback event names that carry per-host task results
const (
	eventRunnerOK          = "v2_runner_on_ok"
	eventRunnerFailed      = "v2_runner_on_failed"
	eventRunnerUnreachable = "v2_runner_on_unreachable"
)

// event is one line of the runner's JSON-lines stdout callback
type event struct {
	Name  string                     `json:"_event"`
	Hosts map[string]hostTaskOutcome `json:"hosts"`
}

type hostTaskOutcome struct {
	Changed      bool            `json:"changed"`
	IgnoreErrors bool            `json:"ignore_errors"`
	Msg          json.RawMessage `json:"msg"`
	Stdout       string          `json:"stdout"`
	Stderr       string          `json:"stderr"`
}

type hostTally struct {
	ok, failed, unreachable, changed bool
	output                           []string
}

// EventParser reads the structured event stream emitted by the runner's
// JSON-lines stdout callback. When the output holds no events at all (the
// callback was not loaded) it hands the output to Fallback.
type EventParser struct {
	Fallback Parser
}

// Parse implements Parser
func (p EventParser) Parse(output string, targets []string) []HostResult {
	tallies := make(map[string]*hostTally, len(targets))
	for _, target := range targets {
		tallies[target] = &hostTally{}
	}

	seen := 0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil || ev.Name == "" {
			continue
		}
		seen++

		for host, outcome := range ev.Hosts {
			tally, ok := tallies[host]
			if !ok {
				continue
			}
			tally.apply(ev.Name, outcome)
		}
	}

	if seen == 0 && p.Fallback != nil {
		return p.Fallback.Parse(output, targets)
	}

	results := make([]HostResult, 0, len(targets))
	for _, target := range targets {
		tally := tallies[target]
		results = append(results, HostResult{
			Host:    target,
			Status:  tally.status(),
			Output:  strings.TrimSpace(strings.Join(tally.output, "\n")),
			Changed: tally.changed,
		})
	}
	return results
}

func (t *hostTally) apply(name string, outcome hostTaskOutcome) {
	switch name {
	case eventRunnerOK:
		t.ok = true
	case eventRunnerFailed:
		if outcome.IgnoreErrors {
			t.ok = true
		} else {
			t.failed = true
		}
	case eventRunnerUnreachable:
		t.unreachable = true
	default:
		return
	}

	if outcome.Changed {
		t.changed = true
	}
	if msg := rawText(outcome.Msg); msg != "" {
		t.output = append(t.output, msg)
	}
	if outcome.Stdout != "" {
		t.output = append(t.output, strings.TrimRight(outcome.Stdout, "\n"))
	}
	if outcome.Stderr != "" {
		t.output = append(t.output, strings.TrimRight(outcome.Stderr, "\n"))
	}
}

// status reports the worst outcome seen for the host
func (t *hostTally) status() Status {
	switch {
	case t.unreachable:
		return StatusUnreachable
	case t.failed:
		return StatusFailed
	case t.ok:
		return StatusSuccess
	default:
		return StatusUnknown
	}
}

// rawText renders a msg field that may be a string or any other JSON value.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
