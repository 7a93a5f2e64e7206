package results

import (
	"strings"

	"github.com/psbridge/psbridge/internal/config"
)

// Parser classifies each target from captured runner stdout. Results come
// back in target order.
type Parser interface {
	Parse(output string, targets []string) []HostResult
}

// NewParser returns the parser for a runner output format
func NewParser(format string) Parser {
	if format == config.OutputFormatJSONL {
		return EventParser{Fallback: TextParser{}}
	}
	return TextParser{}
}

// TextParser scans human-readable runner output for bracketed host markers.
//
// It is a best-effort heuristic, not a parse: when the runner works on
// several hosts at once their lines interleave and the per-host output
// windows bleed into each other.
type TextParser struct{}

// Parse implements Parser
func (TextParser) Parse(output string, targets []string) []HostResult {
	lines := strings.Split(output, "\n")
	results := make([]HostResult, 0, len(targets))

	for _, target := range targets {
		results = append(results, HostResult{
			Host:    target,
			Status:  textStatus(output, target),
			Output:  hostWindow(lines, target, targets),
			Changed: strings.Contains(output, marker("changed", target)),
		})
	}

	return results
}

func marker(kind, target string) string {
	return kind + ": [" + target + "]"
}

// textStatus checks markers in precedence order: ok, fatal/failed, unreachable.
func textStatus(output, target string) Status {
	switch {
	case strings.Contains(output, marker("ok", target)):
		return StatusSuccess
	case strings.Contains(output, marker("fatal", target)),
		strings.Contains(output, marker("failed", target)):
		return StatusFailed
	case strings.Contains(output, marker("unreachable", target)):
		return StatusUnreachable
	default:
		return StatusUnknown
	}
}

// hostWindow collects the lines between a line tagged [target] and the next
// line tagged with any other target. The opening line is included.
func hostWindow(lines []string, target string, targets []string) string {
	tag := "[" + target + "]"

	var captured []string
	capturing := false
	for _, line := range lines {
		switch {
		case strings.Contains(line, tag):
			capturing = true
			captured = append(captured, line)
		case capturing && mentionsOther(line, target, targets):
			capturing = false
		case capturing:
			captured = append(captured, line)
		}
	}

	return strings.TrimSpace(strings.Join(captured, "\n"))
}

func mentionsOther(line, target string, targets []string) bool {
	for _, other := range targets {
		if other != target && strings.Contains(line, "["+other+"]") {
			return true
		}
	}
	return false
}
