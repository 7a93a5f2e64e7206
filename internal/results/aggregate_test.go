package results

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_CountsEveryStatus(t *testing.T) {
	hosts := []HostResult{
		{Host: "a", Status: StatusSuccess},
		{Host: "b", Status: StatusFailed},
		{Host: "c", Status: StatusUnreachable},
		{Host: "d", Status: StatusUnknown},
		{Host: "e", Status: StatusSuccess},
	}

	s := Summarize(hosts, 5, 12.5)
	assert.Equal(t, Summary{TotalHosts: 5, Successful: 2, Failed: 1, Unreachable: 1, Unknown: 1, TotalDuration: 12.5}, s)
	assert.Equal(t, s.TotalHosts, s.Successful+s.Failed+s.Unreachable+s.Unknown)
}

func TestCompleted(t *testing.T) {
	hosts := []HostResult{{Host: "a", Status: StatusSuccess}}

	ok := Completed("id-1", 0, "stdout", "", hosts, 1, 1500*time.Millisecond)
	assert.True(t, ok.Success)
	assert.Equal(t, MessageCompleted, ok.Message)
	assert.Equal(t, "", ok.Stdout, "stdout is only echoed on failure")
	assert.Equal(t, 1.5, ok.Summary.TotalDuration)

	bad := Completed("id-2", 2, "stdout", "stderr", hosts, 1, time.Second)
	assert.False(t, bad.Success)
	assert.Equal(t, MessageFailed, bad.Message)
	assert.Equal(t, "stdout", bad.Stdout)
	assert.Equal(t, "stderr", bad.Stderr)
	assert.Equal(t, "id-2", bad.ExecutionID)

	empty := Completed("id-3", 0, "", "", nil, 0, 0)
	assert.NotNil(t, empty.Results)
}

func TestTimedOut(t *testing.T) {
	resp := TimedOut("id", 3, 300*time.Second)

	assert.False(t, resp.Success)
	assert.Equal(t, "Execution timed out", resp.Message)
	assert.Empty(t, resp.Results)
	assert.Equal(t, Summary{TotalHosts: 3, Unreachable: 3, TotalDuration: 300}, resp.Summary)
}

func TestFailed(t *testing.T) {
	resp := Failed("id", 2, errors.New("exec: not found"))

	assert.False(t, resp.Success)
	assert.Equal(t, "Execution failed: exec: not found", resp.Message)
	assert.Empty(t, resp.Results)
	assert.Equal(t, Summary{TotalHosts: 2, Failed: 2}, resp.Summary)
}
