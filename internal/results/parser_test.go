package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParser_Example(t *testing.T) {
	out := "ok: [host1]\nchanged: [host1]\nfailed: [host2]\n"
	got := TextParser{}.Parse(out, []string{"host1", "host2"})

	require.Len(t, got, 2)
	assert.Equal(t, "host1", got[0].Host)
	assert.Equal(t, StatusSuccess, got[0].Status)
	assert.True(t, got[0].Changed)
	assert.Equal(t, "host2", got[1].Host)
	assert.Equal(t, StatusFailed, got[1].Status)
	assert.False(t, got[1].Changed)

	s := Summarize(got, 2, 0)
	assert.Equal(t, Summary{TotalHosts: 2, Successful: 1, Failed: 1}, s)
}

func TestTextParser_Classification(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Status
	}{
		{"ok", "ok: [web01]", StatusSuccess},
		{"fatal", "fatal: [web01]: FAILED! => {}", StatusFailed},
		{"failed", "failed: [web01] (item=x)", StatusFailed},
		{"unreachable", "unreachable: [web01]", StatusUnreachable},
		{"no marker", "PLAY RECAP ****", StatusUnknown},
		{"other host only", "ok: [web02]", StatusUnknown},
		{"ok wins over fatal", "ok: [web01]\nfatal: [web01]: FAILED!", StatusSuccess},
		{"changed alone is unknown", "changed: [web01]", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextParser{}.Parse(tt.output, []string{"web01"})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Status)
			assert.Zero(t, got[0].Duration)
		})
	}
}

func TestTextParser_OrderFollowsTargets(t *testing.T) {
	out := "unreachable: [c]\nfailed: [b]\nok: [a]\n"
	got := TextParser{}.Parse(out, []string{"a", "b", "c"})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Host, got[1].Host, got[2].Host})
	assert.Equal(t, []Status{StatusSuccess, StatusFailed, StatusUnreachable},
		[]Status{got[0].Status, got[1].Status, got[2].Status})
}

func TestTextParser_IsPure(t *testing.T) {
	out := "TASK [run]\nok: [a]\n  stdout line\nchanged: [b]\n"
	targets := []string{"a", "b"}

	first := TextParser{}.Parse(out, targets)
	second := TextParser{}.Parse(out, targets)
	assert.Equal(t, first, second)
}

func TestTextParser_OutputWindow(t *testing.T) {
	out := `TASK [Run script] ***
ok: [host1]
  Name: host1
  OS: Windows Server 2022
ok: [host2]
  Name: host2
changed: [host1]
  trailing for host1

PLAY RECAP
`
	got := TextParser{}.Parse(out, []string{"host1", "host2"})

	assert.Equal(t, "ok: [host1]\n  Name: host1\n  OS: Windows Server 2022\nchanged: [host1]\n  trailing for host1\n\nPLAY RECAP", got[0].Output)
	assert.Equal(t, "ok: [host2]\n  Name: host2", got[1].Output)
}

func TestTextParser_NoMentionMeansEmptyOutput(t *testing.T) {
	got := TextParser{}.Parse("nothing relevant\n", []string{"host1"})
	assert.Equal(t, "", got[0].Output)
	assert.Equal(t, StatusUnknown, got[0].Status)
}

func TestNewParser(t *testing.T) {
	assert.IsType(t, TextParser{}, NewParser("text"))
	assert.IsType(t, TextParser{}, NewParser(""))
	assert.IsType(t, EventParser{}, NewParser("jsonl"))
}
