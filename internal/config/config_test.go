package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, DefaultRunnerBinary, cfg.Runner.Binary)
	assert.Equal(t, DefaultPlaybookPath, cfg.Runner.PlaybookPath)
	assert.Equal(t, DefaultGitRepo, cfg.Runner.DefaultGitRepo)
	assert.Equal(t, DefaultScriptPath, cfg.Runner.DefaultScriptPath)
	assert.Equal(t, 300*time.Second, cfg.Runner.DefaultTimeout())
	assert.Equal(t, 60*time.Second, cfg.Runner.DeadlineBuffer())
	assert.Equal(t, OutputFormatText, cfg.Runner.OutputFormat)
	assert.Equal(t, InventoryConfig{Group: "windows", Connection: "winrm", Transport: "basic", Port: 5985}, cfg.Runner.Inventory)
	assert.Contains(t, cfg.Health.Dependencies, "ansible")
	assert.Contains(t, cfg.Health.Dependencies, "git")
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8081
runner:
  playbook_path: /srv/playbooks/run.yml
  default_script_path: scripts/Other.ps1
  output_format: jsonl
  inventory:
    port: 5986
    transport: ntlm
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PSB_SERVER_PORT", "9090")
	t.Setenv("PSB_RUNNER_BINARY", "/usr/local/bin/ansible-playbook")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "env should win over file")
	assert.Equal(t, "/usr/local/bin/ansible-playbook", cfg.Runner.Binary)
	assert.Equal(t, "/srv/playbooks/run.yml", cfg.Runner.PlaybookPath)
	assert.Equal(t, "scripts/Other.ps1", cfg.Runner.DefaultScriptPath)
	assert.Equal(t, DefaultGitRepo, cfg.Runner.DefaultGitRepo, "unset values keep their default")
	assert.Equal(t, OutputFormatJSONL, cfg.Runner.OutputFormat)
	assert.Equal(t, 5986, cfg.Runner.Inventory.Port)
	assert.Equal(t, "ntlm", cfg.Runner.Inventory.Transport)
	assert.Equal(t, "windows", cfg.Runner.Inventory.Group)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad output format", "runner:\n  output_format: xml\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"file output without path", "logging:\n  output: file\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDumpExampleConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpExampleConfig(&buf))

	var cfg Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &cfg))
	assert.Equal(t, DefaultPlaybookPath, cfg.Runner.PlaybookPath)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestInitLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	logger, err := InitLogger(LoggingConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Debug("hello", "k", "v")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
