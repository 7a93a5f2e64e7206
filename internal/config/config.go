// Package config loads the bridge configuration and builds the process logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPlaybookPath   = "/opt/iag5-powershell-service/ansible/playbooks/execute-powershell-script.yml"
	DefaultGitRepo        = "https://github.com/keepithuman/ansible-powershell-automation.git"
	DefaultScriptPath     = "scripts/Manage-WindowsSystem.ps1"
	DefaultRunnerBinary   = "ansible-playbook"
	DefaultEventCallback  = "ansible.posix.jsonl"
	DefaultTimeoutSeconds = 300
	DefaultBufferSeconds  = 60

	OutputFormatText  = "text"
	OutputFormatJSONL = "jsonl"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	CORS    CORSConfig    `yaml:"cors"`
	Runner  RunnerConfig  `yaml:"runner"`
	Health  HealthConfig  `yaml:"health"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms" validate:"gte=0"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms" validate:"gte=0"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAgeSeconds  int      `yaml:"max_age_seconds"`
}

// RunnerConfig describes how the automation runner is invoked. Values left
// empty in the file are filled by ApplyDefaults.
type RunnerConfig struct {
	Binary                string          `yaml:"binary" validate:"required"`
	PlaybookPath          string          `yaml:"playbook_path" validate:"required"`
	InventoryDir          string          `yaml:"inventory_dir"`
	DefaultGitRepo        string          `yaml:"default_git_repo" validate:"required"`
	DefaultScriptPath     string          `yaml:"default_script_path" validate:"required"`
	DefaultTimeoutSeconds int             `yaml:"default_timeout_seconds" validate:"gt=0"`
	DeadlineBufferSeconds int             `yaml:"deadline_buffer_seconds" validate:"gte=0"`
	OutputFormat          string          `yaml:"output_format" validate:"oneof=text jsonl"`
	EventCallback         string          `yaml:"event_callback"`
	Inventory             InventoryConfig `yaml:"inventory"`
}

// InventoryConfig is the connection template applied to every target.
type InventoryConfig struct {
	Group      string `yaml:"group" validate:"required"`
	Connection string `yaml:"connection" validate:"required"`
	Transport  string `yaml:"transport" validate:"required"`
	Port       int    `yaml:"port" validate:"gte=1,lte=65535"`
}

type HealthConfig struct {
	CheckTimeoutMS int               `yaml:"check_timeout_ms" validate:"gte=0"`
	Dependencies   map[string]string `yaml:"dependencies"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads configuration from file and applies environment variable overrides.
// An empty path yields the defaults plus overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for anything left unset
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ReadTimeoutMS == 0 {
		c.Server.ReadTimeoutMS = 30000
	}
	c.Runner.ApplyDefaults()
	c.Health.ApplyDefaults()
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// ApplyDefaults fills unset runner values
func (r *RunnerConfig) ApplyDefaults() {
	if r.Binary == "" {
		r.Binary = DefaultRunnerBinary
	}
	if r.PlaybookPath == "" {
		r.PlaybookPath = DefaultPlaybookPath
	}
	if r.DefaultGitRepo == "" {
		r.DefaultGitRepo = DefaultGitRepo
	}
	if r.DefaultScriptPath == "" {
		r.DefaultScriptPath = DefaultScriptPath
	}
	if r.DefaultTimeoutSeconds == 0 {
		r.DefaultTimeoutSeconds = DefaultTimeoutSeconds
	}
	if r.DeadlineBufferSeconds == 0 {
		r.DeadlineBufferSeconds = DefaultBufferSeconds
	}
	if r.OutputFormat == "" {
		r.OutputFormat = OutputFormatText
	}
	if r.EventCallback == "" {
		r.EventCallback = DefaultEventCallback
	}
	r.Inventory.ApplyDefaults()
}

// ApplyDefaults fills the WinRM connection template
func (i *InventoryConfig) ApplyDefaults() {
	if i.Group == "" {
		i.Group = "windows"
	}
	if i.Connection == "" {
		i.Connection = "winrm"
	}
	if i.Transport == "" {
		i.Transport = "basic"
	}
	if i.Port == 0 {
		i.Port = 5985
	}
}

// ApplyDefaults fills the dependency probes reported by /health
func (h *HealthConfig) ApplyDefaults() {
	if h.CheckTimeoutMS == 0 {
		h.CheckTimeoutMS = 5000
	}
	if len(h.Dependencies) == 0 {
		h.Dependencies = map[string]string{
			"ansible": "ansible",
			"git":     "git",
		}
	}
}

var validate = validator.New()

// Validate ensures all required configuration values are set
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !c.Logging.IsLogLevelValid() {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when logging.output is file")
	}
	return nil
}

// applyEnvOverrides checks for environment variables with PSB_ prefix
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if v := os.Getenv("PSB_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PSB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Runner overrides
	if v := os.Getenv("PSB_RUNNER_BINARY"); v != "" {
		cfg.Runner.Binary = v
	}
	if v := os.Getenv("PSB_RUNNER_PLAYBOOK_PATH"); v != "" {
		cfg.Runner.PlaybookPath = v
	}
	if v := os.Getenv("PSB_RUNNER_INVENTORY_DIR"); v != "" {
		cfg.Runner.InventoryDir = v
	}
	if v := os.Getenv("PSB_RUNNER_DEFAULT_GIT_REPO"); v != "" {
		cfg.Runner.DefaultGitRepo = v
	}
	if v := os.Getenv("PSB_RUNNER_DEFAULT_SCRIPT_PATH"); v != "" {
		cfg.Runner.DefaultScriptPath = v
	}
	if v := os.Getenv("PSB_RUNNER_OUTPUT_FORMAT"); v != "" {
		cfg.Runner.OutputFormat = v
	}
	if v := os.Getenv("PSB_RUNNER_DEFAULT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.DefaultTimeoutSeconds = n
		}
	}

	// Logging overrides
	if v := os.Getenv("PSB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PSB_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// ReadTimeout returns the read timeout as a duration
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the write timeout as a duration. Zero disables it,
// which is what long playbook runs need.
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultTimeout returns the default script timeout as a duration
func (r *RunnerConfig) DefaultTimeout() time.Duration {
	return time.Duration(r.DefaultTimeoutSeconds) * time.Second
}

// DeadlineBuffer returns the slack added on top of the script timeout
func (r *RunnerConfig) DeadlineBuffer() time.Duration {
	return time.Duration(r.DeadlineBufferSeconds) * time.Second
}

// CheckTimeout returns the per-probe timeout for dependency checks
func (h *HealthConfig) CheckTimeout() time.Duration {
	return time.Duration(h.CheckTimeoutMS) * time.Millisecond
}

// IsLogLevelValid checks if the log level is valid
func (l *LoggingConfig) IsLogLevelValid() bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	return slices.Contains(validLevels, strings.ToLower(l.Level))
}

// InitLogger builds the process logger from configuration and installs it as
// the slog default.
func InitLogger(cfg LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// DumpExampleConfig writes an example configuration to the provided writer
func DumpExampleConfig(w io.Writer) error {
	example := Default()
	example.CORS = CORSConfig{
		Enabled:        false,
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAgeSeconds:  3600,
	}
	example.Logging.FilePath = "/var/log/psbridge/psbridge.log"

	var node yaml.Node
	if err := node.Encode(example); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := `# =============================================================================
# psbridge example configuration
# =============================================================================
# Environment variable overrides follow the pattern: PSB_<SECTION>_<KEY>
# Example: PSB_SERVER_PORT, PSB_RUNNER_PLAYBOOK_PATH
#
# runner.output_format:
#   text  - scan human-readable runner output for "ok: [host]" style markers
#   jsonl - ask the runner for one JSON event per line (event_callback)
# server.write_timeout_ms should stay 0 or exceed the longest script timeout
# plus runner.deadline_buffer_seconds.
# =============================================================================

`
	if _, err := fmt.Fprint(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}
