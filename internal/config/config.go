package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerTimeoutEnv overrides browser.launch_timeout with an integer number of
// seconds when set.
const ServerTimeoutEnv = "PLAYCHAT_SERVER_TIMEOUT"

// Engine names accepted by browser.engine.
const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
)

// Config captures all tunable settings for playchat.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	LLM     LLMConfig     `yaml:"llm"`
	MCP     MCPConfig     `yaml:"mcp"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// BrowserConfig configures the external browser server and the driver engine
// that connects to it.
type BrowserConfig struct {
	// Driver engine: "playwright" (default) or "rod".
	Engine string `yaml:"engine"`
	// Shell command that starts the browser server. Its combined output is
	// redirected into ServerLog, which is scanned for a ws:// endpoint.
	ServerCommand string `yaml:"server_command"`
	// Path of the server's log file.
	ServerLog string `yaml:"server_log"`
	// How long to wait for the endpoint to appear (e.g. "15s").
	// PLAYCHAT_SERVER_TIMEOUT (integer seconds) takes precedence.
	LaunchTimeout string `yaml:"launch_timeout"`
	// Per-navigation timeout (e.g. "30s").
	NavigationTimeout string `yaml:"navigation_timeout"`
	// Best-effort wait for DOM readiness before text extraction (e.g. "5s").
	LoadStateTimeout string `yaml:"load_state_timeout"`
	// Grace period between SIGTERM and SIGKILL during server teardown.
	ShutdownGrace string `yaml:"shutdown_grace"`
	// Default cap for extracted page text.
	MaxPageChars int `yaml:"max_page_chars"`
	// How many trailing server-log lines to attach to launch failures.
	LogTailLines int `yaml:"log_tail_lines"`
}

// LLMConfig configures the natural-language command classifier. An empty API
// key disables the natural-language path; slash commands always work.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "playchat",
			Version: "0.1.0",
			LogFile: "playchat.log",
		},
		Browser: BrowserConfig{
			Engine:            EnginePlaywright,
			ServerCommand:     "npx playwright run-server --port 0",
			ServerLog:         "mcp_server.log",
			LaunchTimeout:     "15s",
			NavigationTimeout: "30s",
			LoadStateTimeout:  "5s",
			ShutdownGrace:     "5s",
			MaxPageChars:      4000,
			LogTailLines:      20,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: "60s",
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
	}
}

// Load reads YAML config from disk and overlays defaults. An empty path
// returns the defaults unchanged so the CLI works without a config file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so startup fails deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	switch c.Browser.Engine {
	case EnginePlaywright, EngineRod:
	default:
		return fmt.Errorf("browser.engine must be %q or %q, got %q", EnginePlaywright, EngineRod, c.Browser.Engine)
	}
	if c.Browser.ServerCommand == "" {
		return errors.New("browser.server_command is required")
	}
	if c.Browser.ServerLog == "" {
		return errors.New("browser.server_log is required")
	}
	return nil
}

// GetLaunchTimeout returns the endpoint-discovery timeout. The
// PLAYCHAT_SERVER_TIMEOUT environment variable (integer seconds) wins over the
// config value.
func (b BrowserConfig) GetLaunchTimeout() time.Duration {
	if raw := os.Getenv(ServerTimeoutEnv); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return parseDurationOr(b.LaunchTimeout, 15*time.Second)
}

// GetNavigationTimeout returns the parsed navigation timeout with a sane default.
func (b BrowserConfig) GetNavigationTimeout() time.Duration {
	return parseDurationOr(b.NavigationTimeout, 30*time.Second)
}

// GetLoadStateTimeout returns the parsed DOM-readiness timeout with a sane default.
func (b BrowserConfig) GetLoadStateTimeout() time.Duration {
	return parseDurationOr(b.LoadStateTimeout, 5*time.Second)
}

// GetShutdownGrace returns the SIGTERM-to-SIGKILL grace period with a sane default.
func (b BrowserConfig) GetShutdownGrace() time.Duration {
	return parseDurationOr(b.ShutdownGrace, 5*time.Second)
}

// GetMaxPageChars returns the page-text cap with a sane default.
func (b BrowserConfig) GetMaxPageChars() int {
	if b.MaxPageChars <= 0 {
		return 4000
	}
	return b.MaxPageChars
}

// GetLogTailLines returns the diagnostic log-tail size with a sane default.
func (b BrowserConfig) GetLogTailLines() int {
	if b.LogTailLines <= 0 {
		return 20
	}
	return b.LogTailLines
}

// GetAPIKey returns the configured key, falling back to OPENAI_API_KEY.
func (l LLMConfig) GetAPIKey() string {
	if l.APIKey != "" {
		return l.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// GetTimeout returns the parsed LLM request timeout with a sane default.
func (l LLMConfig) GetTimeout() time.Duration {
	return parseDurationOr(l.Timeout, 60*time.Second)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
