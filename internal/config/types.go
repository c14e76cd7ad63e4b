// Package config provides configuration types for VidCraft.
package config

import "time"

// Config represents the main VidCraft configuration.
type Config struct {
	Server    ServerConfig  `toml:"server"`
	Reasoning ModelConfig   `toml:"reasoning"`
	Codegen   ModelConfig   `toml:"codegen"`
	Render    RenderConfig  `toml:"render"`
	Journal   JournalConfig `toml:"journal"`
	Log       LogConfig     `toml:"log"`
}

// ServerConfig configures the MCP and metrics listener.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MCPPath     string `toml:"mcp_path"`
	MetricsPath string `toml:"metrics_path"`
}

// ModelConfig configures an OpenAI-compatible chat endpoint.
type ModelConfig struct {
	BaseURL     string        `toml:"base_url"`
	Model       string        `toml:"model"`
	Temperature float64       `toml:"temperature"`
	MaxTokens   int           `toml:"max_tokens"`
	Timeout     time.Duration `toml:"timeout"`
	APIKey      string        `toml:"api_key"`
	APIKeyEnv   string        `toml:"api_key_env"`           // read when api_key is empty
	PromptMode  string        `toml:"prompt_mode,omitempty"` // full, minimal
}

// RenderConfig configures the manim render capability.
type RenderConfig struct {
	ManimBin   string        `toml:"manim_bin"`
	SceneClass string        `toml:"scene_class"`
	Quality    string        `toml:"quality"` // l, m, h, p, k
	WorkDir    string        `toml:"work_dir"`
	VideosDir  string        `toml:"videos_dir"`
	URLPrefix  string        `toml:"url_prefix"`
	Timeout    time.Duration `toml:"timeout"`
}

// JournalConfig configures the execution journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}
