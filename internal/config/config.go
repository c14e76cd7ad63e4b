// Package config handles VidCraft configuration loading and management.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
)

// DefaultPath returns ~/.vidcraft/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".vidcraft", "config.toml")
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".vidcraft")

	return &Config{
		Server: ServerConfig{
			Addr:        "0.0.0.0:8000",
			MCPPath:     "/mcp",
			MetricsPath: "/metrics",
		},
		Reasoning: ModelConfig{
			BaseURL:     "https://models.github.ai/inference",
			Model:       "openai/gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   800,
			Timeout:     30 * time.Second,
			APIKeyEnv:   "GITHUB_TOKEN",
			PromptMode:  "full",
		},
		Codegen: ModelConfig{
			BaseURL:     "https://models.github.ai/inference",
			Model:       "openai/gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   1200,
			Timeout:     30 * time.Second,
			APIKeyEnv:   "GITHUB_TOKEN",
		},
		Render: RenderConfig{
			ManimBin:   "manim",
			SceneClass: "MyScene",
			Quality:    "l",
			WorkDir:    filepath.Join(dataDir, "work"),
			VideosDir:  filepath.Join(dataDir, "videos"),
			URLPrefix:  "/videos/",
			Timeout:    5 * time.Minute,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "journal.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid,
				"parse "+configPath, apperrors.CategoryUser)
		}
	}

	cfg = expandPaths(cfg)
	cfg.resolveKeys()
	return cfg, nil
}

// Save saves the configuration to the given path. API keys read from the
// environment are not written.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	out := *c
	if out.Reasoning.APIKeyEnv != "" && out.Reasoning.APIKey == os.Getenv(out.Reasoning.APIKeyEnv) {
		out.Reasoning.APIKey = ""
	}
	if out.Codegen.APIKeyEnv != "" && out.Codegen.APIKey == os.Getenv(out.Codegen.APIKeyEnv) {
		out.Codegen.APIKey = ""
	}
	return toml.NewEncoder(file).Encode(out)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	if !strings.HasPrefix(c.Server.MCPPath, "/") {
		problems = append(problems, "server.mcp_path must start with /")
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		problems = append(problems, "server.metrics_path must start with /")
	}
	if c.Server.MCPPath == c.Server.MetricsPath {
		problems = append(problems, "server.mcp_path and server.metrics_path collide")
	}
	models := []struct {
		name string
		cfg  ModelConfig
	}{
		{"reasoning", c.Reasoning},
		{"codegen", c.Codegen},
	}
	for _, section := range models {
		name, m := section.name, section.cfg
		if m.Model == "" {
			problems = append(problems, name+".model is empty")
		}
		if m.Temperature < 0 || m.Temperature > 2 {
			problems = append(problems, name+".temperature must be within [0, 2]")
		}
		if m.Timeout < 0 {
			problems = append(problems, name+".timeout is negative")
		}
	}
	if c.Reasoning.PromptMode != "" && c.Reasoning.PromptMode != "full" && c.Reasoning.PromptMode != "minimal" {
		problems = append(problems, "reasoning.prompt_mode must be full or minimal")
	}
	switch c.Render.Quality {
	case "l", "m", "h", "p", "k":
	default:
		problems = append(problems, "render.quality must be one of l, m, h, p, k")
	}
	if c.Render.VideosDir == "" {
		problems = append(problems, "render.videos_dir is empty")
	}
	if c.Render.SceneClass == "" {
		problems = append(problems, "render.scene_class is empty")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		problems = append(problems, "journal.path is empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, "log.format must be text or json")
	}

	if len(problems) > 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, apperrors.CategoryUser,
			"invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", level)
}

// resolveKeys fills empty API keys from their environment variables.
func (c *Config) resolveKeys() {
	for _, m := range []*ModelConfig{&c.Reasoning, &c.Codegen} {
		if m.APIKey == "" && m.APIKeyEnv != "" {
			m.APIKey = os.Getenv(m.APIKeyEnv)
		}
	}
}

// expandPaths expands ~ and environment variables in paths.
func expandPaths(cfg *Config) *Config {
	cfg.Render.WorkDir = expand(cfg.Render.WorkDir)
	cfg.Render.VideosDir = expand(cfg.Render.VideosDir)
	cfg.Journal.Path = expand(cfg.Journal.Path)
	return cfg
}

func expand(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		p = filepath.Join(homeDir, p[1:])
	}
	return p
}
