package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidcraft-ai/vidcraft/internal/config"
)

// globals holds the state shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "vidcraft",
		Short: "Prompt-driven Manim animation engine",
		Long: `vidcraft turns a natural-language request into a plan of capability
invocations (generate Manim code, render it, or signal the UI), executes the
plan step by step and returns a structured result.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd.ErrOrStderr())
		},
	}
	root.SetVersionTemplate(`{{printf "vidcraft version %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "path to the TOML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(g),
		newRunCmd(g),
		newCapabilitiesCmd(g),
		newHistoryCmd(g),
	)
	return root
}

func (g *globals) load(logOut io.Writer) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	g.logger = newLogger(cfg.Log, logOut)
	slog.SetDefault(g.logger)
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, _ := config.ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
