package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vidcraft-ai/vidcraft/internal/agent"
	"github.com/vidcraft-ai/vidcraft/internal/config"
	"github.com/vidcraft-ai/vidcraft/internal/cost"
	"github.com/vidcraft-ai/vidcraft/internal/engine"
	"github.com/vidcraft-ai/vidcraft/internal/model"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/prompt"
	"github.com/vidcraft-ai/vidcraft/internal/selector"
	"github.com/vidcraft-ai/vidcraft/internal/stats"
	"github.com/vidcraft-ai/vidcraft/internal/tools"
	"github.com/vidcraft-ai/vidcraft/internal/tools/executor"
)

// app is the wired object graph for one process.
type app struct {
	agent   *agent.Agent
	journal *planlib.Journal
	stats   *stats.Collector
	usage   *cost.Tracker
}

func (a *app) Close() error {
	if a.journal != nil {
		return a.journal.Close()
	}
	return nil
}

// newModel returns a metered client, or nil when no API key is configured.
func newModel(cfg config.ModelConfig, purpose string, usage *cost.Tracker) model.Model {
	if cfg.APIKey == "" {
		return nil
	}
	client := model.NewOpenAIClient(&model.OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	})
	return cost.Meter(client, purpose, usage)
}

func buildApp(ctx context.Context, g *globals) (*app, error) {
	cfg := g.cfg
	collector := stats.NewCollector()
	usage := cost.NewTracker(collector)

	for _, dir := range []string{cfg.Render.WorkDir, cfg.Render.VideosDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	deps := tools.Dependencies{
		SceneClass:     cfg.Render.SceneClass,
		CodegenTimeout: cfg.Codegen.Timeout,
		Render: executor.RenderConfig{
			ManimBin:   cfg.Render.ManimBin,
			SceneClass: cfg.Render.SceneClass,
			Quality:    cfg.Render.Quality,
			WorkDir:    cfg.Render.WorkDir,
			VideosDir:  cfg.Render.VideosDir,
			URLPrefix:  cfg.Render.URLPrefix,
		},
		RenderTimeout: cfg.Render.Timeout,
	}
	if codegen := newModel(cfg.Codegen, cost.PurposeCodegen, usage); codegen != nil {
		deps.CodeModel = codegen
	} else {
		g.logger.Warn("code generation model not configured", "api_key_env", cfg.Codegen.APIKeyEnv)
	}

	registry := tools.NewRegistry()
	if err := registry.Initialize(deps); err != nil {
		return nil, err
	}

	selCfg := selector.Config{
		Catalog:     registry,
		Temperature: cfg.Reasoning.Temperature,
		MaxTokens:   cfg.Reasoning.MaxTokens,
		Timeout:     cfg.Reasoning.Timeout,
		PromptMode:  prompt.Mode(cfg.Reasoning.PromptMode),
		Logger:      g.logger,
		Observer:    collector,
	}
	if reasoning := newModel(cfg.Reasoning, cost.PurposeReasoning, usage); reasoning != nil {
		selCfg.Model = reasoning
	}

	a := &app{stats: collector, usage: usage}
	agentCfg := &agent.Config{
		Tools:    registry,
		Selector: selector.New(selCfg),
		Engine:   engine.New(registry, engine.WithLogger(g.logger), engine.WithObserver(collector)),
		Stats:    collector,
		Logger:   g.logger,
	}
	if cfg.Journal.Enabled {
		journal, err := planlib.Open(ctx, cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		a.journal = journal
		agentCfg.Journal = journal
	}
	a.agent = agent.New(agentCfg)
	return a, nil
}
