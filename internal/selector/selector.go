// Package selector turns a free-text request into an execution plan.
//
// Selection flow:
// 1. Reasoning model (when configured and available)
// 2. Deterministic keyword fallback (degraded mode, never an error)
package selector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/model"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/prompt"
)

// Catalog describes the registered capabilities to the model.
type Catalog interface {
	Catalog() string
}

// Observer is notified of every selection.
type Observer interface {
	ObserveSelection(strategy planlib.Strategy, degraded bool)
}

// Config for the selector.
type Config struct {
	Catalog     Catalog
	Model       model.Model
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	PromptMode  prompt.Mode
	Logger      *slog.Logger
	Observer    Observer
}

// Selector produces plans. It is safe for concurrent use.
type Selector struct {
	patterns    []*Pattern
	model       model.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	system      string
	logger      *slog.Logger
	observer    Observer
}

// New creates a selector.
func New(cfg Config) *Selector {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.PromptMode == "" {
		cfg.PromptMode = prompt.ModeFull
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Selector{
		patterns:    defaultPatterns(),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		observer:    cfg.Observer,
	}
	if cfg.Catalog != nil {
		s.system = prompt.NewBuilder(cfg.PromptMode, planlib.GeneratedCodeToken).
			BuildSelectionPrompt(prompt.SelectionContext{Catalog: cfg.Catalog.Catalog()})
	}
	return s
}

// Select returns the plan for request.
func (s *Selector) Select(ctx context.Context, request string) (*planlib.Plan, error) {
	if strings.TrimSpace(request) == "" {
		return nil, apperrors.NewBuilder(apperrors.CodeEmptyPlan, "request is empty").User().Build()
	}

	if !s.modelAvailable() {
		s.degraded("reasoning model not configured", nil)
		return s.Fallback(request), nil
	}

	plan, err := s.selectWithModel(ctx, request)
	if err != nil {
		s.degraded("model selection failed", err)
		return s.Fallback(request), nil
	}

	s.logger.Info("plan selected", "strategy", plan.Strategy, "tools", plan.Capabilities())
	s.observe(plan.Strategy, false)
	return plan, nil
}

// Fallback returns the deterministic keyword plan. Identical requests
// yield identical plans.
func (s *Selector) Fallback(request string) *planlib.Plan {
	for _, p := range s.patterns {
		if p.Matches(request) {
			return p.Build(request)
		}
	}
	return planlib.NewBuilder(planlib.StrategyFallback).
		GenerateAndRender(request, "User wants to create new animation", "Generated code needs to be rendered").
		Build()
}

// Prompt returns the system prompt sent to the reasoning model.
func (s *Selector) Prompt() string {
	return s.system
}

func (s *Selector) modelAvailable() bool {
	return s.model != nil && s.model.IsAvailable() && s.system != ""
}

func (s *Selector) selectWithModel(ctx context.Context, request string) (*planlib.Plan, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.model.Generate(ctx, &model.Request{
		System:      s.system,
		Prompt:      prompt.UserMessage(request),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelUnavailable, "reasoning model call failed", apperrors.CategoryTemporary)
	}
	return ParsePlan(resp.Text)
}

func (s *Selector) degraded(reason string, err error) {
	attrs := []any{"code", apperrors.CodePlanSelectionDegraded, "reason", reason}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.Warn("plan selection degraded", attrs...)
	s.observe(planlib.StrategyFallback, true)
}

func (s *Selector) observe(strategy planlib.Strategy, degraded bool) {
	if s.observer != nil {
		s.observer.ObserveSelection(strategy, degraded)
	}
}
