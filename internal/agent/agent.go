// Package agent provides the request orchestrator: it selects a plan,
// executes it, and records the outcome.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vidcraft-ai/vidcraft/internal/engine"
	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/selector"
	"github.com/vidcraft-ai/vidcraft/internal/stats"
	"github.com/vidcraft-ai/vidcraft/internal/tools"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

// Journal records finished executions.
type Journal interface {
	Record(ctx context.Context, exec *planlib.Execution) error
	List(ctx context.Context, limit int) ([]*planlib.Execution, error)
}

// Agent is the main orchestrator. It is safe for concurrent use.
type Agent struct {
	tools    *tools.Registry
	selector *selector.Selector
	engine   *engine.Engine
	journal  Journal
	stats    *stats.Collector
	logger   *slog.Logger
}

// Config configures the Agent.
type Config struct {
	Tools    *tools.Registry
	Selector *selector.Selector
	Engine   *engine.Engine
	Journal  Journal // optional
	Stats    *stats.Collector
	Logger   *slog.Logger
}

// New creates a new Agent.
func New(cfg *Config) *Agent {
	a := &Agent{
		tools:    cfg.Tools,
		selector: cfg.Selector,
		engine:   cfg.Engine,
		journal:  cfg.Journal,
		stats:    cfg.Stats,
		logger:   cfg.Logger,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.stats == nil {
		a.stats = stats.NewCollector()
	}
	return a
}

// Process handles a free-text request. The result is always non-nil; on
// failure it carries the error description and the error is returned too.
func (a *Agent) Process(ctx context.Context, prompt string) (*protocol.AggregateResult, error) {
	start := time.Now()
	requestID := uuid.New().String()
	logger := a.logger.With("request_id", requestID)

	plan, err := a.selector.Select(ctx, prompt)
	if err != nil {
		res := engine.Aggregate(engine.Run{Err: err})
		return a.finish(ctx, logger, requestID, prompt, nil, res, err, start)
	}
	logger.Info("processing request", "strategy", plan.Strategy, "tools", plan.Capabilities())

	res, err := a.engine.Execute(ctx, plan)
	return a.finish(ctx, logger, requestID, prompt, plan, res, err, start)
}

// Invoke runs a single capability as a one-step plan. Signal capabilities
// are recorded, not executed.
func (a *Agent) Invoke(ctx context.Context, name schemas.Name, params map[string]any) (*protocol.AggregateResult, error) {
	start := time.Now()
	requestID := uuid.New().String()
	logger := a.logger.With("request_id", requestID)

	plan := planlib.NewBuilder(planlib.StrategyDirect).
		Add(name, "Direct call to "+string(name), planlib.ParseParams(params)).
		Build()
	res, err := a.engine.Execute(ctx, plan)
	return a.finish(ctx, logger, requestID, "direct:"+string(name), plan, res, err, start)
}

func (a *Agent) finish(ctx context.Context, logger *slog.Logger, requestID, prompt string, plan *planlib.Plan,
	res *protocol.AggregateResult, err error, start time.Time) (*protocol.AggregateResult, error) {
	res.RequestID = requestID
	duration := time.Since(start)
	a.stats.RecordRequest(duration, err != nil)

	if err != nil {
		logger.Error("request failed", "code", apperrors.CodeOf(err), "error", err, "duration_ms", duration.Milliseconds())
	} else {
		logger.Info("request completed", "tools", res.ToolsUsed, "duration_ms", duration.Milliseconds())
	}

	if a.journal != nil {
		exec := &planlib.Execution{
			ID:             requestID,
			Prompt:         prompt,
			Plan:           plan,
			Result:         res,
			Status:         planlib.StatusSucceeded,
			ErrorCode:      res.ErrorCode,
			StartedAt:      start.Unix(),
			CompletedAt:    time.Now().Unix(),
			DurationMs:     duration.Milliseconds(),
			StepCount:      plan.Len(),
			StepsCompleted: len(res.ToolsUsed),
		}
		if plan != nil {
			exec.Strategy = plan.Strategy
		}
		if err != nil {
			exec.Status = planlib.StatusFailed
		}
		// A journal failure never fails the request.
		if jerr := a.journal.Record(context.WithoutCancel(ctx), exec); jerr != nil {
			logger.Warn("journal write failed", "code", apperrors.CodeJournalFailed, "error", jerr)
		}
	}
	return res, err
}

// History returns the most recent journaled executions.
func (a *Agent) History(ctx context.Context, limit int) ([]*planlib.Execution, error) {
	if a.journal == nil {
		return nil, apperrors.New(apperrors.CodeJournalFailed, "execution journal is disabled", apperrors.CategoryUser)
	}
	execs, err := a.journal.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeJournalFailed, "read execution journal", apperrors.CategorySystem)
	}
	return execs, nil
}

// Capabilities lists the registered capabilities.
func (a *Agent) Capabilities() *protocol.CapabilityListing {
	listing := &protocol.CapabilityListing{
		Capabilities: make(map[string]protocol.CapabilityInfo),
		PrimaryTool:  "process_request",
		Description:  "VidCraftAI can intelligently create and render mathematical animations using Manim, and provide UI control for video management",
		Workflow:     "1. Analyze prompt → 2. Select tools → 3. Execute in sequence → 4. Return results with UI actions",
		UIFeatures:   []string{"Video Library Management", "Video Editor", "Intelligent Tool Selection"},
	}
	for _, s := range a.tools.List() {
		listing.Order = append(listing.Order, string(s.Name))
		listing.Capabilities[string(s.Name)] = protocol.CapabilityInfo{
			Description: s.Description,
			Kind:        s.Kind.String(),
			Keywords:    append([]string{}, s.Keywords...),
			InputSchema: s.InputSchema(),
		}
	}
	return listing
}

// Stats returns the statistics collector.
func (a *Agent) Stats() *stats.Collector {
	return a.stats
}
