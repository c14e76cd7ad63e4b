// Package engine executes plans: it walks the entries in order, records
// signal capabilities as UI actions, resolves references between steps and
// stops at the first failure.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

// Invoker describes and runs capabilities.
type Invoker interface {
	Describe(name string) (*schemas.Schema, error)
	Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error)
}

// Observer is notified after every computational step.
type Observer interface {
	ObserveStep(capability string, duration time.Duration, err error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver sets the step observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine is safe for concurrent use; each Execute call owns its state.
type Engine struct {
	invoker  Invoker
	logger   *slog.Logger
	observer Observer
}

// New creates an engine over invoker.
func New(invoker Invoker, opts ...Option) *Engine {
	e := &Engine{invoker: invoker, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan. On failure the returned result carries the error
// description and what accumulated before the failing step, and the error
// is returned as well.
func (e *Engine) Execute(ctx context.Context, plan *planlib.Plan) (*protocol.AggregateResult, error) {
	run := Run{Plan: plan, Outputs: map[string]any{}}
	if plan.Len() == 0 {
		run.Err = apperrors.New(apperrors.CodeEmptyPlan,
			"Could not determine appropriate tools for this request", apperrors.CategoryPermanent)
		return Aggregate(run), run.Err
	}

	execCtx := NewContext()
	for i, entry := range plan.Entries {
		run.Reached = i + 1
		step := i + 1
		run.Log = append(run.Log, fmt.Sprintf("Step %d: %s", step, entry.Rationale))
		e.logger.Info("executing step", "step", step, "capability", entry.Capability, "reasoning", entry.Rationale)

		if err := e.runEntry(ctx, execCtx, &run, entry); err != nil {
			e.logger.Error("step failed", "step", step, "capability", entry.Capability,
				"code", apperrors.CodeOf(err), "category", apperrors.GetCategory(err).String(), "error", err)
			run.Err = err
			return Aggregate(run), err
		}
	}
	return Aggregate(run), nil
}

func (e *Engine) runEntry(ctx context.Context, execCtx *Context, run *Run, entry planlib.Entry) error {
	schema, err := e.invoker.Describe(entry.Capability)
	if err != nil {
		return err
	}

	if schema.IsSignal() {
		run.UIActions = append(run.UIActions, protocol.UIAction{
			Type:       entry.Capability,
			Parameters: entry.Params.Wire(),
			Reasoning:  entry.Rationale,
		})
		e.logger.Info("registered ui action", "capability", entry.Capability)
		return nil
	}

	params, err := execCtx.Resolve(entry.Capability, entry.Params)
	if err != nil {
		return err
	}
	if err := requireParams(schema, params); err != nil {
		return err
	}

	start := time.Now()
	outputs, err := e.invoker.Invoke(ctx, entry.Capability, params)
	if e.observer != nil {
		e.observer.ObserveStep(entry.Capability, time.Since(start), err)
	}
	if err != nil {
		return err
	}

	execCtx.Merge(outputs)
	for k, v := range outputs {
		run.Outputs[k] = v
	}
	return nil
}

// requireParams checks that every required parameter is present and
// non-empty after resolution.
func requireParams(schema *schemas.Schema, params map[string]any) error {
	for _, p := range schema.Params {
		if !p.Required {
			continue
		}
		v, ok := params[p.Name]
		if s, isString := v.(string); ok && v != nil && (!isString || s != "") {
			continue
		}
		msg := fmt.Sprintf("%s requires a %s parameter but none was provided", schema.Name, p.Name)
		if schema.Name == schemas.RenderVideo {
			msg = "Render tool requires code parameter but none was provided"
		}
		return apperrors.NewBuilder(apperrors.CodeMissingParameter, msg).
			User().
			WithContext("capability", string(schema.Name)).
			WithContext("parameter", p.Name).
			Build()
	}
	return nil
}
