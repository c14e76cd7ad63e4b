package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/selector"
	"github.com/vidcraft-ai/vidcraft/internal/tools"
	"github.com/vidcraft-ai/vidcraft/internal/tools/executor"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

const sceneCode = "from manim import *\n\nclass MyScene(Scene):\n    def construct(self):\n        self.play(Create(Circle()))"

type genTool struct {
	n int
}

func (g *genTool) Name() schemas.Name  { return schemas.GenerateManimCode }
func (g *genTool) Description() string { return "gen" }
func (g *genTool) Execute(_ context.Context, input map[string]any) (*executor.Result, error) {
	g.n++
	code := sceneCode
	if g.n > 1 {
		code = sceneCode + "\n# revision"
	}
	return executor.NewSuccessResult(map[string]any{"code": code}), nil
}

type renderTool struct {
	codes []string
}

func (r *renderTool) Name() schemas.Name  { return schemas.RenderVideo }
func (r *renderTool) Description() string { return "render" }
func (r *renderTool) Execute(_ context.Context, input map[string]any) (*executor.Result, error) {
	code, _ := input["code"].(string)
	r.codes = append(r.codes, code)
	if !strings.Contains(code, "class MyScene") {
		return executor.NewErrorResult(errors.New("manim render failed:\nNo scene MyScene found")), nil
	}
	return executor.NewSuccessResult(map[string]any{"video_url": "/videos/scene_1.mp4"}), nil
}

// recordingInvoker counts invocations made through the registry.
type recordingInvoker struct {
	*tools.Registry
	invoked []string
}

func (r *recordingInvoker) Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	r.invoked = append(r.invoked, name)
	return r.Registry.Invoke(ctx, name, params)
}

type stepObserver struct {
	steps []string
	fails int
}

func (o *stepObserver) ObserveStep(capability string, _ time.Duration, err error) {
	o.steps = append(o.steps, capability)
	if err != nil {
		o.fails++
	}
}

type fixture struct {
	engine   *Engine
	invoker  *recordingInvoker
	gen      *genTool
	render   *renderTool
	selector *selector.Selector
	observer *stepObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{gen: &genTool{}, render: &renderTool{}, observer: &stepObserver{}}

	reg := tools.NewRegistry()
	sr := schemas.NewRegistry()
	schemas.RegisterVideoCapabilities(sr)
	for _, s := range sr.List() {
		var tool executor.Tool
		switch s.Name {
		case schemas.GenerateManimCode:
			tool = f.gen
		case schemas.RenderVideo:
			tool = f.render
		}
		reg.Register(s, tool)
	}
	require.NoError(t, reg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.invoker = &recordingInvoker{Registry: reg}
	f.engine = New(f.invoker, WithLogger(logger), WithObserver(f.observer))
	f.selector = selector.New(selector.Config{Catalog: reg, Logger: logger})
	return f
}

func (f *fixture) process(t *testing.T, request string) (*protocol.AggregateResult, error) {
	t.Helper()
	plan, err := f.selector.Select(context.Background(), request)
	require.NoError(t, err)
	return f.engine.Execute(context.Background(), plan)
}

func TestScenarioCreateAnimation(t *testing.T) {
	f := newFixture(t)

	res, err := f.process(t, "create a bouncing ball animation")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"generate_manim_code", "render_video"}, res.ToolsUsed)
	assert.Equal(t, sceneCode, res.Output("code"))
	assert.Equal(t, "/videos/scene_1.mp4", res.Output("video_url"))
	assert.Equal(t, []string{sceneCode}, f.render.codes, "render receives exactly the generated code")
	assert.Equal(t, []string{
		"Step 1: User wants to create new animation",
		"Step 2: Generated code needs to be rendered",
	}, res.ToolSelectionLog)
	assert.Empty(t, res.UIActions)
	assert.Equal(t, []string{"generate_manim_code", "render_video"}, f.observer.steps)
}

func TestScenarioShowVideos(t *testing.T) {
	f := newFixture(t)

	res, err := f.process(t, "show me my videos")
	require.NoError(t, err)
	assert.True(t, res.OK())
	require.Len(t, res.UIActions, 1)
	assert.Equal(t, "open_burger_menu", res.UIActions[0].Type)
	assert.Equal(t, map[string]any{"reason": "User requested to see video library/history"}, res.UIActions[0].Parameters)
	_, hasVideo := res.Outputs["video_url"]
	assert.False(t, hasVideo)
	assert.Empty(t, f.invoker.invoked, "signal capabilities are never invoked")
}

func TestScenarioRenderSuppliedCode(t *testing.T) {
	f := newFixture(t)
	request := "render this code: " + sceneCode

	res, err := f.process(t, request)
	require.NoError(t, err)
	assert.Equal(t, []string{"render_video"}, res.ToolsUsed)
	assert.Equal(t, []string{request}, f.render.codes)
	assert.Equal(t, "/videos/scene_1.mp4", res.Output("video_url"))
}

func TestScenarioRenderWithoutCode(t *testing.T) {
	f := newFixture(t)

	res, err := f.process(t, "render my video")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMissingDependency, apperrors.CodeOf(err))
	assert.False(t, res.OK())
	assert.Equal(t, "Code parameter needed but no code was provided or generated", res.Status)
	assert.Equal(t, apperrors.CodeMissingDependency, res.ErrorCode)
	assert.Empty(t, f.invoker.invoked)
	assert.Empty(t, f.render.codes)
	assert.Empty(t, res.ToolsUsed)
	assert.Len(t, res.ToolSelectionLog, 1)
}

func TestUnknownCapabilityStopsPlan(t *testing.T) {
	f := newFixture(t)
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.GenerateManimCode, "gen", planlib.Params{"prompt": planlib.Literal("ball")}).
		Build()
	plan.Entries = append(plan.Entries,
		planlib.Entry{Capability: "summon_dragon", Rationale: "nope", Params: planlib.Params{}},
		planlib.Entry{Capability: "render_video", Rationale: "render", Params: planlib.Params{"code": planlib.Ref("code")}},
	)

	res, err := f.engine.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnknownCapability, apperrors.CodeOf(err))
	assert.Contains(t, res.Status, "summon_dragon")
	assert.Equal(t, []string{"generate_manim_code"}, f.invoker.invoked)
	assert.Equal(t, []string{"generate_manim_code"}, res.ToolsUsed, "the failing entry is not listed")
	assert.Equal(t, []string{"gen"}, res.Reasoning)
	assert.Len(t, res.ToolSelectionLog, 2, "the failing step is logged before it runs")
}

func TestCapabilityFailureIsVerbatimAndStops(t *testing.T) {
	f := newFixture(t)
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.OpenBurgerMenu, "menu", planlib.Params{"reason": planlib.Literal("r")}).
		Add(schemas.RenderVideo, "render", planlib.Params{"code": planlib.Literal("print('hi')")}).
		Add(schemas.OpenVideoEditor, "edit", planlib.Params{"reason": planlib.Literal("r")}).
		Build()

	res, err := f.engine.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCapabilityFailed, apperrors.CodeOf(err))
	assert.Equal(t, "manim render failed:\nNo scene MyScene found", res.Status)
	assert.Equal(t, []string{"open_burger_menu"}, res.ToolsUsed)
	require.Len(t, res.UIActions, 1, "no signals beyond the failing step")
	assert.Equal(t, "open_burger_menu", res.UIActions[0].Type)
	assert.Equal(t, 1, f.observer.fails)
}

func TestStepFailureLogsCodeAndCategory(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.engine = New(f.invoker, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.RenderVideo, "render", planlib.Params{"code": planlib.Unavailable(planlib.CodeKey)}).
		Build()

	_, err := f.engine.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "code=MISSING_DEPENDENCY")
	assert.Contains(t, buf.String(), "category="+apperrors.GetCategory(err).String())
}

func TestMissingReferenceFails(t *testing.T) {
	f := newFixture(t)
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.RenderVideo, "render", planlib.Params{"code": planlib.Ref("code")}).
		Build()

	_, err := f.engine.Execute(context.Background(), plan)
	assert.Equal(t, apperrors.CodeMissingDependency, apperrors.CodeOf(err))
	assert.Empty(t, f.invoker.invoked)
}

func TestEmptyCodeIsMissingParameter(t *testing.T) {
	f := newFixture(t)
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.RenderVideo, "render", planlib.Params{"code": planlib.Literal("")}).
		Build()

	res, err := f.engine.Execute(context.Background(), plan)
	assert.Equal(t, apperrors.CodeMissingParameter, apperrors.CodeOf(err))
	assert.Equal(t, "Render tool requires code parameter but none was provided", res.Status)
	assert.Empty(t, f.invoker.invoked)
}

func TestLaterOutputsOverwriteEarlier(t *testing.T) {
	f := newFixture(t)
	plan := planlib.NewBuilder(planlib.StrategyModel).
		Add(schemas.GenerateManimCode, "first", planlib.Params{"prompt": planlib.Literal("a")}).
		Add(schemas.GenerateManimCode, "second", planlib.Params{"prompt": planlib.Literal("b")}).
		Add(schemas.RenderVideo, "render", planlib.Params{"code": planlib.Ref("code")}).
		Build()

	res, err := f.engine.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, sceneCode+"\n# revision", res.Output("code"))
	assert.Equal(t, []string{sceneCode + "\n# revision"}, f.render.codes)
}

func TestEmptyPlan(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Execute(context.Background(), &planlib.Plan{})
	assert.Equal(t, apperrors.CodeEmptyPlan, apperrors.CodeOf(err))
	assert.Equal(t, "Could not determine appropriate tools for this request", res.Error)
	assert.Empty(t, res.ToolsUsed)
}

func TestAggregateJSON(t *testing.T) {
	plan := planlib.NewBuilder(planlib.StrategyFallback).
		GenerateAndRender("ball", "gen", "render").
		Build()
	res := Aggregate(Run{
		Plan:    plan,
		Reached: 2,
		Outputs: map[string]any{"code": "c", "video_url": "/videos/v.mp4", "status": "shadowed"},
		Log:     []string{"Step 1: gen", "Step 2: render"},
	})

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "c", doc["code"])
	assert.Equal(t, "/videos/v.mp4", doc["video_url"])
	assert.Equal(t, "success", doc["status"], "fixed fields win over outputs")
	assert.Equal(t, []any{"generate_manim_code", "render_video"}, doc["tools_used"])
	assert.Equal(t, []any{}, doc["ui_actions"])
	_, hasErr := doc["error"]
	assert.False(t, hasErr)
}
