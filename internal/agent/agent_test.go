package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidcraft-ai/vidcraft/internal/engine"
	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/selector"
	"github.com/vidcraft-ai/vidcraft/internal/stats"
	"github.com/vidcraft-ai/vidcraft/internal/tools"
	"github.com/vidcraft-ai/vidcraft/internal/tools/executor"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

type stubTool struct {
	name schemas.Name
	out  map[string]any
	err  error
}

func (s *stubTool) Name() schemas.Name  { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Execute(context.Context, map[string]any) (*executor.Result, error) {
	if s.err != nil {
		return executor.NewErrorResult(s.err), nil
	}
	return executor.NewSuccessResult(s.out), nil
}

type memJournal struct {
	mu    sync.Mutex
	execs []*planlib.Execution
	err   error
}

func (j *memJournal) Record(_ context.Context, exec *planlib.Execution) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.execs = append(j.execs, exec)
	return nil
}

func (j *memJournal) List(_ context.Context, limit int) ([]*planlib.Execution, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if limit > len(j.execs) {
		limit = len(j.execs)
	}
	return j.execs[:limit], nil
}

func newTestAgent(t *testing.T, render *stubTool, journal Journal) *Agent {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := tools.NewRegistry()
	sr := schemas.NewRegistry()
	schemas.RegisterVideoCapabilities(sr)
	for _, s := range sr.List() {
		var tool executor.Tool
		switch s.Name {
		case schemas.GenerateManimCode:
			tool = &stubTool{name: s.Name, out: map[string]any{"code": "class MyScene(Scene): ..."}}
		case schemas.RenderVideo:
			tool = render
		}
		reg.Register(s, tool)
	}
	require.NoError(t, reg.Validate())

	collector := stats.NewCollector()
	return New(&Config{
		Tools:    reg,
		Selector: selector.New(selector.Config{Catalog: reg, Logger: logger, Observer: collector}),
		Engine:   engine.New(reg, engine.WithLogger(logger), engine.WithObserver(collector)),
		Journal:  journal,
		Stats:    collector,
		Logger:   logger,
	})
}

func TestProcessSuccessIsJournaled(t *testing.T) {
	journal := &memJournal{}
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo, out: map[string]any{"video_url": "/videos/a.mp4"}}, journal)

	res, err := a.Process(context.Background(), "create a bouncing ball animation")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, "/videos/a.mp4", res.Output("video_url"))

	require.Len(t, journal.execs, 1)
	exec := journal.execs[0]
	assert.Equal(t, res.RequestID, exec.ID)
	assert.Equal(t, planlib.StrategyFallback, exec.Strategy)
	assert.Equal(t, planlib.StatusSucceeded, exec.Status)
	assert.Equal(t, 2, exec.StepCount)
	assert.Equal(t, 2, exec.StepsCompleted)

	s := a.Stats().Collect("")
	assert.Equal(t, int64(1), s.RequestCount)
	assert.Equal(t, int64(1), s.FallbackCount)
}

func TestProcessFailureIsJournaled(t *testing.T) {
	journal := &memJournal{}
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo, err: errors.New("manim render failed:\nSyntaxError")}, journal)

	res, err := a.Process(context.Background(), "create a square")
	require.Error(t, err)
	assert.Equal(t, "manim render failed:\nSyntaxError", res.Status)

	require.Len(t, journal.execs, 1)
	assert.Equal(t, planlib.StatusFailed, journal.execs[0].Status)
	assert.Equal(t, apperrors.CodeCapabilityFailed, journal.execs[0].ErrorCode)
	assert.Equal(t, 1, journal.execs[0].StepsCompleted)
	assert.Equal(t, int64(1), a.Stats().Collect("").ErrorCount)
}

func TestProcessEmptyPrompt(t *testing.T) {
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, nil)

	res, err := a.Process(context.Background(), "")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, apperrors.CodeEmptyPlan, res.ErrorCode)
}

func TestJournalFailureDoesNotFailRequest(t *testing.T) {
	journal := &memJournal{err: errors.New("disk full")}
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, journal)

	res, err := a.Process(context.Background(), "show me my videos")
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestInvokeSignalDirectly(t *testing.T) {
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, nil)

	res, err := a.Invoke(context.Background(), schemas.OpenVideoEditor, map[string]any{"reason": "trim"})
	require.NoError(t, err)
	require.Len(t, res.UIActions, 1)
	assert.Equal(t, "open_video_editor", res.UIActions[0].Type)
	assert.Equal(t, "trim", res.UIActions[0].Parameters["reason"])
}

func TestInvokeComputationalDirectly(t *testing.T) {
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo, out: map[string]any{"video_url": "/videos/b.mp4"}}, nil)

	res, err := a.Invoke(context.Background(), schemas.RenderVideo, map[string]any{"code": "class MyScene(Scene): ..."})
	require.NoError(t, err)
	assert.Equal(t, "/videos/b.mp4", res.Output("video_url"))

	_, err = a.Invoke(context.Background(), schemas.RenderVideo, map[string]any{"code": "{{NEEDS_CODE_INPUT}}"})
	assert.Equal(t, apperrors.CodeMissingDependency, apperrors.CodeOf(err))
}

func TestCapabilities(t *testing.T) {
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, nil)

	listing := a.Capabilities()
	assert.Equal(t, "process_request", listing.PrimaryTool)
	assert.Equal(t, []string{"generate_manim_code", "render_video", "open_burger_menu", "open_video_editor"}, listing.Order)
	assert.Equal(t, "signal", listing.Capabilities["open_burger_menu"].Kind)
	assert.Equal(t, "computational", listing.Capabilities["render_video"].Kind)
	assert.NotEmpty(t, listing.Capabilities["render_video"].InputSchema)
}

func TestHistory(t *testing.T) {
	_, err := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, nil).History(context.Background(), 5)
	assert.Equal(t, apperrors.CodeJournalFailed, apperrors.CodeOf(err))

	journal := &memJournal{}
	a := newTestAgent(t, &stubTool{name: schemas.RenderVideo}, journal)
	_, _ = a.Process(context.Background(), "show me my videos")
	execs, err := a.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, execs, 1)
}
