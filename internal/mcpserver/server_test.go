package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vidcraft-ai/vidcraft/internal/agent"
	"github.com/vidcraft-ai/vidcraft/internal/engine"
	"github.com/vidcraft-ai/vidcraft/internal/selector"
	"github.com/vidcraft-ai/vidcraft/internal/tools"
	"github.com/vidcraft-ai/vidcraft/internal/tools/executor"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubTool struct {
	name schemas.Name
	out  map[string]any
}

func (s *stubTool) Name() schemas.Name  { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Execute(context.Context, map[string]any) (*executor.Result, error) {
	return executor.NewSuccessResult(s.out), nil
}

func connect(t *testing.T) *mcp.ClientSession {
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
			tool = &stubTool{name: s.Name, out: map[string]any{"video_url": "/videos/a.mp4"}}
		}
		reg.Register(s, tool)
	}
	require.NoError(t, reg.Validate())

	a := agent.New(&agent.Config{
		Tools:    reg,
		Selector: selector.New(selector.Config{Catalog: reg, Logger: logger}),
		Engine:   engine.New(reg, engine.WithLogger(logger)),
		Logger:   logger,
	})

	ctx := context.Background()
	server := New(a, "test", logger)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		cs.Close()
		ss.Wait()
	})
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	return doc, res.IsError
}

func TestListTools(t *testing.T) {
	cs := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"process_request", "list_capabilities",
		"generate_manim_code", "render_video", "open_burger_menu", "open_video_editor",
	}, names)
}

func TestProcessRequest(t *testing.T) {
	cs := connect(t)

	doc, isErr := call(t, cs, "process_request", map[string]any{"prompt": "create a bouncing ball animation"})
	assert.False(t, isErr)
	assert.Equal(t, "success", doc["status"])
	assert.Equal(t, "/videos/a.mp4", doc["video_url"])
	assert.Equal(t, []any{"generate_manim_code", "render_video"}, doc["tools_used"])
}

func TestProcessRequestFailure(t *testing.T) {
	cs := connect(t)

	doc, isErr := call(t, cs, "process_request", map[string]any{"prompt": "render my video"})
	assert.True(t, isErr)
	assert.Equal(t, "MISSING_DEPENDENCY", doc["error_code"])
	assert.Equal(t, "Code parameter needed but no code was provided or generated", doc["error"])
}

func TestListCapabilities(t *testing.T) {
	cs := connect(t)

	doc, isErr := call(t, cs, "list_capabilities", map[string]any{})
	assert.False(t, isErr)
	assert.Equal(t, "process_request", doc["primary_tool"])
	caps, ok := doc["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, caps, 4)
}

func TestSignalTools(t *testing.T) {
	cs := connect(t)

	doc, isErr := call(t, cs, "open_burger_menu", map[string]any{"reason": "show library"})
	assert.False(t, isErr)
	assert.Equal(t, "open_burger_menu", doc["ui_action"])
	assert.Equal(t, "ui_action_requested", doc["status"])

	doc, _ = call(t, cs, "open_video_editor", map[string]any{"reason": "trim"})
	assert.Equal(t, "open_video_editor", doc["ui_action"])
	assert.Equal(t, []any{}, doc["suggested_videos"])
}

func TestDirectRender(t *testing.T) {
	cs := connect(t)

	doc, isErr := call(t, cs, "render_video", map[string]any{"code": "class MyScene(Scene): ..."})
	assert.False(t, isErr)
	assert.Equal(t, "/videos/a.mp4", doc["video_url"])
}
