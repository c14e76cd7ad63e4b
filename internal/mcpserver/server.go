// Package mcpserver exposes the agent as a Model Context Protocol server.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vidcraft-ai/vidcraft/internal/agent"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

// Name is the advertised server name.
const Name = "VidCraftAI"

// Messages returned by the signal tools when called directly.
const (
	burgerMenuMessage  = "Burger menu should be opened to show video library"
	videoEditorMessage = "Video editor should be opened for video editing"
)

type generateInput struct {
	Prompt string `json:"prompt" jsonschema:"description of the animation to generate"`
}

type renderInput struct {
	Code string `json:"code" jsonschema:"complete Manim Python code defining MyScene"`
}

type burgerMenuInput struct {
	Reason string `json:"reason" jsonschema:"why the video library should be shown"`
}

type videoEditorInput struct {
	Reason          string   `json:"reason" jsonschema:"why the video editor should be opened"`
	SuggestedVideos []string `json:"suggested_videos,omitempty" jsonschema:"video ids to preload in the editor"`
}

// New builds the MCP server over a.
func New(a *agent.Agent, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	h := &handlers{agent: a, logger: logger}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_request",
		Description: "Intelligently processes user requests by selecting and executing appropriate tools.",
	}, h.processRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_capabilities",
		Description: "Lists all available tools and their capabilities",
	}, h.listCapabilities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(schemas.GenerateManimCode),
		Description: "Direct access to code generation tool (legacy)",
	}, h.generate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(schemas.RenderVideo),
		Description: "Direct access to video rendering tool (legacy)",
	}, h.render)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(schemas.OpenBurgerMenu),
		Description: "UI control tool to open the burger menu/sidebar",
	}, h.openBurgerMenu)

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(schemas.OpenVideoEditor),
		Description: "UI control tool to open the video editor",
	}, h.openVideoEditor)

	return server
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

type handlers struct {
	agent  *agent.Agent
	logger *slog.Logger
}

func (h *handlers) processRequest(ctx context.Context, _ *mcp.CallToolRequest, in protocol.ProcessRequest) (*mcp.CallToolResult, any, error) {
	res, err := h.agent.Process(ctx, in.Prompt)
	return aggregateResult(res, err)
}

func (h *handlers) listCapabilities(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return nil, h.agent.Capabilities(), nil
}

func (h *handlers) generate(ctx context.Context, _ *mcp.CallToolRequest, in generateInput) (*mcp.CallToolResult, any, error) {
	res, err := h.agent.Invoke(ctx, schemas.GenerateManimCode, map[string]any{"prompt": in.Prompt})
	return aggregateResult(res, err)
}

func (h *handlers) render(ctx context.Context, _ *mcp.CallToolRequest, in renderInput) (*mcp.CallToolResult, any, error) {
	res, err := h.agent.Invoke(ctx, schemas.RenderVideo, map[string]any{"code": in.Code})
	return aggregateResult(res, err)
}

func (h *handlers) openBurgerMenu(ctx context.Context, _ *mcp.CallToolRequest, in burgerMenuInput) (*mcp.CallToolResult, any, error) {
	res, err := h.agent.Invoke(ctx, schemas.OpenBurgerMenu, map[string]any{"reason": in.Reason})
	if err != nil {
		return aggregateResult(res, err)
	}
	return nil, protocol.SignalAck{
		UIAction: string(schemas.OpenBurgerMenu),
		Reason:   in.Reason,
		Message:  burgerMenuMessage,
		Status:   protocol.StatusUIActionRequested,
	}, nil
}

func (h *handlers) openVideoEditor(ctx context.Context, _ *mcp.CallToolRequest, in videoEditorInput) (*mcp.CallToolResult, any, error) {
	videos := in.SuggestedVideos
	if videos == nil {
		videos = []string{}
	}
	res, err := h.agent.Invoke(ctx, schemas.OpenVideoEditor, map[string]any{"reason": in.Reason, "suggested_videos": videos})
	if err != nil {
		return aggregateResult(res, err)
	}
	return nil, videoEditorAck{
		SignalAck: protocol.SignalAck{
			UIAction: string(schemas.OpenVideoEditor),
			Reason:   in.Reason,
			Message:  videoEditorMessage,
			Status:   protocol.StatusUIActionRequested,
		},
		SuggestedVideos: videos,
	}, nil
}

// videoEditorAck always carries suggested_videos, even when empty.
type videoEditorAck struct {
	protocol.SignalAck
	SuggestedVideos []string `json:"suggested_videos"`
}

// aggregateResult reports failures as tool errors carrying the full result,
// so clients still see the log and partial outputs.
func aggregateResult(res *protocol.AggregateResult, err error) (*mcp.CallToolResult, any, error) {
	if err == nil {
		return nil, res, nil
	}
	data, merr := json.Marshal(res)
	if merr != nil {
		return nil, nil, merr
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, res, nil
}
