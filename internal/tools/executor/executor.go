// Package executor provides the capability execution interface and the
// computational capability implementations.
package executor

import (
	"context"
	"sort"
	"time"

	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

// Tool represents an invocable computational capability.
type Tool interface {
	// Name returns the capability the tool implements.
	Name() schemas.Name

	// Description returns what the tool does.
	Description() string

	// Execute runs the tool with the given input.
	// A failure of the work itself is reported through Result; a returned
	// error means the tool could not run at all (for example, ctx expired).
	Execute(ctx context.Context, input map[string]any) (*Result, error)
}

// Result represents the result of a tool execution.
type Result struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// NewSuccessResult creates a successful result.
func NewSuccessResult(data map[string]any) *Result {
	return &Result{
		Success: true,
		Data:    data,
	}
}

// NewErrorResult creates an error result.
func NewErrorResult(err error) *Result {
	return &Result{
		Success: false,
		Error:   err.Error(),
	}
}

// TimedResult wraps a result with duration.
func TimedResult(result *Result, start time.Time) *Result {
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// Registry manages available tools for execution.
type Registry struct {
	tools map[schemas.Name]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[schemas.Name]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name schemas.Name) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []schemas.Name {
	names := make([]schemas.Name, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Execute runs a tool by name with the given input.
func (r *Registry) Execute(ctx context.Context, name schemas.Name, input map[string]any) (*Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, &ToolNotFoundError{Name: string(name)}
	}
	return tool.Execute(ctx, input)
}

// ToolNotFoundError is returned when a tool doesn't exist.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return "tool not found: " + e.Name
}
