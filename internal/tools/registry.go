// Package tools provides the capability registry: descriptors, executors
// and the uniform invocation path.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/tools/executor"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

// Registry combines schemas and executors. It is built once at startup and
// read-only afterwards.
type Registry struct {
	schemas   *schemas.Registry
	executors *executor.Registry
	timeouts  map[schemas.Name]time.Duration
}

// NewRegistry creates a new unified capability registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:   schemas.NewRegistry(),
		executors: executor.NewRegistry(),
		timeouts:  make(map[schemas.Name]time.Duration),
	}
}

// Dependencies are the collaborators of the computational capabilities.
type Dependencies struct {
	CodeModel      executor.Generator
	SceneClass     string
	CodegenTimeout time.Duration
	Render         executor.RenderConfig
	RenderTimeout  time.Duration
	Runner         executor.CommandRunner
}

// Initialize registers every capability with its executor and validates
// the result.
func (r *Registry) Initialize(deps Dependencies) error {
	schemas.RegisterVideoCapabilities(r.schemas)

	if deps.Render.SceneClass == "" {
		deps.Render.SceneClass = deps.SceneClass
	}
	r.executors.Register(executor.NewManimCode(deps.CodeModel, deps.SceneClass))
	r.executors.Register(executor.NewRenderVideo(deps.Render, deps.Runner))

	r.timeouts[schemas.GenerateManimCode] = deps.CodegenTimeout
	r.timeouts[schemas.RenderVideo] = deps.RenderTimeout

	return r.Validate()
}

// Register adds a capability. Signal capabilities pass a nil tool.
func (r *Registry) Register(schema *schemas.Schema, tool executor.Tool) {
	r.schemas.Register(schema)
	if tool != nil {
		r.executors.Register(tool)
	}
}

// Validate checks that the registry covers the closed capability set:
// every name has a schema, every computational schema has an executor and
// no signal or unknown capability has one.
func (r *Registry) Validate() error {
	var problems []string
	for _, name := range schemas.AllNames() {
		schema, ok := r.schemas.Get(name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: no schema", name))
			continue
		}
		_, hasTool := r.executors.Get(name)
		switch {
		case schema.IsSignal() && hasTool:
			problems = append(problems, fmt.Sprintf("%s: signal capability has an executor", name))
		case !schema.IsSignal() && !hasTool:
			problems = append(problems, fmt.Sprintf("%s: no executor", name))
		}
	}
	for _, name := range r.executors.List() {
		if _, ok := r.schemas.Get(name); !ok {
			problems = append(problems, fmt.Sprintf("%s: executor without schema", name))
		}
	}
	if len(problems) > 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, apperrors.CategorySystem,
			"capability registry incomplete: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Describe returns the descriptor for name.
func (r *Registry) Describe(name string) (*schemas.Schema, error) {
	if n, ok := schemas.ParseName(name); ok {
		if s, ok := r.schemas.Get(n); ok {
			return s, nil
		}
	}
	return nil, apperrors.NewBuilder(apperrors.CodeUnknownCapability, "Unknown tool: "+name).
		WithContext("capability", name).
		Build()
}

// List returns every descriptor in declaration order.
func (r *Registry) List() []*schemas.Schema {
	return r.schemas.List()
}

// Catalog renders the descriptors as "- name: description" lines.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for i, s := range r.schemas.List() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s: %s", s.Name, s.Description)
	}
	return sb.String()
}

// Names returns the registered capability names as strings.
func (r *Registry) Names() []string {
	list := r.schemas.List()
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s.Name))
	}
	return out
}

// Invoke validates params against the capability schema and runs it.
// The returned map holds the capability outputs.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	schema, err := r.Describe(name)
	if err != nil {
		return nil, err
	}
	if schema.IsSignal() {
		return nil, apperrors.Newf(apperrors.CodeCapabilityFailed, apperrors.CategoryPermanent,
			"%s is a signal capability and cannot be invoked", name)
	}

	input, err := CheckParams(schema, params)
	if err != nil {
		return nil, err
	}

	if d := r.timeouts[schema.Name]; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	res, err := r.executors.Execute(ctx, schema.Name, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(err, apperrors.CodeCapabilityTimeout,
				fmt.Sprintf("Tool execution timed out for %s", name), apperrors.CategoryTemporary)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeCapabilityFailed,
			fmt.Sprintf("Tool execution failed for %s", name), apperrors.CategorySystem)
	}
	if !res.Success {
		return nil, apperrors.New(apperrors.CodeCapabilityFailed, res.Error, apperrors.CategoryPermanent)
	}
	if res.Data == nil {
		return map[string]any{}, nil
	}
	return res.Data, nil
}

// CheckParams enforces required presence and declared types, applies
// defaults, and drops parameters the schema does not declare.
func CheckParams(schema *schemas.Schema, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(schema.Params))
	for _, p := range schema.Params {
		v, ok := params[p.Name]
		if !ok || v == nil || v == "" {
			if p.Required {
				return nil, apperrors.NewBuilder(apperrors.CodeMissingParameter,
					fmt.Sprintf("%s requires a %s parameter", schema.Name, p.Name)).
					User().
					WithContext("capability", string(schema.Name)).
					WithContext("parameter", p.Name).
					Build()
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		if !schemas.CheckType(p.Type, v) {
			return nil, apperrors.NewBuilder(apperrors.CodeInvalidParameter,
				fmt.Sprintf("%s parameter %s must be of type %s", schema.Name, p.Name, p.Type)).
				User().
				WithContext("capability", string(schema.Name)).
				WithContext("parameter", p.Name).
				Build()
		}
		out[p.Name] = v
	}
	return out, nil
}
