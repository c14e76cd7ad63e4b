package planlib

import "github.com/vidcraft-ai/vidcraft/internal/tools/schemas"

// Builder helps construct plans step by step.
type Builder struct {
	plan *Plan
}

// NewBuilder creates a new plan builder.
func NewBuilder(strategy Strategy) *Builder {
	return &Builder{plan: &Plan{Strategy: strategy, Entries: []Entry{}}}
}

// Add appends a step.
func (b *Builder) Add(capability schemas.Name, rationale string, params Params) *Builder {
	if params == nil {
		params = Params{}
	}
	b.plan.Entries = append(b.plan.Entries, Entry{
		Capability: string(capability),
		Rationale:  rationale,
		Params:     params,
	})
	return b
}

// GenerateAndRender appends the code generation step followed by a render
// step that consumes its output.
func (b *Builder) GenerateAndRender(prompt, genRationale, renderRationale string) *Builder {
	return b.
		Add(schemas.GenerateManimCode, genRationale, Params{"prompt": Literal(prompt)}).
		Add(schemas.RenderVideo, renderRationale, Params{CodeKey: Ref(CodeKey)})
}

// Build returns the constructed plan.
func (b *Builder) Build() *Plan {
	return b.plan
}
