// Package schemas provides capability descriptors and their input schemas.
package schemas

// Name identifies a capability. The set of names is closed: every value
// is declared below and listed by AllNames.
type Name string

const (
	GenerateManimCode Name = "generate_manim_code"
	RenderVideo       Name = "render_video"
	OpenBurgerMenu    Name = "open_burger_menu"
	OpenVideoEditor   Name = "open_video_editor"
)

// AllNames returns every capability name in declaration order.
func AllNames() []Name {
	return []Name{GenerateManimCode, RenderVideo, OpenBurgerMenu, OpenVideoEditor}
}

// ParseName maps a string to a known capability name.
func ParseName(s string) (Name, bool) {
	for _, n := range AllNames() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

func (n Name) String() string { return string(n) }

// Kind distinguishes capabilities that compute outputs from those that only
// signal an intent to an external consumer.
type Kind int

const (
	// KindComputational capabilities are invoked and produce outputs.
	KindComputational Kind = iota
	// KindSignal capabilities are recorded, never invoked.
	KindSignal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindComputational:
		return "computational"
	case KindSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// Parameter types understood by CheckType.
const (
	TypeString  = "string"
	TypeArray   = "array"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Param describes one input of a capability.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// Schema describes a capability: identity, matching keywords and inputs.
type Schema struct {
	Name        Name     `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Kind        Kind     `json:"-"`
	Params      []Param  `json:"params"`
}

// IsSignal reports whether the capability is signal-only.
func (s *Schema) IsSignal() bool {
	return s.Kind == KindSignal
}

// Param looks up a parameter by name.
func (s *Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// InputSchema renders the parameters as a JSON Schema object.
func (s *Schema) InputSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Params))
	required := make([]string, 0)
	for _, p := range s.Params {
		def := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Type == TypeArray {
			def["items"] = map[string]interface{}{"type": TypeString}
		}
		if p.Default != nil {
			def["default"] = p.Default
		}
		props[p.Name] = def
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// CheckType reports whether v is acceptable for a parameter of type typ.
// Values decoded from JSON arrive as float64 and []any, so both the Go and
// the decoded shapes are accepted.
func CheckType(typ string, v any) bool {
	switch typ {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case TypeArray:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	default:
		return true
	}
}

// SchemaBuilder provides a fluent interface for building capability schemas.
type SchemaBuilder struct {
	schema *Schema
}

// NewSchema creates a new schema builder with the given name and description.
func NewSchema(name Name, description string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: &Schema{
			Name:        name,
			Description: description,
			Kind:        KindComputational,
		},
	}
}

// AddParam adds a parameter to the schema.
func (b *SchemaBuilder) AddParam(name, paramType, description string, required bool) *SchemaBuilder {
	b.schema.Params = append(b.schema.Params, Param{
		Name:        name,
		Type:        paramType,
		Description: description,
		Required:    required,
	})
	return b
}

// AddParamWithDefault adds an optional parameter with a default value.
func (b *SchemaBuilder) AddParamWithDefault(name, paramType, description string, def any) *SchemaBuilder {
	b.schema.Params = append(b.schema.Params, Param{
		Name:        name,
		Type:        paramType,
		Description: description,
		Default:     def,
	})
	return b
}

// WithKeywords sets the matching keywords.
func (b *SchemaBuilder) WithKeywords(keywords ...string) *SchemaBuilder {
	b.schema.Keywords = append(b.schema.Keywords, keywords...)
	return b
}

// Signal marks the capability as signal-only.
func (b *SchemaBuilder) Signal() *SchemaBuilder {
	b.schema.Kind = KindSignal
	return b
}

// Build returns the constructed schema.
func (b *SchemaBuilder) Build() *Schema {
	return b.schema
}

// Registry holds capability schemas in registration order.
type Registry struct {
	schemas map[Name]*Schema
	order   []Name
}

// NewRegistry creates a new empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[Name]*Schema)}
}

// Register adds a schema to the registry. Re-registering a name replaces
// the schema but keeps its original position.
func (r *Registry) Register(schema *Schema) {
	if _, exists := r.schemas[schema.Name]; !exists {
		r.order = append(r.order, schema.Name)
	}
	r.schemas[schema.Name] = schema
}

// Get retrieves a schema by name.
func (r *Registry) Get(name Name) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// List returns all schemas in registration order.
func (r *Registry) List() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}
