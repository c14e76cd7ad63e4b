// Package planlib provides execution plans, the values their parameters
// carry, and the journal that records executed plans.
package planlib

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Strategy names how a plan was selected.
type Strategy string

const (
	StrategyModel    Strategy = "model"
	StrategyFallback Strategy = "fallback"
	StrategyDirect   Strategy = "direct"
)

// Placeholder tokens used in the wire form of a plan.
const (
	GeneratedCodeToken = "{{GENERATED_CODE}}"
	NeedsCodeToken     = "{{NEEDS_CODE_INPUT}}"

	legacyGeneratedCodeToken = "{GENERATED_CODE}"
	refPrefix                = "{{ref:"
	unavailablePrefix        = "{{unavailable:"
)

// CodeKey is the context key produced by generate_manim_code.
const CodeKey = "code"

// ValueKind discriminates a parameter Value.
type ValueKind int

const (
	KindLiteral ValueKind = iota
	KindRef
	KindUnavailable
)

// Value is a plan parameter: a literal, a reference to an output produced
// by an earlier step, or an explicit marker that a required input does not
// exist.
type Value struct {
	kind    ValueKind
	literal any
	key     string
}

// Literal wraps a concrete value.
func Literal(v any) Value { return Value{kind: KindLiteral, literal: v} }

// Ref refers to the context value stored under key.
func Ref(key string) Value { return Value{kind: KindRef, key: key} }

// Unavailable marks an input under key that no step will produce.
func Unavailable(key string) Value { return Value{kind: KindUnavailable, key: key} }

// Kind returns the value kind.
func (v Value) Kind() ValueKind { return v.kind }

// Key returns the context key of a Ref or Unavailable value.
func (v Value) Key() string { return v.key }

// Raw returns the literal payload.
func (v Value) Raw() any { return v.literal }

// Wire renders the value in its wire form. References become placeholder
// tokens.
func (v Value) Wire() any {
	switch v.kind {
	case KindRef:
		if v.key == CodeKey {
			return GeneratedCodeToken
		}
		return refPrefix + v.key + "}}"
	case KindUnavailable:
		if v.key == CodeKey {
			return NeedsCodeToken
		}
		return unavailablePrefix + v.key + "}}"
	default:
		return v.literal
	}
}

func (v Value) String() string {
	return fmt.Sprint(v.Wire())
}

// ParseValue converts a wire value into a Value, recognizing the
// placeholder tokens. "{GENERATED_CODE}" is accepted as an alias of
// "{{GENERATED_CODE}}".
func ParseValue(raw any) Value {
	s, ok := raw.(string)
	if !ok {
		return Literal(raw)
	}
	switch t := strings.TrimSpace(s); {
	case t == GeneratedCodeToken || t == legacyGeneratedCodeToken:
		return Ref(CodeKey)
	case t == NeedsCodeToken:
		return Unavailable(CodeKey)
	case strings.HasPrefix(t, refPrefix) && strings.HasSuffix(t, "}}"):
		return Ref(strings.TrimSuffix(strings.TrimPrefix(t, refPrefix), "}}"))
	case strings.HasPrefix(t, unavailablePrefix) && strings.HasSuffix(t, "}}"):
		return Unavailable(strings.TrimSuffix(strings.TrimPrefix(t, unavailablePrefix), "}}"))
	}
	return Literal(raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Wire())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ParseValue(raw)
	return nil
}

// Params maps parameter names to values.
type Params map[string]Value

// Wire renders every value in its wire form.
func (p Params) Wire() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Wire()
	}
	return out
}

// ParseParams converts decoded JSON parameters into Params.
func ParseParams(raw map[string]any) Params {
	out := make(Params, len(raw))
	for k, v := range raw {
		out[k] = ParseValue(v)
	}
	return out
}

// Entry is one step of a plan.
type Entry struct {
	Capability string `json:"tool"`
	Rationale  string `json:"reasoning"`
	Params     Params `json:"parameters"`
}

// Plan is an ordered sequence of entries.
type Plan struct {
	Strategy Strategy `json:"strategy"`
	Entries  []Entry  `json:"tools"`
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Capabilities returns the entry capability names in order.
func (p *Plan) Capabilities() []string {
	out := make([]string, 0, p.Len())
	for _, e := range p.Entries {
		out = append(out, e.Capability)
	}
	return out
}

// Rationales returns the entry rationales in order.
func (p *Plan) Rationales() []string {
	out := make([]string, 0, p.Len())
	for _, e := range p.Entries {
		out = append(out, e.Rationale)
	}
	return out
}
