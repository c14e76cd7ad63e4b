package selector

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
)

//go:embed plan_schema.json
var planSchemaJSON string

var (
	compileOnce sync.Once
	planSchema  *jsonschema.Schema
	compileErr  error
)

// PlanSchema returns the compiled JSON Schema for model plan replies.
func PlanSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("plan_schema.json", strings.NewReader(planSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("plan_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile plan schema: %w", err)
			return
		}
		planSchema = schema
	})
	return planSchema, compileErr
}

type wireEntry struct {
	Tool       string         `json:"tool"`
	Reasoning  string         `json:"reasoning"`
	Parameters map[string]any `json:"parameters"`
}

// ParsePlan turns a model reply into a plan. The reply is untrusted: it
// must be a JSON array matching the plan schema, optionally wrapped in a
// markdown code fence. Placeholder tokens become planlib references.
func ParsePlan(reply string) (*planlib.Plan, error) {
	text := stripFences(reply)
	if text == "" {
		return nil, invalidResponse("empty reply", nil)
	}

	schema, err := PlanSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, invalidResponse("reply is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, invalidResponse("reply does not match plan schema", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	var entries []wireEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, invalidResponse("decode plan", err)
	}
	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyPlan, "model returned an empty plan", apperrors.CategoryPermanent)
	}

	plan := &planlib.Plan{Strategy: planlib.StrategyModel, Entries: make([]planlib.Entry, 0, len(entries))}
	for _, e := range entries {
		plan.Entries = append(plan.Entries, planlib.Entry{
			Capability: e.Tool,
			Rationale:  e.Reasoning,
			Params:     planlib.ParseParams(e.Parameters),
		})
	}
	return plan, nil
}

func invalidResponse(msg string, err error) error {
	if err == nil {
		return apperrors.New(apperrors.CodeModelInvalidResponse, msg, apperrors.CategoryPermanent)
	}
	return apperrors.Wrap(err, apperrors.CodeModelInvalidResponse, msg, apperrors.CategoryPermanent)
}

// stripFences removes a surrounding ```json ... ``` fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
