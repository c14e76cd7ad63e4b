package engine

import (
	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
)

// Context holds the outputs of earlier steps of one request. It is owned
// by a single Execute call and never shared.
type Context struct {
	values map[string]any
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Lookup returns the value stored under key.
func (c *Context) Lookup(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Merge copies outputs into the context. Later steps overwrite earlier keys.
func (c *Context) Merge(outputs map[string]any) {
	for k, v := range outputs {
		c.values[k] = v
	}
}

// Resolve turns plan parameters into concrete invocation parameters.
// References are substituted from the context; a reference with no value
// or an Unavailable marker fails with MISSING_DEPENDENCY.
func (c *Context) Resolve(capability string, params planlib.Params) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for name, v := range params {
		switch v.Kind() {
		case planlib.KindRef:
			val, ok := c.Lookup(v.Key())
			if !ok {
				return nil, missingDependency(capability, name, v.Key(),
					"no earlier step produced "+v.Key())
			}
			out[name] = val
		case planlib.KindUnavailable:
			msg := "Input " + v.Key() + " needed but no source was provided or generated"
			if v.Key() == planlib.CodeKey {
				msg = "Code parameter needed but no code was provided or generated"
			}
			return nil, missingDependency(capability, name, v.Key(), msg)
		default:
			out[name] = v.Raw()
		}
	}
	return out, nil
}

func missingDependency(capability, param, key, msg string) error {
	return apperrors.NewBuilder(apperrors.CodeMissingDependency, msg).
		WithContext("capability", capability).
		WithContext("parameter", param).
		WithContext("key", key).
		Build()
}
