// Package model provides the chat model interface used for plan selection
// and code generation.
package model

import "context"

// Model represents a remote chat model.
type Model interface {
	// Generate runs inference on the model.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// IsAvailable reports whether the model is configured for use.
	IsAvailable() bool

	// Name returns the model identifier.
	Name() string
}
