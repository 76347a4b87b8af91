// Package inference defines the inference port used by the extraction
// pipeline and its language-model adapters. Given page content, a
// schema, and instructions, an adapter returns a best-effort structured
// payload as raw JSON text.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTimeout bounds one model call when the request does not
// override it.
const DefaultTimeout = 60 * time.Second

// Request describes one extraction call.
type Request struct {
	// Prompt is the page content to extract from, already truncated to a
	// provider-safe length by the caller.
	Prompt string
	// Schema is the JSON schema the payload should conform to.
	Schema json.RawMessage
	// Instructions is the natural-language extraction instruction.
	Instructions string
	// Timeout bounds the call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Inferencer invokes a language model and returns the raw payload text.
// Failures are reported as *Error.
type Inferencer interface {
	Infer(ctx context.Context, req Request) (string, error)
}

// Error reports a model call failure or an unparsable response. Callers
// recover it at the scope of one page.
type Error struct {
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
