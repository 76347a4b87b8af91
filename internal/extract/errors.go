package extract

import "fmt"

// ConfigurationError reports invalid extraction options, such as a
// malformed custom schema. It is detected before any fetch occurs and is
// the only error class surfaced to the caller as a hard failure.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "extraction configuration: " + e.Reason
}

// Failure reports that extraction for one page produced no usable
// records because the model call failed or returned an unparsable
// payload. It is recoverable: a single page's extraction failure never
// aborts the surrounding traversal.
type Failure struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *Failure) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Failure) Unwrap() error {
	return e.Err
}
