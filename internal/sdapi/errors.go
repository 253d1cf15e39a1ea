package sdapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for Stable Diffusion API operations.
var (
	ErrUnavailable       = errors.New("sdapi: service unavailable")
	ErrBadRequest        = errors.New("sdapi: bad request")
	ErrServer            = errors.New("sdapi: server error")
	ErrNoImages          = errors.New("sdapi: no images returned")
	ErrMalformedResponse = errors.New("sdapi: malformed response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // txt2img, progress, sd-models, options
	Status int    // HTTP status, 0 when no response was received
	Detail string // upstream error text, if any
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("sdapi %s: %v", e.Op, e.Err)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
