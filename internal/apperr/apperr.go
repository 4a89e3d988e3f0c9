// Package apperr defines the error kinds services return to the transport
// layer. Callers match kinds with errors.Is and read the caller-facing
// detail from the *Error value.
package apperr

import "errors"

// Kinds. They are converted to transport status codes only at the boundary.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
	ErrInternal     = errors.New("internal error")
)

// Error carries a kind plus a human-readable detail safe to show to callers.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Conflict(detail string) *Error     { return New(ErrConflict, detail) }
func Unauthorized(detail string) *Error { return New(ErrUnauthorized, detail) }
func BadRequest(detail string) *Error   { return New(ErrBadRequest, detail) }
func NotFound(detail string) *Error     { return New(ErrNotFound, detail) }
func Unavailable(detail string) *Error  { return New(ErrUnavailable, detail) }
func Timeout(detail string) *Error      { return New(ErrTimeout, detail) }

// Detail returns the caller-facing message for err, or fallback when err
// is not an *Error (raw storage errors must not leak).
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}
