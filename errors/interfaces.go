package errors

import "github.com/pkg/errors"

type StackTracer interface {
	StackTrace() errors.StackTrace
}

type WithStack interface {
	error
	StackTracer
}

// Traced is the surface of errors which accumulated call sites, one stack segment per decoration.
type Traced interface {
	WithStack
	Stack() string
}
