package tracerr

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Callback is a node.js-style completion callback: an error (or nil) first, the payload after.
type Callback func(err error, args ...interface{})

// Trace is the dynamic dispatch entry point covering all modes at once:
//
//	Trace()             nil (guard no-op)
//	Trace(falsy)        $falsy unchanged (guard no-op)
//	Trace(err)          $err decorated with Trace's call site
//	Trace(err, cb)      as above, then $cb invoked with the decorated error and any trailing args
//	Trace(msg)          a new error with message $msg, decorated with Trace's call site
//	Trace(cb)           a Callback decorating later errors with Trace's call site (not the invocation site)
//
// Callers knowing their argument types should prefer Err(), New() and Wrap().
//
//go:noinline
func Trace(args ...interface{}) interface{} {
	if len(args) < 1 {
		return nil
	}

	head := args[0]
	if falsy(head) {
		return head
	}

	if callback, ok := asCallback(head); ok {
		return wrap(callback, GetStack(1))
	}

	te := promoteValue(head).trace(GetStack(1))

	if len(args) > 1 {
		if callback, ok := asCallback(args[1]); ok {
			callback(te, args[2:]...)
		}
	}

	return te
}

// Err decorates $err with Err's call site and returns it. nil in, nil out.
// A *TracedError is decorated in place, anything else is promoted first.
//
//go:noinline
func Err(err error) error {
	if falsy(err) {
		return err
	}

	return promote(err).trace(GetStack(1))
}

// New creates an error with $message, decorated with New's call site.
//
//go:noinline
func New(message string) error {
	return (&TracedError{message: message}).trace(GetStack(1))
}

// Wrap captures Wrap's call site once and returns a Callback which decorates
// any non-nil error it is later invoked with using that capture, then forwards
// the error and all trailing args verbatim to $callback. nil errors and their
// args are forwarded untouched.
//
//go:noinline
func Wrap(callback Callback) Callback {
	return wrap(callback, GetStack(1))
}

func wrap(callback Callback, stack errors.StackTrace) Callback {
	return func(err error, args ...interface{}) {
		if falsy(err) {
			callback(err, args...)
			return
		}

		callback(promote(err).trace(stack), args...)
	}
}

// falsy reports whether $v is a zero value a guard treats as absence of an error.
func falsy(v interface{}) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return rv.IsZero()
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	}

	return false
}

func asCallback(v interface{}) (Callback, bool) {
	switch f := v.(type) {
	case Callback:
		return f, true
	case func(error, ...interface{}):
		return f, true
	case func(error):
		return func(err error, _ ...interface{}) { f(err) }, true
	}

	return nil, false
}

func promoteValue(v interface{}) *TracedError {
	switch x := v.(type) {
	case error:
		return promote(x)
	case string:
		return &TracedError{message: x}
	default:
		return &TracedError{message: fmt.Sprint(x)}
	}
}
