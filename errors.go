package tracerr

import (
	"bytes"
	"runtime"

	"github.com/pkg/errors"
)

type ErrorWithStack interface {
	error
	StackTracer
}

type StackTracer interface {
	StackTrace() errors.StackTrace
}

// Delimiter separates the stack segments of distinct call sites in rendered stack text.
const Delimiter = "----------------------------------------"

// GetStack returns the current goroutine's call stack, skipping $skip frames on top of GetStack's caller.
// The capture machinery's own frames never appear in the result.
//
//go:noinline
func GetStack(skip int) errors.StackTrace {
	pcs := make([]uintptr, 64)

	for {
		// +2 skips runtime.Callers and GetStack itself.
		if n := runtime.Callers(skip+2, pcs); n < len(pcs) {
			pcs = pcs[:n]
			break
		}

		pcs = make([]uintptr, 2*len(pcs))
	}

	stack := make(errors.StackTrace, len(pcs))
	for i, pc := range pcs {
		stack[i] = errors.Frame(pc)
	}

	return stack
}

// TracedError is an error carrying an append-only log of the call sites it passed through.
// $native is the cause's own construction-site stack (if it had one),
// $traced collects one segment per decoration via Trace(), Err(), New() or a Wrap()ed callback.
type TracedError struct {
	message string
	cause   error
	native  errors.StackTrace
	traced  []errors.StackTrace
}

var _ ErrorWithStack = (*TracedError)(nil)

func (te *TracedError) Error() string {
	return te.message
}

// Cause returns the promoted original error (nil for errors built from a message).
func (te *TracedError) Cause() error {
	return te.cause
}

func (te *TracedError) Unwrap() error {
	return te.cause
}

// StackTrace returns the oldest known stack: the cause's own if it carried one,
// otherwise the first trace segment.
func (te *TracedError) StackTrace() errors.StackTrace {
	if te.native != nil {
		return te.native
	}

	if len(te.traced) > 0 {
		return te.traced[0]
	}

	return nil
}

// Stack renders the accumulated stacks as text: the message header on line 0,
// the cause's own frames right below it and every trace segment after one Delimiter line each.
func (te *TracedError) Stack() string {
	buf := &bytes.Buffer{}
	buf.WriteString(te.message)

	for _, frame := range te.native {
		writeFrame(buf, frame)
	}

	for _, segment := range te.traced {
		buf.WriteByte('\n')
		buf.WriteString(Delimiter)

		for _, frame := range segment {
			writeFrame(buf, frame)
		}
	}

	return buf.String()
}

func (te *TracedError) trace(stack errors.StackTrace) *TracedError {
	te.traced = append(te.traced, stack)
	return te
}

// promote wraps a foreign $err into a *TracedError (or returns $err itself if it already is one),
// seeding $native from the cause's own stack where available.
func promote(err error) *TracedError {
	if te, ok := err.(*TracedError); ok {
		return te
	}

	te := &TracedError{message: err.Error(), cause: err}
	if st, ok := err.(StackTracer); ok {
		te.native = st.StackTrace()
	}

	return te
}
