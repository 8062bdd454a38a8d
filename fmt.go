package tracerr

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// FmtStateToString converts $fs to its fmt.Printf() representation (see unit tests).
func FmtStateToString(fs fmt.State) string {
	format := &bytes.Buffer{}

	for _, flag := range []byte{'+', '-', '#', ' ', '0'} {
		if fs.Flag(int(flag)) {
			format.WriteByte(flag)
		}
	}

	if width, ok := fs.Width(); ok {
		format.WriteString(strconv.FormatInt(int64(width), 10))
	}

	if precision, ok := fs.Precision(); ok {
		format.WriteByte('.')
		format.WriteString(strconv.FormatInt(int64(precision), 10))
	}

	return format.String()
}

// FormatNonFormatter forwards $fs and $verb to $nonFormatter.Format() if $nonFormatter is a fmt.Formatter.
// Otherwise it formats $nonFormatter via fmt.Fprintf() as specified by $fs and $verb.
func FormatNonFormatter(fs fmt.State, verb rune, nonFormatter interface{}) {
	if formatter, ok := nonFormatter.(fmt.Formatter); ok {
		formatter.Format(fs, verb)
	} else {
		format := &bytes.Buffer{}

		format.WriteByte('%')
		format.WriteString(FmtStateToString(fs))
		format.WriteRune(verb)

		fmt.Fprintf(fs, format.String(), nonFormatter)
	}
}

var _ fmt.Formatter = (*TracedError)(nil)

// Format renders the full Stack() for %+v, just the message for %v and %s
// and the message as specified by $fs and $verb for anything else.
func (te *TracedError) Format(fs fmt.State, verb rune) {
	switch verb {
	case 'v':
		if fs.Flag('+') {
			io.WriteString(fs, te.Stack())
			return
		}

		fallthrough
	case 's':
		io.WriteString(fs, te.message)
	default:
		FormatNonFormatter(fs, verb, te.message)
	}
}

// writeFrame renders $frame to $buf as one line: "\tat Func (file.go:42)".
func writeFrame(buf *bytes.Buffer, frame errors.Frame) {
	fs := &Formatable{Output: buf}

	buf.WriteString("\n\tat ")
	frame.Format(fs, 'n')
	buf.WriteString(" (")
	frame.Format(fs, 's')
	buf.WriteByte(':')
	frame.Format(fs, 'd')
	buf.WriteByte(')')
}

// Formatable may be used instead of fmt.Fprintf() for exactly one fmt.Formatter.
type Formatable struct {
	// Output is the actual writer.
	Output io.Writer
	// Error is the first write error, decorated with its call site.
	Error ErrorWithStack

	Wid     int
	Prec    int
	HasWid  bool
	HasPrec bool
	Flags   map[int]struct{}
}

var _ fmt.State = (*Formatable)(nil)

func (f *Formatable) Write(b []byte) (n int, err error) {
	n, err = f.Output.Write(b)
	if err != nil {
		te := promote(err).trace(GetStack(1))
		err = te

		if f.Error == nil {
			f.Error = te
		}
	}

	return
}

func (f *Formatable) Width() (int, bool) {
	return f.Wid, f.HasWid
}

func (f *Formatable) Precision() (int, bool) {
	return f.Prec, f.HasPrec
}

func (f *Formatable) Flag(c int) bool {
	_, ok := f.Flags[c]
	return ok
}
