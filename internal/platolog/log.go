// Package platolog is a small leveled logger over stderr: a severity
// tag plus a printf-style writer, trimmed down to what a
// single-threaded event loop needs.
package platolog

import (
	"fmt"
	"os"
	"time"
)

type Color int

const (
	Info Color = iota
	Error
	Debug
	Xmit
)

var colorPrefix = map[Color]string{
	Info:  "",
	Error: "E: ",
	Debug: "D: ",
	Xmit:  "T: ",
}

// Logger writes leveled, timestamped lines to an output stream.
// Debug lines are suppressed unless Debug is enabled.
type Logger struct {
	out   *os.File
	debug bool
}

func New(out *os.File, debug bool) *Logger {
	return &Logger{out: out, debug: debug}
}

func (l *Logger) SetDebug(debug bool) {
	l.debug = debug
}

// Printf writes a line tagged with c. It takes a raw format string
// rather than structured fields -- this loop logs prose, not events.
func (l *Logger) Printf(c Color, format string, args ...any) {
	if c == Debug && !l.debug {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.out, "%s %s%s\n", ts, colorPrefix[c], fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any)  { l.Printf(Info, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.Printf(Error, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.Printf(Debug, format, args...) }
func (l *Logger) Xmit(format string, args ...any)  { l.Printf(Xmit, format, args...) }
