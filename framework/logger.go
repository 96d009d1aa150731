package framework

import (
	"fmt"
	"io"
	"strings"
)

// CapturedOutput is the debug output of one test case, one entry per Printf call.
type CapturedOutput []string

// CapturingLogger buffers debug output for a test case. The comparison is single-threaded, so
// it does no locking.
type CapturingLogger struct {
	output CapturedOutput
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.output = append(l.output, fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) Output() CapturedOutput {
	return append(CapturedOutput(nil), l.output...)
}

// Dump writes every message with the given prefix. Continuation lines of multi-line messages
// are prefixed too.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		for _, line := range strings.Split(strings.TrimRight(m, "\n"), "\n") {
			fmt.Fprintf(dest, "%s%s\n", prefix, line)
		}
	}
}
