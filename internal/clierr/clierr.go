// Package clierr pretty-prints equation parse errors for the CLI,
// adapted from CWBudde-go-dws/internal/errors's CompilerError.Format:
// the source line plus a caret under the failing position. Equation
// strings are single-line, so this is the line/column formatter
// collapsed to one line and a byte offset.
package clierr

import (
	"fmt"
	"strings"

	"github.com/bfix/sysdyn/internal/model"
)

// Format renders a model.ParseError as a source line with a caret
// pointing at the offending position, followed by the message. Other
// error types are rendered with their plain Error() text.
func Format(err error) string {
	pe, ok := err.(*model.ParseError)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "parse error at column %d:\n", pe.Pos+1)
	sb.WriteString("    ")
	sb.WriteString(pe.Source)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", 4+pe.Pos))
	sb.WriteString("^\n")
	sb.WriteString(pe.Message)
	return sb.String()
}
