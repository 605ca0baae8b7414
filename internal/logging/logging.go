// Package logging is the ambient logging layer, adapted from
// bfix-dynamo/src/dynamo/output.go's Msg/Msgf/Debugger idiom,
// generalized beyond DYNAMO program messages to this engine's run
// diagnostics. The engine packages emit one kind, a Warnf on
// Backward-Euler non-convergence; none of them writes to the Debugf
// stream. Plain log is
// kept rather than reaching for a structured-logging dependency that
// has no precedent to build from.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Msg writes a plain message to the default logger.
func Msg(msg string) { std.Println(msg) }

// Msgf writes a formatted message to the default logger.
func Msgf(format string, args ...interface{}) { std.Printf(format, args...) }

// Debugger optionally tees verbose run diagnostics to a second
// stream (a file, stdout, or nothing), separate from the default
// stderr logger. SetDebugWriter accepts any io.Writer, not just a
// named file.
type Debugger struct {
	w io.Writer
}

var debug *Debugger

// SetDebugWriter directs verbose diagnostics to w (nil disables it).
func SetDebugWriter(w io.Writer) { debug = &Debugger{w: w} }

// SetDebugFile opens path and directs verbose diagnostics to it; ""
// disables debugging, "-" writes to stdout.
func SetDebugFile(path string) error {
	if path == "" {
		debug = nil
		return nil
	}
	if path == "-" {
		SetDebugWriter(os.Stdout)
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	SetDebugWriter(f)
	return nil
}

// Debugf writes a formatted diagnostic to the debug stream, if one is
// configured; otherwise it is a no-op.
func Debugf(format string, args ...interface{}) {
	if debug == nil || debug.w == nil {
		return
	}
	fmt.Fprintf(debug.w, format, args...)
}

// Warnf writes a formatted warning to the default logger, used for
// out-of-band diagnostics such as Backward-Euler non-convergence
// ("Warnings... are out-of-band diagnostics").
func Warnf(format string, args ...interface{}) {
	std.Printf("WARNING: "+format, args...)
}
