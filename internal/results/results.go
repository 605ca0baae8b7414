// Package results implements the run output container: a parallel
// times/states sequence with per-variable series extraction, plus a
// CSV exporter adapted from bfix-dynamo/src/dynamo/output.go's Printer
// row-writer, generalized from DYNAMO's PRINT-statement column spec to
// "every stock, flow and auxiliary in sorted-name order".
package results

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bfix/sysdyn/internal/simstate"
)

// Results is the time-indexed sequence of recorded states.
type Results struct {
	Times  []float64
	States []*simstate.State
}

// New returns an empty Results container.
func New() *Results {
	return &Results{}
}

// Record appends one (time, state) pair.
func (r *Results) Record(time float64, st *simstate.State) {
	r.Times = append(r.Times, time)
	r.States = append(r.States, st)
}

// Series walks the recorded states and, for the given variable name,
// returns its value at each recorded time: stocks first, then flows,
// then auxiliaries (first hit wins). Returns (nil, false) if any
// state lacks the name entirely.
func (r *Results) Series(name string) ([]float64, bool) {
	out := make([]float64, len(r.States))
	for i, st := range r.States {
		v, ok := st.Stock(name)
		if !ok {
			v, ok = st.Flow(name)
		}
		if !ok {
			v, ok = st.Auxiliary(name)
		}
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// WriteCSV writes one header row ("time" plus every stock, flow and
// auxiliary name in sorted order) followed by one row per recorded
// state.
func (r *Results) WriteCSV(w io.Writer, stockNames, flowNames, auxNames []string) error {
	header := append([]string{"time"}, stockNames...)
	header = append(header, flowNames...)
	header = append(header, auxNames...)
	if _, err := fmt.Fprintln(w, strings.Join(header, ",")); err != nil {
		return err
	}
	for i, t := range r.Times {
		st := r.States[i]
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%g", t))
		for _, name := range stockNames {
			v, _ := st.Stock(name)
			row = append(row, fmt.Sprintf("%g", v))
		}
		for _, name := range flowNames {
			v, _ := st.Flow(name)
			row = append(row, fmt.Sprintf("%g", v))
		}
		for _, name := range auxNames {
			v, _ := st.Auxiliary(name)
			row = append(row, fmt.Sprintf("%g", v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, ",")); err != nil {
			return err
		}
	}
	return nil
}

// sortedCopy returns a sorted copy of names, used by callers that
// assemble the name lists passed to WriteCSV from an unordered
// source.
func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// SortedNames exposes sortedCopy for callers outside this package.
func SortedNames(names []string) []string { return sortedCopy(names) }
