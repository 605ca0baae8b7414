package model

import (
	"sort"

	"github.com/google/uuid"
)

// TimeConfig fixes the simulated interval and step size.
type TimeConfig struct {
	Start, Stop, Dt float64
	Units           string
}

// Stock is a state variable accumulating inflows minus outflows.
type Stock struct {
	Name        string
	Initial     Expr
	Inflows     []string
	Outflows    []string
	NonNegative bool
	HasMax      bool
	MaxValue    float64
}

// Flow is a rate variable.
type Flow struct {
	Name     string
	Equation Expr
}

// Auxiliary is a named intermediate quantity.
type Auxiliary struct {
	Name     string
	Equation Expr
}

// Parameter is a named, run-immutable (but between-run mutable)
// constant.
type Parameter struct {
	Name  string
	Value float64
}

// Metadata carries the model's descriptive, non-semantic fields.
type Metadata struct {
	Name        string
	Description string
}

// Model is the immutable (for the duration of a run) bundle of
// stocks, flows, auxiliaries, parameters and lookup tables (component
// F). The Add* methods reject duplicate names within each kind;
// Validate checks that every inflow/outflow name resolves to a flow.
type Model struct {
	Metadata Metadata
	Time     TimeConfig

	stocks      map[string]*Stock
	flows       map[string]*Flow
	auxiliaries map[string]*Auxiliary
	parameters  map[string]*Parameter
	lookups     map[string]*LookupTable

	stockNames []string
	flowNames  []string
	auxNames   []string

	// callSites maps a call-site text key (function name + printed
	// argument expressions) to a stable identifier computed once at
	// construction time via a deterministic (non-random)
	// SHA1-namespaced UUID, so the evaluator never re-derives or
	// re-prints call-site identity at every step.
	callSites map[string]string
}

// callSiteNamespace is a fixed, arbitrary namespace UUID used to
// derive deterministic per-call-site identifiers; any fixed value
// works as long as it is stable across runs.
var callSiteNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewModel constructs an empty Model ready to receive stocks, flows,
// auxiliaries, parameters and lookup tables.
func NewModel(meta Metadata, timeCfg TimeConfig) *Model {
	return &Model{
		Metadata:    meta,
		Time:        timeCfg,
		stocks:      make(map[string]*Stock),
		flows:       make(map[string]*Flow),
		auxiliaries: make(map[string]*Auxiliary),
		parameters:  make(map[string]*Parameter),
		lookups:     make(map[string]*LookupTable),
		callSites:   make(map[string]string),
	}
}

func (m *Model) AddStock(s *Stock) error {
	if _, exists := m.stocks[s.Name]; exists {
		return &ModelValidationError{Message: "duplicate stock name: " + s.Name}
	}
	m.stocks[s.Name] = s
	m.stockNames = append(m.stockNames, s.Name)
	sort.Strings(m.stockNames)
	return nil
}

func (m *Model) AddFlow(f *Flow) error {
	if _, exists := m.flows[f.Name]; exists {
		return &ModelValidationError{Message: "duplicate flow name: " + f.Name}
	}
	m.flows[f.Name] = f
	m.flowNames = append(m.flowNames, f.Name)
	sort.Strings(m.flowNames)
	return nil
}

func (m *Model) AddAuxiliary(a *Auxiliary) error {
	if _, exists := m.auxiliaries[a.Name]; exists {
		return &ModelValidationError{Message: "duplicate auxiliary name: " + a.Name}
	}
	m.auxiliaries[a.Name] = a
	m.auxNames = append(m.auxNames, a.Name)
	sort.Strings(m.auxNames)
	return nil
}

func (m *Model) AddParameter(p *Parameter) error {
	if _, exists := m.parameters[p.Name]; exists {
		return &ModelValidationError{Message: "duplicate parameter name: " + p.Name}
	}
	m.parameters[p.Name] = p
	return nil
}

func (m *Model) AddLookupTable(t *LookupTable) error {
	if _, exists := m.lookups[t.Name]; exists {
		return &ModelValidationError{Message: "duplicate lookup table name: " + t.Name}
	}
	m.lookups[t.Name] = t
	return nil
}

// Validate checks the cross-collection invariants: every
// inflow/outflow name resolves to a flow, dt > 0, stop >= start.
func (m *Model) Validate() error {
	if m.Time.Dt <= 0 {
		return &ModelValidationError{Message: "dt must be > 0"}
	}
	if m.Time.Stop < m.Time.Start {
		return &ModelValidationError{Message: "stop must be >= start"}
	}
	for _, name := range m.stockNames {
		s := m.stocks[name]
		for _, f := range s.Inflows {
			if _, ok := m.flows[f]; !ok {
				return &MissingFlowError{StockName: s.Name, FlowName: f}
			}
		}
		for _, f := range s.Outflows {
			if _, ok := m.flows[f]; !ok {
				return &MissingFlowError{StockName: s.Name, FlowName: f}
			}
		}
	}
	return nil
}

func (m *Model) Stock(name string) (*Stock, bool)         { s, ok := m.stocks[name]; return s, ok }
func (m *Model) Flow(name string) (*Flow, bool)           { f, ok := m.flows[name]; return f, ok }
func (m *Model) Auxiliary(name string) (*Auxiliary, bool) { a, ok := m.auxiliaries[name]; return a, ok }
func (m *Model) Parameter(name string) (*Parameter, bool) { p, ok := m.parameters[name]; return p, ok }
func (m *Model) Table(name string) (*LookupTable, bool)   { t, ok := m.lookups[name]; return t, ok }

// SetParameter mutates a parameter's value between runs.
func (m *Model) SetParameter(name string, value float64) error {
	p, ok := m.parameters[name]
	if !ok {
		return &ModelValidationError{Message: "no such parameter: " + name}
	}
	p.Value = value
	return nil
}

// StockNames, FlowNames and AuxNames return the sorted name
// slices every deterministic-order evaluation loop walks.
func (m *Model) StockNames() []string { return m.stockNames }
func (m *Model) FlowNames() []string  { return m.flowNames }
func (m *Model) AuxNames() []string   { return m.auxNames }

// CompileCallSites walks every stock initial, flow and auxiliary
// equation and assigns a stable identifier to each delay- or
// noise-bearing call site, keyed by function name plus printed
// argument text. Must be called once after all equations are added
// and before the first step.
func (m *Model) CompileCallSites() {
	walk := func(e Expr) {
		var visit func(Expr)
		visit = func(e Expr) {
			switch n := e.(type) {
			case *BinaryOp:
				visit(n.Left)
				visit(n.Right)
			case *UnaryOp:
				visit(n.Operand)
			case *Conditional:
				visit(n.Cond)
				visit(n.Then)
				visit(n.Else)
			case *FunctionCall:
				if isStatefulFunction(n.Name) {
					key := CallSiteKey(n.Name, n.Args)
					if _, ok := m.callSites[key]; !ok {
						m.callSites[key] = uuid.NewSHA1(callSiteNamespace, []byte(key)).String()
					}
				}
				for _, a := range n.Args {
					visit(a)
				}
			}
		}
		visit(e)
	}
	for _, name := range m.stockNames {
		walk(m.stocks[name].Initial)
	}
	for _, name := range m.flowNames {
		walk(m.flows[name].Equation)
	}
	for _, name := range m.auxNames {
		walk(m.auxiliaries[name].Equation)
	}
}

// CallSiteID returns the compiled identifier for a call expression,
// falling back to the raw printed key if CompileCallSites was never
// run against this exact tree (e.g. an expression built dynamically
// after construction).
func (m *Model) CallSiteID(call *FunctionCall) string {
	key := CallSiteKey(call.Name, call.Args)
	if id, ok := m.callSites[key]; ok {
		return id
	}
	return key
}

func isStatefulFunction(name string) bool {
	switch upperASCII(name) {
	case "DELAY1", "DELAY3", "DELAYP", "SMOOTH", "WHITE_NOISE", "PINK_NOISE", "PINK_NOISE_HQ":
		return true
	}
	return false
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
