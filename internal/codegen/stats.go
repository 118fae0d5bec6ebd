package codegen

import "pascalc/internal/ast"

// CallSite describes one encoded static invocation.
type CallSite struct {
	Target    string // namespace/name(params)ret
	Arity     int
	Widenings int // I2F conversions inserted for real formals
	Void      bool
}

// Stats accumulates per-generator lowering counters. Generators never share
// Stats; LowerProgram merges them after each routine.
type Stats struct {
	Statements [ast.StmtKindCount]int
	Calls      int
	Args       int
	Widenings  int // all I2F inserted for calls and assignments
	Switches   int
	SwitchKeys int
	Labels     int
}

func (s *Stats) addCall(cs CallSite) {
	s.Calls++
	s.Args += cs.Arity
	s.Widenings += cs.Widenings
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	for i := range s.Statements {
		s.Statements[i] += o.Statements[i]
	}
	s.Calls += o.Calls
	s.Args += o.Args
	s.Widenings += o.Widenings
	s.Switches += o.Switches
	s.SwitchKeys += o.SwitchKeys
	s.Labels += o.Labels
}

// TotalStatements is the number of statements lowered.
func (s *Stats) TotalStatements() int {
	n := 0
	for _, c := range s.Statements {
		n += c
	}
	return n
}
