package codegen

import (
	"fmt"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/label"
	"pascalc/internal/symbols"
	"pascalc/internal/trace"
	"pascalc/internal/types"
)

// ExprEmitter emits code that leaves exactly one value of e's resolved type
// on the operand stack.
type ExprEmitter interface {
	EmitExpr(g *Generator, e *ast.Expr) error
}

// Options configures statement lowering.
type Options struct {
	// Namespace prefixes call targets and static field references.
	Namespace string

	// GeneralWhileConditions accepts any boolean while condition and lowers
	// it like an if condition. Off, only a top-level relational comparison
	// is accepted.
	GeneralWhileConditions bool

	// GeneralForStart evaluates a non-literal for-loop start bound. Off,
	// the start bound must be a literal.
	GeneralForStart bool

	// Exprs replaces the built-in expression lowering.
	Exprs ExprEmitter

	Tracer trace.Tracer
	// Parent is the trace span statement points nest under.
	Parent uint64
}

// DefaultExprs is the built-in expression lowering. Custom emitters may
// delegate to it; nested operands still go through Generator.EmitExpr.
var DefaultExprs ExprEmitter = exprEmitter{}

// Generator lowers the statements of one routine into a sink.
type Generator struct {
	opts    Options
	types   *types.Interner
	syms    *symbols.Table
	sink    bytecode.Sink
	labels  *label.Arena
	exprs   ExprEmitter
	routine symbols.SymbolID // NoSymbolID while lowering the main block
	stats   Stats
}

// New returns a Generator emitting into sink with labels allocated from
// labels. A nil arena uses the sink's own when it is a *bytecode.Buffer.
func New(in *types.Interner, syms *symbols.Table, sink bytecode.Sink, labels *label.Arena, opts Options) *Generator {
	if labels == nil {
		if buf, ok := sink.(*bytecode.Buffer); ok {
			labels = buf.Labels()
		} else {
			labels = label.NewArena()
		}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	g := &Generator{
		opts:   opts,
		types:  in,
		syms:   syms,
		sink:   sink,
		labels: labels,
		exprs:  opts.Exprs,
	}
	if g.exprs == nil {
		g.exprs = DefaultExprs
	}
	return g
}

// ForRoutine switches g to the body of routine, which decides where a
// function's result is stored.
func (g *Generator) ForRoutine(routine symbols.SymbolID) *Generator {
	g.routine = routine
	return g
}

func (g *Generator) Types() *types.Interner          { return g.types }
func (g *Generator) Symbols() *symbols.Table         { return g.syms }
func (g *Generator) Sink() bytecode.Sink             { return g.sink }
func (g *Generator) Namespace() string               { return g.opts.Namespace }
func (g *Generator) Stats() Stats                    { return g.stats }
func (g *Generator) emit(in bytecode.Instr)          { g.sink.Emit(in) }
func (g *Generator) define(l label.ID)               { g.sink.Define(l) }
func (g *Generator) newLabel() label.ID              { return g.labels.New() }
func (g *Generator) simple(op bytecode.Op)           { g.sink.Emit(bytecode.Simple(op)) }
func (g *Generator) jump(op bytecode.Op, l label.ID) { g.sink.Emit(bytecode.Branch(op, l)) }

// EmitExpr lowers e through the configured expression emitter.
func (g *Generator) EmitExpr(e *ast.Expr) error {
	if e == nil {
		return diag.Internal(diag.ICEUnsupportedExpr, "expr", "missing expression")
	}
	if err := g.exprs.EmitExpr(g, e); err != nil {
		if ice, ok := diag.AsInternal(err); ok {
			ice.AtLine(e.Line)
		}
		return err
	}
	return nil
}

// LowerStmts lowers a statement sequence in order.
func (g *Generator) LowerStmts(list []*ast.Stmt) error {
	for _, s := range list {
		if err := g.LowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// LowerStmt dispatches s to the lowering routine for its kind.
func (g *Generator) LowerStmt(s *ast.Stmt) error {
	if s == nil {
		return nil
	}
	if int(s.Kind) < len(g.stats.Statements) {
		g.stats.Statements[s.Kind]++
	}
	trace.Point(g.opts.Tracer, trace.ScopeStmt, "stmt:"+s.Kind.String(), lineDetail(s.Line), g.opts.Parent)

	var err error
	switch s.Kind {
	case ast.StmtEmpty:
	case ast.StmtCompound:
		err = g.LowerStmts(s.Compound)
	case ast.StmtAssign:
		err = g.lowerAssign(s.Assign)
	case ast.StmtIf:
		err = g.lowerIf(s.If)
	case ast.StmtCase:
		err = g.lowerCase(s.Case)
	case ast.StmtRepeat:
		err = g.lowerRepeat(s.Repeat)
	case ast.StmtWhile:
		err = g.lowerWhile(s.While)
	case ast.StmtFor:
		err = g.lowerFor(s.For)
	case ast.StmtProcCall:
		err = g.lowerProcCall(s.Call)
	case ast.StmtFuncCall:
		err = g.lowerFuncCall(s.Call)
	case ast.StmtWrite:
		err = g.lowerWrite(s.Write, false)
	case ast.StmtWriteln:
		err = g.lowerWrite(s.Write, true)
	case ast.StmtRead:
		err = g.lowerRead(s.Read, false)
	case ast.StmtReadln:
		err = g.lowerRead(s.Read, true)
	default:
		err = diag.Internal(diag.ICEUnsupportedStmt, "dispatch", "no lowering for statement kind %s", s.Kind)
	}
	if err == nil {
		err = g.sink.Err()
	}
	if err != nil {
		if ice, ok := diag.AsInternal(err); ok {
			ice.AtLine(s.Line)
		}
		return err
	}
	return nil
}

// payload reports a statement whose kind-specific payload is missing.
func payload(kind ast.StmtKind) error {
	return diag.Internal(diag.ICEUnsupportedStmt, kind.String(), "statement has no %s payload", kind)
}

func lineDetail(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d", line)
}

// symbol resolves id or fails with ICEUnresolvedSymbol.
func (g *Generator) symbol(op string, id symbols.SymbolID) (*symbols.Symbol, error) {
	sym, ok := g.syms.Get(id)
	if !ok {
		return nil, diag.Internal(diag.ICEUnresolvedSymbol, op, "symbol %d is not in the table", id)
	}
	return sym, nil
}
