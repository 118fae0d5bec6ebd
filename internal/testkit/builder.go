// Package testkit builds typed, symbol-resolved programs for tests, standing
// in for the front end.
package testkit

import (
	"strconv"
	"strings"

	"pascalc/internal/ast"
	"pascalc/internal/symbols"
	"pascalc/internal/types"
)

// Builder accumulates the type table, symbol table and routines of one
// program.
type Builder struct {
	Name  string
	Types *types.Interner
	Syms  *symbols.Table
	B     types.Builtins
	Prog  symbols.SymbolID

	routines []ast.Routine
}

// NewProgram starts a program called name.
func NewProgram(name string) *Builder {
	in := types.NewInterner()
	syms := symbols.NewTable(64)
	b := &Builder{Name: name, Types: in, Syms: syms, B: in.Builtins()}
	b.Prog = syms.Add(symbols.Symbol{Name: name, Kind: symbols.SymbolProgram})
	return b
}

// Global declares a program-level (static) variable.
func (b *Builder) Global(name string, t types.TypeID) symbols.SymbolID {
	id := b.Syms.Add(symbols.Symbol{Name: name, Kind: symbols.SymbolVariable, Type: t})
	prog := b.Syms.MustGet(b.Prog)
	prog.Locals = append(prog.Locals, id)
	return id
}

// Const declares an integer-like constant.
func (b *Builder) Const(name string, t types.TypeID, v int64) symbols.SymbolID {
	return b.Syms.Add(symbols.Symbol{Name: name, Kind: symbols.SymbolConstant, Type: t, Value: v})
}

// Enum declares an enumeration type and its constants.
func (b *Builder) Enum(name string, consts ...string) (types.TypeID, []symbols.SymbolID) {
	t := b.Types.Intern(types.MakeEnum(name, consts...))
	ids := make([]symbols.SymbolID, len(consts))
	for i, c := range consts {
		ids[i] = b.Syms.Add(symbols.Symbol{Name: c, Kind: symbols.SymbolEnumConstant, Type: t, Value: int64(i)})
	}
	return t, ids
}

// Array declares array[low..high] of elem.
func (b *Builder) Array(elem types.TypeID, low, high int64) types.TypeID {
	return b.Types.Intern(types.MakeArray(elem, low, high))
}

// Record declares a record type and a field symbol per member.
func (b *Builder) Record(name string, fields ...types.Field) (types.TypeID, map[string]symbols.SymbolID) {
	t := b.Types.Intern(types.MakeRecord(name, fields...))
	ids := make(map[string]symbols.SymbolID, len(fields))
	for _, f := range fields {
		ids[f.Name] = b.Syms.Add(symbols.Symbol{Name: f.Name, Kind: symbols.SymbolField, Type: f.Type, Record: t})
	}
	return t, ids
}

// Param is a formal parameter declaration.
type Param struct {
	Name string
	Type types.TypeID
}

// P is shorthand for a Param.
func P(name string, t types.TypeID) Param { return Param{Name: name, Type: t} }

// Routine declares a procedure or function and lets its locals and body be
// added.
type Routine struct {
	b        *Builder
	ID       symbols.SymbolID
	Params   []symbols.SymbolID
	nextSlot int
}

func (b *Builder) routine(name string, kind symbols.SymbolKind, ret types.TypeID, params []Param) *Routine {
	id := b.Syms.Add(symbols.Symbol{Name: name, Kind: kind, Type: ret, Level: 1})
	r := &Routine{b: b, ID: id}
	for i, p := range params {
		pid := b.Syms.Add(symbols.Symbol{Name: p.Name, Kind: symbols.SymbolParam, Type: p.Type, Level: 2, Slot: i})
		r.Params = append(r.Params, pid)
	}
	r.nextSlot = len(params)
	sym := b.Syms.MustGet(id)
	sym.Params = append([]symbols.SymbolID(nil), r.Params...)
	if kind == symbols.SymbolFunction {
		sym.Slot = r.nextSlot
		r.nextSlot++
	}
	return r
}

// Procedure declares a procedure.
func (b *Builder) Procedure(name string, params ...Param) *Routine {
	return b.routine(name, symbols.SymbolProcedure, b.B.Void, params)
}

// Function declares a function returning ret.
func (b *Builder) Function(name string, ret types.TypeID, params ...Param) *Routine {
	return b.routine(name, symbols.SymbolFunction, ret, params)
}

// Local declares a routine-local variable in the next free slot.
func (r *Routine) Local(name string, t types.TypeID) symbols.SymbolID {
	id := r.b.Syms.Add(symbols.Symbol{Name: name, Kind: symbols.SymbolVariable, Type: t, Level: 2, Slot: r.nextSlot})
	r.nextSlot++
	sym := r.b.Syms.MustGet(r.ID)
	sym.Locals = append(sym.Locals, id)
	return id
}

// Body sets the routine's statements.
func (r *Routine) Body(stmts ...*ast.Stmt) {
	r.b.routines = append(r.b.routines, ast.Routine{Sym: r.ID, Body: Block(stmts...)})
}

// Program assembles the program with the given main block.
func (b *Builder) Program(main ...*ast.Stmt) *ast.Program {
	return &ast.Program{
		Name:     b.Name,
		Sym:      b.Prog,
		Routines: append([]ast.Routine(nil), b.routines...),
		Main:     Block(main...),
	}
}

// Expressions ---------------------------------------------------------------

func (b *Builder) Int(v int64) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprIntLit, Type: b.B.Integer, Int: v, Text: strconv.FormatInt(v, 10)}
}

func (b *Builder) Real(v float64) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprRealLit, Type: b.B.Real, Real: v, Text: strconv.FormatFloat(v, 'g', -1, 32)}
}

func (b *Builder) Char(r rune) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprCharLit, Type: b.B.Char, Int: int64(r), Text: quote(string(r))}
}

func (b *Builder) Str(s string) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprStringLit, Type: b.B.String, Str: s, Text: quote(s)}
}

func (b *Builder) Bool(v bool) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprBoolLit, Type: b.B.Boolean, Bool: v, Text: strconv.FormatBool(v)}
}

func quote(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

// Ref is a plain reference to a variable, parameter or function result.
func (b *Builder) Ref(id symbols.SymbolID) *ast.Variable {
	return &ast.Variable{Sym: id, Type: b.Syms.MustGet(id).Type}
}

// Index appends a subscript to v.
func (b *Builder) Index(v *ast.Variable, idx *ast.Expr) *ast.Variable {
	arr := b.Types.MustLookup(v.Type)
	out := &ast.Variable{Sym: v.Sym, Type: arr.Elem, Modifiers: append(append([]ast.Modifier(nil), v.Modifiers...),
		ast.Modifier{Kind: ast.ModIndex, Index: idx, Type: arr.Elem})}
	return out
}

// Field appends a field access to v.
func (b *Builder) Field(v *ast.Variable, field symbols.SymbolID) *ast.Variable {
	ft := b.Syms.MustGet(field).Type
	return &ast.Variable{Sym: v.Sym, Type: ft, Modifiers: append(append([]ast.Modifier(nil), v.Modifiers...),
		ast.Modifier{Kind: ast.ModField, Field: field, Type: ft})}
}

// Load turns a variable reference into an expression.
func (b *Builder) Load(v *ast.Variable) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprVar, Type: v.Type, Var: v}
}

// V loads a plain variable.
func (b *Builder) V(id symbols.SymbolID) *ast.Expr { return b.Load(b.Ref(id)) }

// Bin builds a binary expression with the type the front end would infer.
func (b *Builder) Bin(op ast.BinaryOp, l, r *ast.Expr) *ast.Expr {
	t := b.B.Integer
	switch {
	case op.IsRelational(), op == ast.OpAnd, op == ast.OpOr:
		t = b.B.Boolean
	case op == ast.OpSlash, b.Types.IsReal(l.Type), b.Types.IsReal(r.Type):
		t = b.B.Real
	}
	return &ast.Expr{Kind: ast.ExprBinary, Type: t, Op: op, Left: l, Right: r}
}

func (b *Builder) Not(e *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprUnary, Type: b.B.Boolean, Unary: ast.UnaryNot, Operand: e}
}

func (b *Builder) Neg(e *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprUnary, Type: e.Type, Unary: ast.UnaryNeg, Operand: e}
}

// Call invokes a function as an expression.
func (b *Builder) Call(fn symbols.SymbolID, args ...*ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprCall, Type: b.Syms.ReturnType(fn, b.Types), Call: &ast.Call{Routine: fn, Args: args}}
}

// Statements ----------------------------------------------------------------

func Block(stmts ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtCompound, Compound: stmts}
}

func Assign(v *ast.Variable, e *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtAssign, Assign: &ast.AssignStmt{Target: v, Value: e}}
}

// Set assigns to a plain variable.
func (b *Builder) Set(id symbols.SymbolID, e *ast.Expr) *ast.Stmt { return Assign(b.Ref(id), e) }

func If(cond *ast.Expr, then, els *ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtIf, If: &ast.IfStmt{Cond: cond, Then: then, Else: els}}
}

// Branch is a case branch; a nil body leaves it without one.
func Branch(body *ast.Stmt, values ...int64) ast.CaseBranch {
	return ast.CaseBranch{Values: values, Body: body}
}

func Case(sel *ast.Expr, branches ...ast.CaseBranch) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtCase, Case: &ast.CaseStmt{Selector: sel, Branches: branches}}
}

func Repeat(cond *ast.Expr, body ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtRepeat, Repeat: &ast.RepeatStmt{Body: body, Cond: cond}}
}

func While(cond *ast.Expr, body *ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtWhile, While: &ast.WhileStmt{Cond: cond, Body: body}}
}

func (b *Builder) For(id symbols.SymbolID, start, end *ast.Expr, body *ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtFor, For: &ast.ForStmt{Var: b.Ref(id), Start: start, End: end, Body: body}}
}

func (b *Builder) Downto(id symbols.SymbolID, start, end *ast.Expr, body *ast.Stmt) *ast.Stmt {
	s := b.For(id, start, end, body)
	s.For.Downto = true
	return s
}

func ProcCall(proc symbols.SymbolID, args ...*ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtProcCall, Call: &ast.Call{Routine: proc, Args: args}}
}

func FuncCall(fn symbols.SymbolID, args ...*ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtFuncCall, Call: &ast.Call{Routine: fn, Args: args}}
}

// Arg is a write argument without a field width.
func Arg(e *ast.Expr) ast.WriteArg { return ast.WriteArg{Expr: e} }

// ArgW is a write argument with width and, when prec >= 0, precision.
func ArgW(e *ast.Expr, width, prec int) ast.WriteArg {
	fw := &ast.FieldWidth{Width: width}
	if width < 0 {
		fw.Negative, fw.Width = true, -width
	}
	if prec >= 0 {
		fw.HasPrecision, fw.Precision = true, prec
	}
	return ast.WriteArg{Expr: e, Width: fw}
}

func Write(args ...ast.WriteArg) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtWrite, Write: &ast.WriteStmt{Args: args}}
}

func Writeln(args ...ast.WriteArg) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtWriteln, Write: &ast.WriteStmt{Args: args}}
}

func Read(vars ...*ast.Variable) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtRead, Read: &ast.ReadStmt{Targets: vars}}
}

func Readln(vars ...*ast.Variable) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtReadln, Read: &ast.ReadStmt{Targets: vars}}
}
