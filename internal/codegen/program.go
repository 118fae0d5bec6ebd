package codegen

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/symbols"
	"pascalc/internal/trace"
	"pascalc/internal/types"
)

const (
	mainName = "main"
	mainDesc = "([Ljava/lang/String;)V"
)

// ProgramOptions configures LowerProgram.
type ProgramOptions struct {
	Options

	// Jobs bounds how many routines lower concurrently; 0 means GOMAXPROCS.
	Jobs int
}

// Lowered is the result of lowering one program.
type Lowered struct {
	Class *bytecode.Class
	Stats Stats
}

// LowerProgram lowers every routine of prog and its main block into one
// class named by the namespace. Routines share nothing mutable and are
// lowered concurrently.
func LowerProgram(ctx context.Context, prog *ast.Program, in *types.Interner, syms *symbols.Table, opts ProgramOptions) (*Lowered, error) {
	if prog == nil {
		return nil, fmt.Errorf("codegen: nil program")
	}
	if opts.Namespace == "" {
		opts.Namespace = prog.Name
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}
	if opts.Parent == 0 {
		opts.Parent = trace.ParentFrom(ctx)
	}
	progSym, err := programSymbol(prog, syms)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// slot len(prog.Routines) holds main
	methods := make([]*bytecode.Method, len(prog.Routines)+1)
	stats := make([]Stats, len(prog.Routines)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range prog.Routines {
		r := &prog.Routines[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, st, err := lowerRoutine(in, syms, r, opts.Options)
			if err != nil {
				return err
			}
			methods[i], stats[i] = m, st
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		m, st, err := lowerMain(in, syms, prog, progSym, opts.Options)
		if err != nil {
			return err
		}
		methods[len(prog.Routines)], stats[len(prog.Routines)] = m, st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Lowered{Class: &bytecode.Class{
		Name:    opts.Namespace,
		Super:   "java/lang/Object",
		Fields:  staticFields(in, syms, progSym),
		Methods: methods,
		Records: recordClasses(in),
	}}
	for i := range stats {
		out.Stats.Merge(stats[i])
	}
	return out, nil
}

func programSymbol(prog *ast.Program, syms *symbols.Table) (*symbols.Symbol, error) {
	if !prog.Sym.IsValid() {
		return &symbols.Symbol{Name: prog.Name, Kind: symbols.SymbolProgram}, nil
	}
	sym, ok := syms.Get(prog.Sym)
	if !ok || sym.Kind != symbols.SymbolProgram {
		return nil, diag.Internal(diag.ICEUnresolvedSymbol, "program", "program symbol %d is missing", prog.Sym)
	}
	return sym, nil
}

func staticFields(in *types.Interner, syms *symbols.Table, progSym *symbols.Symbol) []bytecode.FieldDef {
	fields := []bytecode.FieldDef{{Name: scannerField, Desc: scannerDesc, Static: true}}
	for _, id := range progSym.Locals {
		sym, ok := syms.Get(id)
		if !ok || !sym.IsStatic() {
			continue
		}
		fields = append(fields, bytecode.FieldDef{Name: sym.Name, Desc: in.Descriptor(sym.Type), Static: true})
	}
	return fields
}

// recordClasses declares a data class per record type.
func recordClasses(in *types.Interner) []bytecode.Record {
	var out []bytecode.Record
	for i := 1; i < in.Len(); i++ {
		tt, ok := in.Lookup(types.TypeID(i)) //nolint:gosec // bounded by Len
		if !ok || tt.Kind != types.KindRecord {
			continue
		}
		rec := bytecode.Record{Name: tt.Name}
		for _, f := range tt.Fields {
			rec.Fields = append(rec.Fields, bytecode.FieldDef{Name: f.Name, Desc: in.Descriptor(f.Type)})
		}
		out = append(out, rec)
	}
	return out
}

func routineSpan(opts Options, name string) (*trace.Span, Options) {
	span := trace.Begin(opts.Tracer, trace.ScopeRoutine, "routine:"+opts.Namespace+"."+name, opts.Parent)
	if id := span.ID(); id != 0 {
		opts.Parent = id
	}
	return span, opts
}

func finishSpan(span *trace.Span, buf *bytecode.Buffer, err error) {
	span.WithExtra("instrs", strconv.Itoa(buf.Len())).WithExtra("labels", strconv.Itoa(buf.Labels().Len()))
	if err != nil {
		span.End(err.Error())
		return
	}
	span.End("")
}

// lowerRoutine lowers one procedure or function into a static method.
func lowerRoutine(in *types.Interner, syms *symbols.Table, r *ast.Routine, opts Options) (*bytecode.Method, Stats, error) {
	sym, ok := syms.Get(r.Sym)
	if !ok || !sym.IsRoutine() {
		return nil, Stats{}, diag.Internal(diag.ICEUnknownRoutine, "routine", "symbol %d is not a procedure or function", r.Sym)
	}
	span, opts := routineSpan(opts, sym.Name)
	buf := bytecode.NewBuffer(nil)
	gen := New(in, syms, buf, nil, opts).ForRoutine(r.Sym)

	m, err := gen.routineMethod(sym, r.Body)
	finishSpan(span, buf, err)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("routine %s: %w", sym.Name, err)
	}
	st := gen.Stats()
	st.Labels = buf.Labels().Len()
	return m, st, nil
}

func (g *Generator) routineMethod(sym *symbols.Symbol, body *ast.Stmt) (*bytecode.Method, error) {
	params, err := g.syms.Params(g.routine)
	if err != nil {
		return nil, diag.Internal(diag.ICEUnresolvedSymbol, "routine", "%v", err)
	}
	var desc strings.Builder
	desc.WriteByte('(')
	maxLocals := 0
	for _, p := range params {
		desc.WriteString(g.types.Descriptor(p.Type))
		maxLocals = max(maxLocals, p.Slot+1)
	}
	desc.WriteByte(')')
	ret := g.syms.ReturnType(g.routine, g.types)
	desc.WriteString(g.types.Descriptor(ret))
	if sym.Kind == symbols.SymbolFunction {
		maxLocals = max(maxLocals, sym.Slot+1)
	}

	for _, id := range sym.Locals {
		local, ok := g.syms.Get(id)
		if !ok {
			return nil, diag.Internal(diag.ICEUnresolvedSymbol, "routine", "%s %q has unknown local %d", sym.Kind, sym.Name, id)
		}
		if local.Kind != symbols.SymbolVariable {
			continue
		}
		maxLocals = max(maxLocals, local.Slot+1)
		allocated, err := g.emitAllocate(local.Type)
		if err != nil {
			return nil, err
		}
		if allocated {
			if err := g.emitStoreSym(local); err != nil {
				return nil, err
			}
		}
	}

	if err := g.LowerStmt(body); err != nil {
		return nil, err
	}
	if sym.Kind == symbols.SymbolFunction {
		if err := g.emitLoadSym(sym); err != nil {
			return nil, err
		}
	}
	g.simple(g.returnOp(ret))
	if err := g.sink.Err(); err != nil {
		return nil, err
	}
	buf, ok := g.sink.(*bytecode.Buffer)
	if !ok {
		return nil, fmt.Errorf("codegen: routine %s needs a *bytecode.Buffer sink", sym.Name)
	}
	return buf.Finish(sym.Name, desc.String(), true, maxLocals)
}

// lowerMain lowers the main block: scanner set-up, static aggregates, body.
func lowerMain(in *types.Interner, syms *symbols.Table, prog *ast.Program, progSym *symbols.Symbol, opts Options) (*bytecode.Method, Stats, error) {
	span, opts := routineSpan(opts, mainName)
	buf := bytecode.NewBuffer(nil)
	gen := New(in, syms, buf, nil, opts)

	err := gen.mainBody(prog, progSym)
	var m *bytecode.Method
	if err == nil {
		m, err = buf.Finish(mainName, mainDesc, true, 1)
	}
	finishSpan(span, buf, err)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("main: %w", err)
	}
	st := gen.Stats()
	st.Labels = buf.Labels().Len()
	return m, st, nil
}

func (g *Generator) mainBody(prog *ast.Program, progSym *symbols.Symbol) error {
	// _sysin = new Scanner(System.in)
	g.emit(bytecode.TypeRef(bytecode.NEW, "java/util/Scanner"))
	g.simple(bytecode.DUP)
	g.emit(bytecode.Field(bytecode.GETSTATIC, "java/lang/System/in", "Ljava/io/InputStream;"))
	g.emit(bytecode.Invoke(bytecode.INVOKESPECIAL, "java/util/Scanner/<init>(Ljava/io/InputStream;)V"))
	g.emit(bytecode.Field(bytecode.PUTSTATIC, g.staticRef(scannerField), scannerDesc))

	for _, id := range progSym.Locals {
		sym, ok := g.syms.Get(id)
		if !ok || !sym.IsStatic() {
			continue
		}
		allocated, err := g.emitAllocate(sym.Type)
		if err != nil {
			return err
		}
		if allocated {
			if err := g.emitStoreSym(sym); err != nil {
				return err
			}
		}
	}
	if err := g.LowerStmt(prog.Main); err != nil {
		return err
	}
	g.simple(bytecode.RETURN)
	return g.sink.Err()
}

// emitAllocate pushes a fresh array or record for t. Scalars need no
// allocation and push nothing.
func (g *Generator) emitAllocate(t types.TypeID) (bool, error) {
	tt, ok := g.types.Lookup(g.types.BaseType(t))
	if !ok {
		return false, diag.Internal(diag.ICETypeMismatch, "allocate", "unknown type %d", t)
	}
	switch tt.Kind {
	case types.KindArray:
		n, _ := g.types.ArrayLength(t)
		if err := g.emitIntConst(n); err != nil {
			return false, err
		}
		elem := g.types.MustLookup(g.types.BaseType(tt.Elem))
		switch elem.Kind {
		case types.KindInteger, types.KindEnum, types.KindReal, types.KindBoolean, types.KindChar:
			g.emit(bytecode.NewArray(g.types.Descriptor(tt.Elem)))
			return true, nil
		}
		g.emit(bytecode.TypeRef(bytecode.ANEWARRAY, elementClass(g.types.Descriptor(tt.Elem))))
		if elem.Kind != types.KindArray && elem.Kind != types.KindRecord {
			return true, nil
		}
		// aggregate elements are allocated one by one
		for i := range n {
			g.simple(bytecode.DUP)
			if err := g.emitIntConst(i); err != nil {
				return false, err
			}
			if _, err := g.emitAllocate(tt.Elem); err != nil {
				return false, err
			}
			g.simple(bytecode.AASTORE)
		}
		return true, nil
	case types.KindRecord:
		g.emit(bytecode.TypeRef(bytecode.NEW, tt.Name))
		g.simple(bytecode.DUP)
		g.emit(bytecode.Invoke(bytecode.INVOKESPECIAL, tt.Name+"/<init>()V"))
		for _, f := range tt.Fields {
			switch g.types.KindOf(f.Type) {
			case types.KindArray, types.KindRecord:
			default:
				continue
			}
			g.simple(bytecode.DUP)
			if _, err := g.emitAllocate(f.Type); err != nil {
				return false, err
			}
			g.emit(bytecode.Field(bytecode.PUTFIELD, tt.Name+"/"+f.Name, g.types.Descriptor(f.Type)))
		}
		return true, nil
	}
	return false, nil
}

// elementClass turns an element descriptor into the ANEWARRAY operand:
// "Ljava/lang/String;" -> "java/lang/String", array descriptors unchanged.
func elementClass(desc string) string {
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		return desc[1 : len(desc)-1]
	}
	return desc
}
