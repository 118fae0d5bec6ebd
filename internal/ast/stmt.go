package ast

import "fmt"

// StmtKind enumerates statement node kinds.
type StmtKind uint8

const (
	StmtEmpty StmtKind = iota
	StmtCompound
	StmtAssign
	StmtIf
	StmtCase
	StmtRepeat
	StmtWhile
	StmtFor
	StmtProcCall
	StmtFuncCall
	StmtWrite
	StmtWriteln
	StmtRead
	StmtReadln

	// StmtKindCount is the number of statement kinds.
	StmtKindCount
)

func (k StmtKind) String() string {
	switch k {
	case StmtEmpty:
		return "empty"
	case StmtCompound:
		return "compound"
	case StmtAssign:
		return "assignment"
	case StmtIf:
		return "if"
	case StmtCase:
		return "case"
	case StmtRepeat:
		return "repeat"
	case StmtWhile:
		return "while"
	case StmtFor:
		return "for"
	case StmtProcCall:
		return "procedure-call"
	case StmtFuncCall:
		return "function-call"
	case StmtWrite:
		return "write"
	case StmtWriteln:
		return "writeln"
	case StmtRead:
		return "read"
	case StmtReadln:
		return "readln"
	default:
		return fmt.Sprintf("StmtKind(%d)", k)
	}
}

// Stmt is a statement node. Exactly one payload matching Kind is set.
type Stmt struct {
	Kind StmtKind `msgpack:"kind"`
	Line int      `msgpack:"line,omitempty"`

	Compound []*Stmt     `msgpack:"compound,omitempty"`
	Assign   *AssignStmt `msgpack:"assign,omitempty"`
	If       *IfStmt     `msgpack:"if,omitempty"`
	Case     *CaseStmt   `msgpack:"case,omitempty"`
	Repeat   *RepeatStmt `msgpack:"repeat,omitempty"`
	While    *WhileStmt  `msgpack:"while,omitempty"`
	For      *ForStmt    `msgpack:"for,omitempty"`
	Call     *Call       `msgpack:"call,omitempty"`
	Write    *WriteStmt  `msgpack:"write,omitempty"`
	Read     *ReadStmt   `msgpack:"read,omitempty"`
}

// AssignStmt is `target := value`.
type AssignStmt struct {
	Target *Variable `msgpack:"target"`
	Value  *Expr     `msgpack:"value"`
}

// IfStmt is `if cond then ... [else ...]`.
type IfStmt struct {
	Cond *Expr `msgpack:"cond"`
	Then *Stmt `msgpack:"then"`
	Else *Stmt `msgpack:"else,omitempty"`
}

// CaseBranch owns ordinal selector values, already folded to integers,
// and an optional body.
type CaseBranch struct {
	Values []int64 `msgpack:"values"`
	Body   *Stmt   `msgpack:"body,omitempty"`
}

// CaseStmt is `case selector of ... end`.
type CaseStmt struct {
	Selector *Expr        `msgpack:"selector"`
	Branches []CaseBranch `msgpack:"branches,omitempty"`
}

// RepeatStmt is `repeat body until cond`.
type RepeatStmt struct {
	Body []*Stmt `msgpack:"body,omitempty"`
	Cond *Expr   `msgpack:"cond"`
}

// WhileStmt is `while cond do body`.
type WhileStmt struct {
	Cond *Expr `msgpack:"cond"`
	Body *Stmt `msgpack:"body"`
}

// ForStmt is `for var := start to|downto end do body`.
type ForStmt struct {
	Var    *Variable `msgpack:"var"`
	Start  *Expr     `msgpack:"start"`
	End    *Expr     `msgpack:"end"`
	Downto bool      `msgpack:"downto,omitempty"`
	Body   *Stmt     `msgpack:"body"`
}

// FieldWidth is the `:width[:precision]` suffix of a write argument.
type FieldWidth struct {
	Negative     bool `msgpack:"neg,omitempty"`
	Width        int  `msgpack:"width"`
	HasPrecision bool `msgpack:"has_prec,omitempty"`
	Precision    int  `msgpack:"prec,omitempty"`
}

// WriteArg is one write/writeln argument.
type WriteArg struct {
	Expr  *Expr       `msgpack:"expr"`
	Width *FieldWidth `msgpack:"width,omitempty"`
}

// WriteStmt covers write and writeln; Kind tells them apart.
type WriteStmt struct {
	Args []WriteArg `msgpack:"args,omitempty"`
}

// ReadStmt covers read and readln; Kind tells them apart.
type ReadStmt struct {
	Targets []*Variable `msgpack:"targets,omitempty"`
}
