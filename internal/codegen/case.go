package codegen

import (
	"cmp"
	"slices"

	"fortio.org/safecast"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/label"
)

// caseKey is one (selector value, branch index) pair of the dispatch table.
type caseKey struct {
	value  int32
	branch int
}

// caseTable flattens the branch values and sorts them ascending. Values are
// unique across the whole statement and must fit a 32-bit switch key.
func caseTable(branches []ast.CaseBranch) ([]caseKey, error) {
	var n int
	for _, br := range branches {
		n += len(br.Values)
	}
	keys := make([]caseKey, 0, n)
	owner := make(map[int64]int, n)
	for i, br := range branches {
		for _, v := range br.Values {
			if prev, dup := owner[v]; dup {
				return nil, diag.Internal(diag.ICEDuplicateCaseValue, "case",
					"selector value %d appears in branch %d and branch %d", v, prev+1, i+1)
			}
			owner[v] = i
			key, err := safecast.Conv[int32](v)
			if err != nil {
				return nil, diag.Internal(diag.ICECaseValueRange, "case", "selector value %d: %v", v, err)
			}
			keys = append(keys, caseKey{value: key, branch: i})
		}
	}
	slices.SortFunc(keys, func(a, b caseKey) int { return cmp.Compare(a.value, b.value) })
	return keys, nil
}

// lowerCase emits a LOOKUPSWITCH over the sorted selector values. Unmatched
// selectors go to the exit label. Each branch with a body jumps to the
// exit; a branch without one falls through to the next defined label.
func (g *Generator) lowerCase(s *ast.CaseStmt) error {
	if s == nil || s.Selector == nil {
		return payload(ast.StmtCase)
	}
	if !g.types.IsOrdinal(s.Selector.Type) {
		return diag.Internal(diag.ICETypeMismatch, "case", "selector of type %s is not ordinal", g.types.String(s.Selector.Type))
	}
	keys, err := caseTable(s.Branches)
	if err != nil {
		return err
	}
	if err := g.EmitExpr(s.Selector); err != nil {
		return err
	}

	branchLabels := make([]label.ID, len(s.Branches))
	for i := range branchLabels {
		branchLabels[i] = g.newLabel()
	}
	exit := g.newLabel()
	table := make([]bytecode.SwitchCase, len(keys))
	for i, k := range keys {
		table[i] = bytecode.SwitchCase{Key: k.value, Label: branchLabels[k.branch]}
	}
	g.emit(bytecode.Switch(table, exit))
	g.stats.Switches++
	g.stats.SwitchKeys += len(table)

	for i, br := range s.Branches {
		g.define(branchLabels[i])
		if br.Body == nil {
			continue
		}
		if err := g.LowerStmt(br.Body); err != nil {
			return err
		}
		g.jump(bytecode.GOTO, exit)
	}
	g.define(exit)
	return nil
}
