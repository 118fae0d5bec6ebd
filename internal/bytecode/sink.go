package bytecode

import (
	"fmt"

	"pascalc/internal/diag"
	"pascalc/internal/label"
)

// Sink consumes instruction and label-definition events in stream order.
// Errors are sticky: after the first failure further events are ignored
// and Err reports it.
type Sink interface {
	Emit(in Instr)
	Define(l label.ID)
	Err() error
}

// EventKind distinguishes entries of the recorded event stream.
type EventKind uint8

const (
	EventInstr EventKind = iota + 1
	EventLabel
)

// Event is one recorded sink event.
type Event struct {
	Kind  EventKind
	Instr Instr
	Label label.ID
}

// Buffer is the recording Sink. It tracks operand stack depth and resolves
// label references once the routine is complete.
type Buffer struct {
	labels     *label.Arena
	events     []Event
	code       []Instr
	depth      int
	maxDepth   int
	labelDepth map[label.ID]int
	reachable  bool
	err        error
}

// NewBuffer returns a Buffer that defines labels in the given arena.
func NewBuffer(labels *label.Arena) *Buffer {
	if labels == nil {
		labels = label.NewArena()
	}
	return &Buffer{
		labels:     labels,
		labelDepth: make(map[label.ID]int),
		reachable:  true,
	}
}

// Labels returns the arena backing this buffer.
func (b *Buffer) Labels() *label.Arena { return b.labels }

func (b *Buffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error recorded by the buffer.
func (b *Buffer) Err() error { return b.err }

// Emit records an instruction.
func (b *Buffer) Emit(in Instr) {
	if b.err != nil {
		return
	}
	refs := in.Labels()
	for _, l := range refs {
		if err := b.labels.Reference(l); err != nil {
			b.fail(err)
			return
		}
	}
	pops, pushes, err := StackEffect(&in)
	if err != nil {
		b.fail(fmt.Errorf("emit %s: %w", in.Op, err))
		return
	}
	if b.depth < pops {
		b.fail(diag.Internal(diag.ICEStackUnderflow, "emit", "%s at %d needs %d operand(s), stack holds %d", in.Op, len(b.code), pops, b.depth))
		return
	}
	b.depth += pushes - pops
	if b.depth > b.maxDepth {
		b.maxDepth = b.depth
	}
	for _, l := range refs {
		if _, ok := b.labelDepth[l]; !ok {
			b.labelDepth[l] = b.depth
		}
	}
	b.code = append(b.code, in)
	b.events = append(b.events, Event{Kind: EventInstr, Instr: in})
	if in.Op.EndsBlock() {
		b.depth = 0
		b.reachable = false
	}
}

// Define binds l to the position of the next emitted instruction.
func (b *Buffer) Define(l label.ID) {
	if b.err != nil {
		return
	}
	if err := b.labels.Define(l, len(b.code)); err != nil {
		b.fail(err)
		return
	}
	if d, ok := b.labelDepth[l]; ok && !b.reachable {
		b.depth = d
	} else if !ok {
		b.labelDepth[l] = b.depth
	}
	b.reachable = true
	b.events = append(b.events, Event{Kind: EventLabel, Label: l})
}

// Depth is the current operand stack depth.
func (b *Buffer) Depth() int { return b.depth }

// MaxDepth is the deepest operand stack seen so far.
func (b *Buffer) MaxDepth() int { return b.maxDepth }

// Len is the number of emitted instructions.
func (b *Buffer) Len() int { return len(b.code) }

// Events returns the recorded event stream.
func (b *Buffer) Events() []Event { return b.events }

// Instrs returns the emitted instructions with unresolved targets.
func (b *Buffer) Instrs() []Instr { return b.code }

// Resolve checks every referenced label is defined and returns a copy of the
// code with branch and switch targets set to instruction indices.
func (b *Buffer) Resolve() ([]Instr, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.labels.Check(); err != nil {
		return nil, err
	}
	out := make([]Instr, len(b.code))
	for i := range b.code {
		in := b.code[i]
		if in.Op.IsBranch() || in.Op == LOOKUPSWITCH {
			pos, ok := b.labels.Position(in.Label)
			if !ok {
				return nil, diag.Internal(diag.ICEUndefinedLabel, "resolve", "%s at %d targets undefined %s", in.Op, i, in.Label)
			}
			in.Target = pos
		}
		if len(in.Cases) > 0 {
			in.Cases = append([]SwitchCase(nil), in.Cases...)
			for j := range in.Cases {
				pos, ok := b.labels.Position(in.Cases[j].Label)
				if !ok {
					return nil, diag.Internal(diag.ICEUndefinedLabel, "resolve", "switch key %d targets undefined %s", in.Cases[j].Key, in.Cases[j].Label)
				}
				in.Cases[j].Target = pos
			}
		}
		out[i] = in
	}
	return out, nil
}

// LabelDefs lists label definitions in stream order with their positions.
func (b *Buffer) LabelDefs() []LabelDef {
	var out []LabelDef
	for _, ev := range b.events {
		if ev.Kind != EventLabel {
			continue
		}
		pos, _ := b.labels.Position(ev.Label)
		out = append(out, LabelDef{Label: ev.Label, Pos: pos})
	}
	return out
}

// Finish resolves the buffer into a Method.
func (b *Buffer) Finish(name, desc string, static bool, maxLocals int) (*Method, error) {
	code, err := b.Resolve()
	if err != nil {
		return nil, fmt.Errorf("method %s%s: %w", name, desc, err)
	}
	return &Method{
		Name:      name,
		Desc:      desc,
		Static:    static,
		MaxLocals: maxLocals,
		MaxStack:  b.maxDepth,
		Code:      code,
		Labels:    b.LabelDefs(),
	}, nil
}
