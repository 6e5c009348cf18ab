package cse

import (
	"fmt"
	"strings"

	"github.com/cseval/cseval/syntax"
)

// Instruction is a completion item on Control. It runs after the
// sub-expressions it combines have left their values on the Stash.
type Instruction interface {
	InstrString() string
	Execute(m *Machine) error
}

type PopInstr struct{}

func (p PopInstr) InstrString() string { return "pop" }

func (p PopInstr) Execute(m *Machine) error {
	m.stash.MustPop()
	return nil
}

// AssignInstr binds (Define) or rebinds the value on top of the Stash.
type AssignInstr struct {
	Name   string
	Define bool
}

func (a AssignInstr) InstrString() string {
	if a.Define {
		return "define " + a.Name
	}
	return "set! " + a.Name
}

func (a AssignInstr) Execute(m *Machine) error {
	val := m.stash.MustPop()
	if a.Define {
		if fn, ok := val.(*SexpFunction); ok && !fn.user && fn.name == "" {
			fn.name = a.Name
		}
		m.env.Define(a.Name, val)
	} else if err := m.env.Assign(a.Name, val); err != nil {
		return &EvalError{Msg: err.Error()}
	}
	m.stash.Push(SexpVoid)
	return nil
}

// ApplyInstr calls the procedure sitting Nargs below the top of the
// Stash with the Nargs values above it.
type ApplyInstr struct {
	Nargs int
}

func (a ApplyInstr) InstrString() string {
	return fmt.Sprintf("apply %d", a.Nargs)
}

func (a ApplyInstr) Execute(m *Machine) error {
	args := m.stash.PopN(a.Nargs)
	fn := m.stash.MustPop()
	return m.apply(fn, args)
}

// BranchInstr pushes the arm selected by the test value.
type BranchInstr struct {
	Consequent syntax.Node
	Alternate  syntax.Node
}

func (b BranchInstr) InstrString() string { return "branch" }

func (b BranchInstr) Execute(m *Machine) error {
	test := m.stash.MustPop()
	switch {
	case isTruthy(test):
		m.control.Push(b.Consequent)
	case b.Alternate != nil:
		m.control.Push(b.Alternate)
	default:
		m.stash.Push(SexpNull)
	}
	return nil
}

// RestoreEnvInstr reinstates the caller's environment once a procedure
// or let body has finished.
type RestoreEnvInstr struct {
	Env *Scope
}

func (r *RestoreEnvInstr) InstrString() string { return "restore-env " + r.Env.Name }

func (r *RestoreEnvInstr) Execute(m *Machine) error {
	m.env = r.Env
	return nil
}

type PairInstr struct{}

func (p PairInstr) InstrString() string { return "pair" }

func (p PairInstr) Execute(m *Machine) error {
	cdr := m.stash.MustPop()
	car := m.stash.MustPop()
	if s, ok := car.(*splice); ok {
		items, err := ListToArray(s.val)
		if err != nil {
			return &EvalError{Msg: "unquote-splicing: " + err.Error()}
		}
		m.stash.Push(MakeDotted(items, cdr))
		return nil
	}
	m.stash.Push(Cons(car, cdr))
	return nil
}

type ListInstr struct {
	N int
}

func (l ListInstr) InstrString() string { return fmt.Sprintf("list %d", l.N) }

func (l ListInstr) Execute(m *Machine) error {
	items, err := flattenSplices(m.stash.PopN(l.N))
	if err != nil {
		return err
	}
	m.stash.Push(MakeList(items))
	return nil
}

type VectorInstr struct {
	N int
}

func (v VectorInstr) InstrString() string { return fmt.Sprintf("vector %d", v.N) }

func (v VectorInstr) Execute(m *Machine) error {
	items, err := flattenSplices(m.stash.PopN(v.N))
	if err != nil {
		return err
	}
	m.stash.Push(&SexpVector{Val: items})
	return nil
}

func flattenSplices(items []Sexp) ([]Sexp, error) {
	out := make([]Sexp, 0, len(items))
	for _, it := range items {
		s, ok := it.(*splice)
		if !ok {
			out = append(out, it)
			continue
		}
		spliced, err := ListToArray(s.val)
		if err != nil {
			return nil, &EvalError{Msg: "unquote-splicing: " + err.Error()}
		}
		out = append(out, spliced...)
	}
	return out, nil
}

type SpliceInstr struct{}

func (s SpliceInstr) InstrString() string { return "splice" }

func (s SpliceInstr) Execute(m *Machine) error {
	m.stash.Push(&splice{val: m.stash.MustPop()})
	return nil
}

// LetInstr binds the already evaluated values in one new frame and
// evaluates Body there.
type LetInstr struct {
	Names []string
	Body  *syntax.Sequence
}

func (l LetInstr) InstrString() string {
	return "let (" + strings.Join(l.Names, " ") + ")"
}

func (l LetInstr) Execute(m *Machine) error {
	vals := m.stash.PopN(len(l.Names))
	scope := NewScope("let", m.env)
	for i, name := range l.Names {
		scope.Define(name, vals[i])
	}
	m.enter(scope)
	m.control.Push(l.Body)
	return nil
}

// CondInstr inspects the value of predicate Index.
type CondInstr struct {
	Cond  *syntax.Cond
	Index int
}

func (c CondInstr) InstrString() string { return fmt.Sprintf("cond %d", c.Index) }

func (c CondInstr) Execute(m *Machine) error {
	test := m.stash.MustPop()
	if isTruthy(test) {
		m.control.Push(c.Cond.Consequents[c.Index])
		return nil
	}
	m.pushClause(c.Cond, c.Index+1)
	return nil
}

// MemoizeInstr records the value a forced promise computed. The value
// stays on the Stash as the result of force.
type MemoizeInstr struct {
	P *SexpPromise
}

func (mi MemoizeInstr) InstrString() string { return "memoize" }

func (mi MemoizeInstr) Execute(m *Machine) error {
	v, err := m.stash.Get(0)
	if err != nil {
		return err
	}
	if !mi.P.done {
		mi.P.done = true
		mi.P.val = v
		mi.P.thunk = nil
	}
	return nil
}

type ExportInstr struct {
	Name string
}

func (e ExportInstr) InstrString() string { return "export " + e.Name }

func (e ExportInstr) Execute(m *Machine) error {
	m.exports = append(m.exports, e.Name)
	return nil
}

type ImportInstr struct {
	Import *syntax.Import
}

func (i ImportInstr) InstrString() string {
	return fmt.Sprintf("import %q", i.Import.Source.Value)
}

func (i ImportInstr) Execute(m *Machine) error {
	src := i.Import.Source.Value
	if m.opts.Importer == nil {
		return &EvalError{Msg: fmt.Sprintf("import \"%s\": no module loader configured", src)}
	}
	bindings, err := m.opts.Importer(src)
	if err != nil {
		return &EvalError{Msg: fmt.Sprintf("import \"%s\": %v", src, err)}
	}
	for _, id := range i.Import.Identifiers {
		v, ok := bindings[id.Name]
		if !ok {
			return &EvalError{Msg: fmt.Sprintf("'%s' is not exported by \"%s\"", id.Name, src)}
		}
		m.env.Define(id.Name, v)
	}
	m.stash.Push(SexpVoid)
	return nil
}
