package cse

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sync/atomic"

	"github.com/cseval/cseval/syntax"
)

var (
	ErrStepLimitExceeded = errors.New("step limit exceeded")
	WrongNargs           = fmt.Errorf("wrong number of arguments")
)

// EvalError is a fault in the user program: an unbound variable, a
// non-procedure in operator position, a failing primitive. The machine
// turns it into an *SexpError on the Stash.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

func evalErrorf(format string, args ...interface{}) *EvalError {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

// Importer evaluates the module named by an import source and returns
// its exported bindings.
type Importer func(source string) (map[string]Sexp, error)

type MachineOptions struct {
	// StepLimit bounds the number of dispatch steps; 0 means no limit.
	// It is ignored when IsPrelude is set.
	StepLimit int

	// With Pause set, the machine stops after EnvSteps steps. The zero
	// value runs to completion.
	Pause    bool
	EnvSteps int

	IsPrelude bool
	Trace     bool

	// Chapter is the grammar level eval re-parses its argument at.
	Chapter int

	Stdout   io.Writer
	Importer Importer
}

// Machine is the Control/Stash/Environment evaluator. Control holds
// syntax nodes still to be decomposed and Instructions waiting for their
// operands; the Stash holds values. Evaluation never recurses on the Go
// stack: each step pops one Control item and dispatches on it.
type Machine struct {
	control *Stack[any]
	stash   *Stack[Sexp]
	env     *Scope
	base    *Scope

	running atomic.Bool
	paused  bool
	steps   int
	exports []string

	opts MachineOptions
}

func NewMachine(nodes []syntax.Node, env *Scope, opts MachineOptions) *Machine {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Chapter == 0 {
		opts.Chapter = syntax.MaxChapter
	}
	m := &Machine{
		control: NewStack[any]("control"),
		stash:   NewStack[Sexp]("stash"),
		env:     env,
		base:    env,
		opts:    opts,
	}
	m.running.Store(true)
	m.control.Push(&syntax.Sequence{Body: nodes})
	return m
}

// Stop asks the machine to halt after the step in progress. It is safe
// to call from another goroutine.
func (m *Machine) Stop() {
	m.running.Store(false)
}

func (m *Machine) Env() *Scope       { return m.env }
func (m *Machine) StepCount() int    { return m.steps }
func (m *Machine) Paused() bool      { return m.paused }
func (m *Machine) Exports() []string { return m.exports }
func (m *Machine) Stdout() io.Writer { return m.opts.Stdout }

// Value is the top of the Stash, or nil when the Stash is empty.
func (m *Machine) Value() Sexp {
	v, err := m.stash.Get(0)
	if err != nil {
		return SexpNull
	}
	return v
}

// Run evaluates until Control is empty, the machine is stopped or
// paused, or the step limit is reached.
func (m *Machine) Run() (Sexp, error) {
	for {
		more, err := m.advance()
		if err != nil {
			return m.Value(), err
		}
		if !more {
			return m.Value(), nil
		}
	}
}

// StepFrame is a snapshot of the machine after one step. Stash and
// Control are listed bottom first.
type StepFrame struct {
	Step    int
	Env     *Scope
	Stash   []Sexp
	Control []any
}

// Steps runs the machine one step at a time, yielding a snapshot after
// each. Breaking out of the loop leaves the machine resumable.
func (m *Machine) Steps() iter.Seq2[StepFrame, error] {
	return func(yield func(StepFrame, error) bool) {
		for {
			more, err := m.advance()
			if err != nil {
				yield(m.frame(), err)
				return
			}
			if !more {
				return
			}
			if !yield(m.frame(), nil) {
				return
			}
		}
	}
}

func (m *Machine) frame() StepFrame {
	return StepFrame{
		Step:    m.steps,
		Env:     m.env,
		Stash:   m.stash.Elements(),
		Control: m.control.Elements(),
	}
}

// advance performs one dispatch step and reports whether it did.
func (m *Machine) advance() (bool, error) {
	if m.control.IsEmpty() || !m.running.Load() {
		return false, nil
	}
	if m.opts.Pause && m.steps >= m.opts.EnvSteps {
		m.paused = true
		return false, nil
	}
	if !m.opts.IsPrelude && m.opts.StepLimit > 0 && m.steps >= m.opts.StepLimit {
		return false, fmt.Errorf("%w: %d steps", ErrStepLimitExceeded, m.opts.StepLimit)
	}

	item := m.control.MustPop()
	m.steps++
	if m.opts.Trace {
		VPrintf("step %d: %s  [stash %d, control %d, env %s]",
			m.steps, describe(item), m.stash.Size(), m.control.Size(), m.env.Name)
	}

	var err error
	switch x := item.(type) {
	case Instruction:
		err = x.Execute(m)
	case syntax.Node:
		err = m.decompose(x)
	default:
		panic(fmt.Sprintf("unknown control item %T", item))
	}
	if err == nil {
		return true, nil
	}

	var ee *EvalError
	if errors.As(err, &ee) {
		m.control.TruncateToSize(0)
		m.stash.Push(&SexpError{Msg: ee.Msg})
		m.env = m.base
		return true, nil
	}
	return false, err
}

func describe(item any) string {
	switch x := item.(type) {
	case Instruction:
		return x.InstrString()
	case syntax.Node:
		return x.String()
	}
	return fmt.Sprintf("%v", item)
}

// enter makes scope the active environment, scheduling a return to the
// current one. When a restore is already next on Control the call is in
// tail position and the pending restore suffices.
func (m *Machine) enter(scope *Scope) {
	top, err := m.control.Get(0)
	if _, isRestore := top.(*RestoreEnvInstr); err != nil || !isRestore {
		m.control.Push(&RestoreEnvInstr{Env: m.env})
	}
	m.env = scope
}

func (m *Machine) decompose(n syntax.Node) error {
	switch x := n.(type) {
	case *syntax.Sequence:
		if len(x.Body) == 0 {
			m.stash.Push(SexpVoid)
			return nil
		}
		for i := len(x.Body) - 1; i >= 0; i-- {
			m.control.Push(x.Body[i])
			if i > 0 {
				m.control.Push(PopInstr{})
			}
		}
	case *syntax.NumericLiteral:
		m.stash.Push(Num(x.Value))
	case *syntax.ComplexLiteral:
		m.stash.Push(Num(x.Value))
	case *syntax.BooleanLiteral:
		m.stash.Push(SexpBool(x.Value))
	case *syntax.StringLiteral:
		m.stash.Push(SexpStr(x.Value))
	case *syntax.Symbol:
		m.stash.Push(SexpSymbol(x.Name))
	case *syntax.Nil:
		m.stash.Push(SexpNull)
	case *syntax.Identifier:
		v, _, ok := m.env.Lookup(x.Name)
		if !ok {
			return evalErrorf("unbound variable '%s'", x.Name)
		}
		m.stash.Push(v)
	case *syntax.Lambda:
		fn := &SexpFunction{body: x.Body, closingOverScope: m.env}
		for _, p := range x.Params {
			fn.params = append(fn.params, p.Name)
		}
		if x.Rest != nil {
			fn.rest = x.Rest.Name
		}
		m.stash.Push(fn)
	case *syntax.Definition:
		m.control.Push(AssignInstr{Name: x.Name.Name, Define: true})
		m.control.Push(x.Value)
	case *syntax.Reassignment:
		m.control.Push(AssignInstr{Name: x.Name.Name})
		m.control.Push(x.Value)
	case *syntax.Application:
		m.control.Push(ApplyInstr{Nargs: len(x.Operands)})
		for i := len(x.Operands) - 1; i >= 0; i-- {
			m.control.Push(x.Operands[i])
		}
		m.control.Push(x.Operator)
	case *syntax.Conditional:
		m.control.Push(BranchInstr{Consequent: x.Consequent, Alternate: x.Alternate})
		m.control.Push(x.Test)
	case *syntax.Pair:
		m.control.Push(PairInstr{})
		m.control.Push(x.Cdr)
		m.control.Push(x.Car)
	case *syntax.List:
		m.pushElements(ListInstr{N: len(x.Elements)}, x.Elements)
	case *syntax.Vector:
		m.pushElements(VectorInstr{N: len(x.Elements)}, x.Elements)
	case *syntax.SpliceMarker:
		m.control.Push(SpliceInstr{})
		m.control.Push(x.Value)
	case *syntax.Let:
		names := make([]string, len(x.Identifiers))
		for i, id := range x.Identifiers {
			names[i] = id.Name
		}
		m.pushElements(LetInstr{Names: names, Body: x.Body}, x.Values)
	case *syntax.Cond:
		m.pushClause(x, 0)
	case *syntax.Import:
		m.control.Push(ImportInstr{Import: x})
	case *syntax.Export:
		m.control.Push(ExportInstr{Name: x.Definition.Name.Name})
		m.control.Push(x.Definition)
	case *syntax.FunctionDefinition, *syntax.Begin, *syntax.Delay,
		*syntax.DefineSyntax, *syntax.SyntaxRules:
		panic(fmt.Sprintf("%v node reached the machine; it must be desugared first", n.Kind()))
	default:
		panic(fmt.Sprintf("unknown node kind %v", n.Kind()))
	}
	return nil
}

// pushElements schedules instr after the elements, evaluated left to right.
func (m *Machine) pushElements(instr Instruction, elems []syntax.Node) {
	m.control.Push(instr)
	for i := len(elems) - 1; i >= 0; i-- {
		m.control.Push(elems[i])
	}
}

// pushClause schedules predicate i of c, or the fallthrough when every
// predicate has failed.
func (m *Machine) pushClause(c *syntax.Cond, i int) {
	switch {
	case i < len(c.Predicates):
		m.control.Push(CondInstr{Cond: c, Index: i})
		m.control.Push(c.Predicates[i])
	case c.Catchall != nil:
		m.control.Push(c.Catchall)
	default:
		m.stash.Push(SexpNull)
	}
}

func (m *Machine) apply(f Sexp, args []Sexp) error {
	fn, ok := f.(*SexpFunction)
	if !ok {
		return evalErrorf("cannot apply a non-procedure: %s", Render(f))
	}
	if fn.user {
		res, err := m.callPrimitive(fn, args)
		if err != nil {
			var ee *EvalError
			if errors.As(err, &ee) {
				return ee
			}
			return evalErrorf("%s: %v", fn.name, err)
		}
		if res != SexpDeferred {
			m.stash.Push(res)
		}
		return nil
	}

	if len(args) > len(fn.params) && fn.rest == "" {
		return evalErrorf("%s: %v: expected %d, got %d",
			Render(fn), WrongNargs, len(fn.params), len(args))
	}
	name := fn.name
	if name == "" {
		name = "lambda"
	}
	scope := NewScope(name, fn.closingOverScope)
	for i, p := range fn.params {
		if i < len(args) {
			scope.Define(p, args[i])
		} else {
			scope.Define(p, SexpNull)
		}
	}
	if fn.rest != "" {
		var extra []Sexp
		if len(args) > len(fn.params) {
			extra = args[len(fn.params):]
		}
		scope.Define(fn.rest, MakeList(extra))
	}
	m.enter(scope)
	m.control.Push(fn.body)
	return nil
}

// callPrimitive runs a Go primitive, converting a panic into an error.
func (m *Machine) callPrimitive(fn *SexpFunction, args []Sexp) (res Sexp, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn.userfun(m, fn.name, args)
}
