package cse

import (
	"github.com/cseval/cseval/syntax"
)

// The functions in this file act on the machine itself: they schedule
// work on Control and return SexpDeferred instead of a value.

// EvalFunction writes its datum back out as source, parses that in eval
// mode at the machine's chapter, and evaluates the result in the
// current environment.
func EvalFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	switch args[0].(type) {
	case SexpNumber, SexpStr, SexpBool, *SexpFunction, *SexpError, *SexpPromise, SexpSentinel:
		return args[0], nil
	}
	src := Render(args[0])
	nodes, err := syntax.NewParser(src, m.opts.Chapter, syntax.WithEvalMode()).Parse()
	if err != nil {
		return SexpNull, err
	}
	m.control.Push(&syntax.Sequence{Body: syntax.Desugar(nodes)})
	return SexpDeferred, nil
}

// ApplyFunction: (apply f a ... lst) calls f with the a's followed by
// the elements of lst.
func ApplyFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) < 2 {
		return SexpNull, WrongNargs
	}
	last, err := ListToArray(args[len(args)-1])
	if err != nil {
		return SexpNull, err
	}
	callArgs := append(append([]Sexp{}, args[1:len(args)-1]...), last...)
	if err := m.apply(args[0], callArgs); err != nil {
		return SexpNull, err
	}
	return SexpDeferred, nil
}

// ForceFunction runs a promise's thunk the first time and remembers the
// value. Forcing anything that is not a promise gives it back.
func ForceFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	p, ok := args[0].(*SexpPromise)
	if !ok {
		return args[0], nil
	}
	if p.done {
		return p.val, nil
	}
	m.control.Push(MemoizeInstr{P: p})
	if err := m.apply(p.thunk, nil); err != nil {
		return SexpNull, err
	}
	return SexpDeferred, nil
}

func MakePromiseFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	switch x := args[0].(type) {
	case *SexpPromise:
		return x, nil
	case *SexpFunction:
		return &SexpPromise{thunk: x}, nil
	}
	return &SexpPromise{done: true, val: args[0]}, nil
}
