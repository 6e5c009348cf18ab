package cse

import (
	"fmt"

	"github.com/cseval/cseval/syntax"
	"github.com/cseval/cseval/tower"
)

// Sexp is a runtime value: anything that can sit on the Stash or be
// bound in a Scope.
type Sexp interface {
	SexpString() string
}

// Tag classifies a result value for hosts that switch on the kind of
// value rather than on its Go type.
type Tag int

const (
	TagNumber Tag = iota + 1
	TagComplex
	TagString
	TagBool
	TagSymbol
	TagNil
	TagPair
	TagList
	TagVector
	TagClosure
	TagPrimitive
	TagVoid
	TagError
	TagPromise

	// TagOpaque is any value type defined outside this package.
	TagOpaque
)

var tagNames = map[Tag]string{
	TagNumber:    "number",
	TagComplex:   "complex",
	TagString:    "string",
	TagBool:      "boolean",
	TagSymbol:    "symbol",
	TagNil:       "nil",
	TagPair:      "pair",
	TagList:      "list",
	TagVector:    "vector",
	TagClosure:   "closure",
	TagPrimitive: "primitive",
	TagVoid:      "void",
	TagError:     "error",
	TagPromise:   "promise",
	TagOpaque:    "opaque",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

func TagOf(x Sexp) Tag {
	switch v := x.(type) {
	case SexpNumber:
		if tower.Simplify(v.Val).Level() == tower.ComplexLevel {
			return TagComplex
		}
		return TagNumber
	case SexpStr:
		return TagString
	case SexpBool:
		return TagBool
	case SexpSymbol:
		return TagSymbol
	case *SexpPair:
		if isProperList(v) {
			return TagList
		}
		return TagPair
	case *SexpVector:
		return TagVector
	case *SexpFunction:
		if v.user {
			return TagPrimitive
		}
		return TagClosure
	case *SexpError:
		return TagError
	case *SexpPromise:
		return TagPromise
	case SexpSentinel:
		if v == SexpNull {
			return TagNil
		}
		return TagVoid
	}
	return TagOpaque
}

type SexpNumber struct {
	Val tower.Number
}

func Num(n tower.Number) SexpNumber { return SexpNumber{Val: n} }

func Int(i int64) SexpNumber { return SexpNumber{Val: tower.NewInteger(i)} }

func (n SexpNumber) SexpString() string { return n.Val.String() }

type SexpStr string

func (s SexpStr) SexpString() string { return fmt.Sprintf("%q", string(s)) }

type SexpBool bool

func (b SexpBool) SexpString() string {
	if b {
		return "#t"
	}
	return "#f"
}

type SexpSymbol string

func (s SexpSymbol) SexpString() string { return renderSymbol(string(s)) }

type SexpSentinel int

const (
	SexpNull SexpSentinel = iota
	SexpVoid

	// SexpDeferred is returned by a primitive that has scheduled its
	// result on Control instead of computing it directly.
	SexpDeferred
)

func (sent SexpSentinel) SexpString() string {
	switch sent {
	case SexpNull:
		return "()"
	case SexpVoid:
		return "#<void>"
	case SexpDeferred:
		return "#<deferred>"
	}
	return fmt.Sprintf("#<sentinel %d>", int(sent))
}

// SexpPair is a mutable cons cell.
type SexpPair struct {
	Head Sexp
	Tail Sexp
}

func Cons(a, b Sexp) *SexpPair { return &SexpPair{Head: a, Tail: b} }

func (p *SexpPair) SexpString() string { return Render(p) }

type SexpVector struct {
	Val []Sexp
}

func (v *SexpVector) SexpString() string { return Render(v) }

// SexpError is an evaluation failure carried as a value.
type SexpError struct {
	Msg string
}

func (e *SexpError) SexpString() string { return "Error: " + e.Msg }

// SexpPromise is produced by delay. The thunk runs at most once.
type SexpPromise struct {
	thunk Sexp
	done  bool
	val   Sexp
}

func (p *SexpPromise) SexpString() string {
	if p.done {
		return "#<promise (forced)>"
	}
	return "#<promise>"
}

// SexpFunction is either a closure over a lambda body, or a primitive
// implemented in Go (user == true).
type SexpFunction struct {
	name    string
	user    bool
	userfun UserFunction

	params []string
	rest   string
	body   *syntax.Sequence

	closingOverScope *Scope
}

// UserFunction implements a primitive. Returning SexpDeferred tells the
// machine that the result will be produced by items the primitive pushed
// onto Control.
type UserFunction func(m *Machine, name string, args []Sexp) (Sexp, error)

func MakeUserFunction(name string, ufun UserFunction) *SexpFunction {
	return &SexpFunction{name: name, user: true, userfun: ufun}
}

func (sf *SexpFunction) Name() string           { return sf.name }
func (sf *SexpFunction) IsPrimitive() bool      { return sf.user }
func (sf *SexpFunction) SexpString() string     { return Render(sf) }
func (sf *SexpFunction) Closure() *Scope        { return sf.closingOverScope }
func (sf *SexpFunction) Params() []string       { return sf.params }
func (sf *SexpFunction) Body() *syntax.Sequence { return sf.body }

// splice is the intermediate value of an unquote-splicing element; List
// and Vector assembly flattens it into the enclosing aggregate.
type splice struct {
	val Sexp
}

func (s *splice) SexpString() string { return ",@" + Render(s.val) }

func isTruthy(x Sexp) bool {
	switch v := x.(type) {
	case SexpBool:
		return bool(v)
	case SexpSentinel:
		return v != SexpNull
	}
	return true
}

func isProperList(x Sexp) bool {
	seen := make(map[*SexpPair]bool)
	for {
		switch v := x.(type) {
		case SexpSentinel:
			return v == SexpNull
		case *SexpPair:
			if seen[v] {
				return false
			}
			seen[v] = true
			x = v.Tail
		default:
			return false
		}
	}
}

// ListToArray copies the elements of a proper list.
func ListToArray(x Sexp) ([]Sexp, error) {
	if !isProperList(x) {
		return nil, fmt.Errorf("not a proper list: %s", Render(x))
	}
	var r []Sexp
	for p, ok := x.(*SexpPair); ok; p, ok = p.Tail.(*SexpPair) {
		r = append(r, p.Head)
	}
	return r, nil
}

func MakeList(items []Sexp) Sexp {
	return MakeDotted(items, SexpNull)
}

func MakeDotted(items []Sexp, tail Sexp) Sexp {
	r := tail
	for i := len(items) - 1; i >= 0; i-- {
		r = Cons(items[i], r)
	}
	return r
}
