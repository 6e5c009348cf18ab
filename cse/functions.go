package cse

import (
	"fmt"
	"strings"

	"github.com/cseval/cseval/tower"
)

func ConsFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 2 {
		return SexpNull, WrongNargs
	}
	return Cons(args[0], args[1]), nil
}

func getPair(x Sexp) (*SexpPair, error) {
	p, ok := x.(*SexpPair)
	if !ok {
		return nil, fmt.Errorf("expected a pair, got %s", Render(x))
	}
	return p, nil
}

func CarFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	p, err := getPair(args[0])
	if err != nil {
		return SexpNull, err
	}
	return p.Head, nil
}

func CdrFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	p, err := getPair(args[0])
	if err != nil {
		return SexpNull, err
	}
	return p.Tail, nil
}

func SetPairFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 2 {
			return SexpNull, WrongNargs
		}
		p, err := getPair(args[0])
		if err != nil {
			return SexpNull, err
		}
		if name == "set-car!" {
			p.Head = args[1]
		} else {
			p.Tail = args[1]
		}
		return SexpVoid, nil
	}
}

func ListFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	return MakeList(args), nil
}

func LengthFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	items, err := ListToArray(args[0])
	if err != nil {
		return SexpNull, err
	}
	return Int(int64(len(items))), nil
}

// AppendFunction copies every list but the last, which becomes the
// shared tail and need not be a list.
func AppendFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) == 0 {
		return SexpNull, nil
	}
	var items []Sexp
	for _, a := range args[:len(args)-1] {
		xs, err := ListToArray(a)
		if err != nil {
			return SexpNull, err
		}
		items = append(items, xs...)
	}
	return MakeDotted(items, args[len(args)-1]), nil
}

func ReverseFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	items, err := ListToArray(args[0])
	if err != nil {
		return SexpNull, err
	}
	var r Sexp = SexpNull
	for _, it := range items {
		r = Cons(it, r)
	}
	return r, nil
}

func ListRefFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 2 {
		return SexpNull, WrongNargs
	}
	k, err := getInt(args[1])
	if err != nil {
		return SexpNull, err
	}
	cur := args[0]
	for i := 0; ; i++ {
		p, ok := cur.(*SexpPair)
		if !ok || k < 0 {
			return SexpNull, fmt.Errorf("index %d out of range for %s", k, Render(args[0]))
		}
		if i == k {
			return p.Head, nil
		}
		cur = p.Tail
	}
}

// TypeQueryFunction implements the one-argument type predicates.
func TypeQueryFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 1 {
			return SexpNull, WrongNargs
		}
		x := args[0]
		var r bool
		switch name {
		case "null?":
			r = x == SexpNull
		case "pair?":
			_, r = x.(*SexpPair)
		case "list?":
			r = isProperList(x)
		case "boolean?":
			_, r = x.(SexpBool)
		case "string?":
			_, r = x.(SexpStr)
		case "symbol?":
			_, r = x.(SexpSymbol)
		case "procedure?":
			_, r = x.(*SexpFunction)
		case "vector?":
			_, r = x.(*SexpVector)
		case "promise?":
			_, r = x.(*SexpPromise)
		case "error?":
			_, r = x.(*SexpError)
		default:
			return SexpNull, fmt.Errorf("unknown type query %s", name)
		}
		return SexpBool(r), nil
	}
}

func NotFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	return SexpBool(!isTruthy(args[0])), nil
}

// Eqv is identity on pointers and value equality on atoms. Numbers are
// eqv when they have the same exactness and are numerically equal.
func Eqv(a, b Sexp) bool {
	if na, ok := a.(SexpNumber); ok {
		nb, ok := b.(SexpNumber)
		if !ok || na.Val.IsExact() != nb.Val.IsExact() {
			return false
		}
		eq, err := tower.Equals(na.Val, nb.Val)
		return err == nil && eq
	}
	return a == b
}

// Equal compares pairs and vectors structurally, and everything else
// with Eqv.
func Equal(a, b Sexp) bool {
	switch x := a.(type) {
	case *SexpPair:
		y, ok := b.(*SexpPair)
		if !ok {
			return false
		}
		for {
			if !Equal(x.Head, y.Head) {
				return false
			}
			xt, xok := x.Tail.(*SexpPair)
			yt, yok := y.Tail.(*SexpPair)
			if !xok || !yok {
				return Equal(x.Tail, y.Tail)
			}
			if xt == x || yt == y {
				return xt == yt
			}
			x, y = xt, yt
		}
	case *SexpVector:
		y, ok := b.(*SexpVector)
		if !ok || len(x.Val) != len(y.Val) {
			return false
		}
		for i := range x.Val {
			if !Equal(x.Val[i], y.Val[i]) {
				return false
			}
		}
		return true
	}
	return Eqv(a, b)
}

func EquivalenceFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 2 {
			return SexpNull, WrongNargs
		}
		if name == "equal?" {
			return SexpBool(Equal(args[0], args[1])), nil
		}
		return SexpBool(Eqv(args[0], args[1])), nil
	}
}

func getString(x Sexp) (string, error) {
	s, ok := x.(SexpStr)
	if !ok {
		return "", fmt.Errorf("expected a string, got %s", Render(x))
	}
	return string(s), nil
}

func StringAppendFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	var b strings.Builder
	for _, a := range args {
		s, err := getString(a)
		if err != nil {
			return SexpNull, err
		}
		b.WriteString(s)
	}
	return SexpStr(b.String()), nil
}

func StringLengthFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	s, err := getString(args[0])
	if err != nil {
		return SexpNull, err
	}
	return Int(int64(len([]rune(s)))), nil
}

func SymbolToStringFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	s, ok := args[0].(SexpSymbol)
	if !ok {
		return SexpNull, fmt.Errorf("expected a symbol, got %s", Render(args[0]))
	}
	return SexpStr(s), nil
}

func StringToSymbolFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	s, err := getString(args[0])
	if err != nil {
		return SexpNull, err
	}
	return SexpSymbol(s), nil
}

func getVector(x Sexp) (*SexpVector, error) {
	v, ok := x.(*SexpVector)
	if !ok {
		return nil, fmt.Errorf("expected a vector, got %s", Render(x))
	}
	return v, nil
}

func VectorFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	val := make([]Sexp, len(args))
	copy(val, args)
	return &SexpVector{Val: val}, nil
}

func MakeVectorFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) < 1 || len(args) > 2 {
		return SexpNull, WrongNargs
	}
	n, err := getInt(args[0])
	if err != nil {
		return SexpNull, err
	}
	if n < 0 {
		return SexpNull, fmt.Errorf("negative vector size %d", n)
	}
	var fill Sexp = SexpVoid
	if len(args) == 2 {
		fill = args[1]
	}
	val := make([]Sexp, n)
	for i := range val {
		val[i] = fill
	}
	return &SexpVector{Val: val}, nil
}

func vectorIndex(v *SexpVector, x Sexp) (int, error) {
	i, err := getInt(x)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(v.Val) {
		return 0, fmt.Errorf("index %d out of range for a vector of length %d", i, len(v.Val))
	}
	return i, nil
}

func VectorRefFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 2 {
		return SexpNull, WrongNargs
	}
	v, err := getVector(args[0])
	if err != nil {
		return SexpNull, err
	}
	i, err := vectorIndex(v, args[1])
	if err != nil {
		return SexpNull, err
	}
	return v.Val[i], nil
}

func VectorSetFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 3 {
		return SexpNull, WrongNargs
	}
	v, err := getVector(args[0])
	if err != nil {
		return SexpNull, err
	}
	i, err := vectorIndex(v, args[1])
	if err != nil {
		return SexpNull, err
	}
	v.Val[i] = args[2]
	return SexpVoid, nil
}

func VectorLengthFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	v, err := getVector(args[0])
	if err != nil {
		return SexpNull, err
	}
	return Int(int64(len(v.Val))), nil
}

func VectorToListFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	v, err := getVector(args[0])
	if err != nil {
		return SexpNull, err
	}
	return MakeList(v.Val), nil
}

func ListToVectorFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	items, err := ListToArray(args[0])
	if err != nil {
		return SexpNull, err
	}
	return &SexpVector{Val: items}, nil
}

func DisplayFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	fmt.Fprint(m.Stdout(), Display(args[0]))
	return SexpVoid, nil
}

func NewlineFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 0 {
		return SexpNull, WrongNargs
	}
	fmt.Fprintln(m.Stdout())
	return SexpVoid, nil
}

// ErrorFunction raises a user error; the message is followed by the
// written form of any irritants.
func ErrorFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) == 0 {
		return SexpNull, WrongNargs
	}
	parts := []string{Display(args[0])}
	for _, irritant := range args[1:] {
		parts = append(parts, Render(irritant))
	}
	return SexpNull, &EvalError{Msg: strings.Join(parts, " ")}
}
