package cse

import (
	"fmt"
	"math"

	"github.com/cseval/cseval/tower"
)

func getNumber(x Sexp) (tower.Number, error) {
	n, ok := x.(SexpNumber)
	if !ok {
		return nil, fmt.Errorf("expected a number, got %s", Render(x))
	}
	return n.Val, nil
}

func getNumbers(args []Sexp) ([]tower.Number, error) {
	r := make([]tower.Number, len(args))
	for i, a := range args {
		n, err := getNumber(a)
		if err != nil {
			return nil, err
		}
		r[i] = n
	}
	return r, nil
}

func getInt(x Sexp) (int, error) {
	n, err := getNumber(x)
	if err != nil {
		return 0, err
	}
	i, ok := tower.Simplify(n).(*tower.Integer)
	if !ok {
		return 0, fmt.Errorf("expected an exact integer, got %s", n)
	}
	v, ok := i.Int64()
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("integer %s out of range", n)
	}
	return int(v), nil
}

type foldOp func(a, b tower.Number) (tower.Number, error)

// ArithFunction folds + - * / over its arguments. With no arguments +
// and * give their identities; with one, - negates and / inverts.
func ArithFunction(name string) UserFunction {
	var op foldOp
	var unit tower.Number
	var unary func(tower.Number) (tower.Number, error)
	switch name {
	case "+":
		op, unit = tower.Add, tower.Zero
	case "*":
		op, unit = tower.Multiply, tower.One
	case "-":
		op, unary = tower.Subtract, tower.Negate
	case "/":
		op, unary = tower.Divide, tower.Inverse
	default:
		panic("unknown arithmetic operator " + name)
	}

	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		nums, err := getNumbers(args)
		if err != nil {
			return SexpNull, err
		}
		var acc tower.Number
		switch {
		case len(nums) == 0 && unit == nil:
			return SexpNull, WrongNargs
		case len(nums) == 0:
			return Num(unit), nil
		case len(nums) == 1 && unary != nil:
			acc, err = unary(nums[0])
			if err != nil {
				return SexpNull, err
			}
			return Num(tower.Simplify(acc)), nil
		}
		acc = nums[0]
		for _, n := range nums[1:] {
			acc, err = op(acc, n)
			if err != nil {
				return SexpNull, err
			}
		}
		return Num(tower.Simplify(acc)), nil
	}
}

// CompareFunction chains a numeric comparison across its arguments:
// (< a b c) holds when a < b and b < c.
func CompareFunction(name string) UserFunction {
	return func(m *Machine, _ string, args []Sexp) (Sexp, error) {
		if len(args) < 1 {
			return SexpNull, WrongNargs
		}
		nums, err := getNumbers(args)
		if err != nil {
			return SexpNull, err
		}
		for i := 0; i+1 < len(nums); i++ {
			a, b := nums[i], nums[i+1]
			var cond bool
			switch name {
			case "=":
				cond, err = tower.Equals(a, b)
			case "<":
				cond, err = tower.LessThan(a, b)
			case ">":
				cond, err = tower.GreaterThan(a, b)
			case "<=":
				cond, err = tower.LessOrEqual(a, b)
			case ">=":
				cond, err = tower.GreaterOrEqual(a, b)
			}
			if err != nil {
				return SexpNull, err
			}
			if !cond {
				return SexpBool(false), nil
			}
		}
		return SexpBool(true), nil
	}
}

func IntegerDivFunction(name string) UserFunction {
	op := map[string]tower.IntegerOp{
		"quotient":  tower.Quotient,
		"remainder": tower.Remainder,
		"modulo":    tower.Modulo,
	}[name]
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 2 {
			return SexpNull, WrongNargs
		}
		nums, err := getNumbers(args)
		if err != nil {
			return SexpNull, err
		}
		a, b := tower.Simplify(nums[0]), tower.Simplify(nums[1])
		if tower.IsInteger(a) && tower.IsInteger(b) && (a.Level() == tower.RealLevel || b.Level() == tower.RealLevel) {
			fa, _ := tower.ToFloat(a)
			fb, _ := tower.ToFloat(b)
			if fb == 0 {
				return SexpNull, tower.ErrDivisionByZero
			}
			var r float64
			switch op {
			case tower.Quotient:
				r = math.Trunc(fa / fb)
			case tower.Remainder:
				r = math.Mod(fa, fb)
			case tower.Modulo:
				r = math.Mod(fa, fb)
				if r != 0 && (r < 0) != (fb < 0) {
					r += fb
				}
			}
			return Num(tower.NewReal(r)), nil
		}
		r, err := tower.IntegerDo(op, a, b)
		if err != nil {
			return SexpNull, err
		}
		return Num(r), nil
	}
}

// ExtremumFunction implements max and min. The result is inexact when
// any argument is.
func ExtremumFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) < 1 {
			return SexpNull, WrongNargs
		}
		nums, err := getNumbers(args)
		if err != nil {
			return SexpNull, err
		}
		best := nums[0]
		exact := best.IsExact()
		for _, n := range nums[1:] {
			exact = exact && n.IsExact()
			var better bool
			if name == "max" {
				better, err = tower.GreaterThan(n, best)
			} else {
				better, err = tower.LessThan(n, best)
			}
			if err != nil {
				return SexpNull, err
			}
			if better {
				best = n
			}
		}
		if !exact {
			best, err = tower.ToInexact(best)
			if err != nil {
				return SexpNull, err
			}
		}
		return Num(best), nil
	}
}

// UnaryNumericFunction covers the one-argument numeric operations and
// predicates that require a number.
func UnaryNumericFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 1 {
			return SexpNull, WrongNargs
		}
		n, err := getNumber(args[0])
		if err != nil {
			return SexpNull, err
		}
		switch name {
		case "abs":
			r, err := tower.Abs(n)
			if err != nil {
				return SexpNull, err
			}
			return Num(r), nil
		case "sqrt":
			r, err := tower.Sqrt(n)
			if err != nil {
				return SexpNull, err
			}
			return Num(r), nil
		case "exact->inexact":
			r, err := tower.ToInexact(n)
			if err != nil {
				return SexpNull, err
			}
			return Num(r), nil
		case "exact?":
			return SexpBool(n.IsExact()), nil
		case "inexact?":
			return SexpBool(!n.IsExact()), nil
		case "zero?":
			return SexpBool(n.IsZero()), nil
		case "positive?", "negative?":
			s, err := tower.Sign(n)
			if err != nil {
				return SexpNull, err
			}
			if name == "positive?" {
				return SexpBool(s > 0), nil
			}
			return SexpBool(s < 0), nil
		case "odd?", "even?":
			if !tower.IsInteger(n) {
				return SexpNull, fmt.Errorf("expected an integer, got %s", n)
			}
			odd := false
			switch x := tower.Simplify(n).(type) {
			case *tower.Integer:
				odd = x.Big().Bit(0) == 1
			case *tower.Real:
				odd = math.Mod(x.Float64(), 2) != 0
			}
			if name == "odd?" {
				return SexpBool(odd), nil
			}
			return SexpBool(!odd), nil
		}
		return SexpNull, fmt.Errorf("unknown numeric operation %s", name)
	}
}

// NumberPredicateFunction implements the number type predicates; unlike
// UnaryNumericFunction they accept any value.
func NumberPredicateFunction(name string) UserFunction {
	return func(m *Machine, name string, args []Sexp) (Sexp, error) {
		if len(args) != 1 {
			return SexpNull, WrongNargs
		}
		n, ok := args[0].(SexpNumber)
		if !ok {
			return SexpBool(false), nil
		}
		switch name {
		case "real?":
			return SexpBool(tower.IsReal(n.Val)), nil
		case "rational?":
			return SexpBool(tower.IsRational(n.Val)), nil
		case "integer?":
			return SexpBool(tower.IsInteger(n.Val)), nil
		}
		return SexpBool(true), nil
	}
}

func NumberToStringFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	n, err := getNumber(args[0])
	if err != nil {
		return SexpNull, err
	}
	return SexpStr(n.String()), nil
}

// StringToNumberFunction gives #f, not an error, for a string that is
// not a numeral.
func StringToNumberFunction(m *Machine, name string, args []Sexp) (Sexp, error) {
	if len(args) != 1 {
		return SexpNull, WrongNargs
	}
	s, ok := args[0].(SexpStr)
	if !ok {
		return SexpNull, fmt.Errorf("expected a string, got %s", Render(args[0]))
	}
	n, err := tower.Parse(string(s))
	if err != nil {
		return SexpBool(false), nil
	}
	return Num(n), nil
}
