package tower

import (
	"fmt"
	"math"
	"math/big"
)

var (
	Zero = NewInteger(0)
	One  = NewInteger(1)
)

// Promote lifts n to the given level without any demotion of the result,
// so intermediate computations stay at a predictable level.
func Promote(n Number, to Level) (Number, error) {
	from := n.Level()
	if from == to {
		return n, nil
	}
	if from > to {
		return nil, fmt.Errorf("%w: cannot promote %s to %s", ErrIllegalDemotion, from, to)
	}
	switch to {
	case RationalLevel:
		x := n.(*Integer)
		return &Rational{num: x.Big(), den: big.NewInt(1)}, nil
	case RealLevel:
		f, err := ToFloat(n)
		if err != nil {
			return nil, err
		}
		return NewReal(f), nil
	case ComplexLevel:
		return NewComplex(n, Zero, true)
	}
	return nil, fmt.Errorf("%w: unknown level %v", ErrWrongType, to)
}

// Demote lowers n to the given level when that is lossless, and fails
// otherwise. Inexact reals never demote to the exact levels.
func Demote(n Number, to Level) (Number, error) {
	n = Simplify(n)
	if n.Level() <= to {
		return n, nil
	}
	if c, ok := n.(*Complex); ok {
		return nil, fmt.Errorf("%w: %s has a non-zero imaginary part", ErrIllegalDemotion, c.String())
	}
	if n.Level() == RealLevel {
		return nil, fmt.Errorf("%w: %s is inexact", ErrIllegalDemotion, n.String())
	}
	return nil, fmt.Errorf("%w: %s is not representable as %s", ErrIllegalDemotion, n.String(), to)
}

// Simplify demotes where lossless: a Rational over 1 becomes an Integer and
// a Complex with a zero imaginary part becomes its real part.
func Simplify(n Number) Number {
	switch x := n.(type) {
	case *Rational:
		if x.den.Cmp(bigOne) == 0 {
			return &Integer{val: x.num}
		}
	case *Complex:
		re := Simplify(x.re)
		im := Simplify(x.im)
		if im.IsZero() {
			return re
		}
		if re != x.re || im != x.im {
			return &Complex{re: re, im: im}
		}
	}
	return n
}

// Equalify promotes both operands to the more general of their two levels.
func Equalify(a, b Number) (Number, Number, error) {
	lvl := a.Level()
	if b.Level() > lvl {
		lvl = b.Level()
	}
	pa, err := Promote(a, lvl)
	if err != nil {
		return nil, nil, err
	}
	pb, err := Promote(b, lvl)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

func Add(a, b Number) (Number, error) {
	ea, eb, err := Equalify(a, b)
	if err != nil {
		return nil, err
	}
	switch x := ea.(type) {
	case *Integer:
		y := eb.(*Integer)
		return &Integer{val: new(big.Int).Add(x.val, y.val)}, nil
	case *Rational:
		y := eb.(*Rational)
		num := new(big.Int).Mul(x.num, y.den)
		num.Add(num, new(big.Int).Mul(y.num, x.den))
		return NewRational(num, new(big.Int).Mul(x.den, y.den), false)
	case *Real:
		return NewReal(x.val + eb.(*Real).val), nil
	case *Complex:
		y := eb.(*Complex)
		re, err := Add(x.re, y.re)
		if err != nil {
			return nil, err
		}
		im, err := Add(x.im, y.im)
		if err != nil {
			return nil, err
		}
		return NewComplex(re, im, false)
	}
	return nil, ErrWrongType
}

func Multiply(a, b Number) (Number, error) {
	ea, eb, err := Equalify(a, b)
	if err != nil {
		return nil, err
	}
	switch x := ea.(type) {
	case *Integer:
		y := eb.(*Integer)
		return &Integer{val: new(big.Int).Mul(x.val, y.val)}, nil
	case *Rational:
		y := eb.(*Rational)
		return NewRational(new(big.Int).Mul(x.num, y.num), new(big.Int).Mul(x.den, y.den), false)
	case *Real:
		return NewReal(x.val * eb.(*Real).val), nil
	case *Complex:
		// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
		y := eb.(*Complex)
		ac, err := Multiply(x.re, y.re)
		if err != nil {
			return nil, err
		}
		bd, err := Multiply(x.im, y.im)
		if err != nil {
			return nil, err
		}
		ad, err := Multiply(x.re, y.im)
		if err != nil {
			return nil, err
		}
		bc, err := Multiply(x.im, y.re)
		if err != nil {
			return nil, err
		}
		re, err := Subtract(ac, bd)
		if err != nil {
			return nil, err
		}
		im, err := Add(ad, bc)
		if err != nil {
			return nil, err
		}
		return NewComplex(re, im, false)
	}
	return nil, ErrWrongType
}

func Negate(n Number) (Number, error) {
	switch x := n.(type) {
	case *Integer:
		return &Integer{val: new(big.Int).Neg(x.val)}, nil
	case *Rational:
		return &Rational{num: new(big.Int).Neg(x.num), den: new(big.Int).Set(x.den)}, nil
	case *Real:
		return NewReal(-x.val), nil
	case *Complex:
		re, err := Negate(x.re)
		if err != nil {
			return nil, err
		}
		im, err := Negate(x.im)
		if err != nil {
			return nil, err
		}
		return NewComplex(re, im, false)
	}
	return nil, ErrWrongType
}

// Inverse returns the multiplicative inverse 1/n.
func Inverse(n Number) (Number, error) {
	switch x := n.(type) {
	case *Integer:
		if x.IsZero() {
			return nil, ErrDivisionByZero
		}
		return NewRational(big.NewInt(1), x.val, false)
	case *Rational:
		if x.IsZero() {
			return nil, ErrDivisionByZero
		}
		return NewRational(x.den, x.num, false)
	case *Real:
		if x.val == 0 {
			return nil, ErrDivisionByZero
		}
		return NewReal(1 / x.val), nil
	case *Complex:
		// 1/(a+bi) = (a-bi)/(a^2+b^2)
		if x.IsZero() {
			return nil, ErrDivisionByZero
		}
		aa, err := Multiply(x.re, x.re)
		if err != nil {
			return nil, err
		}
		bb, err := Multiply(x.im, x.im)
		if err != nil {
			return nil, err
		}
		norm, err := Add(aa, bb)
		if err != nil {
			return nil, err
		}
		inv, err := Inverse(norm)
		if err != nil {
			return nil, err
		}
		re, err := Multiply(x.re, inv)
		if err != nil {
			return nil, err
		}
		negIm, err := Negate(x.im)
		if err != nil {
			return nil, err
		}
		im, err := Multiply(negIm, inv)
		if err != nil {
			return nil, err
		}
		return NewComplex(re, im, false)
	}
	return nil, ErrWrongType
}

func Subtract(a, b Number) (Number, error) {
	nb, err := Negate(b)
	if err != nil {
		return nil, err
	}
	return Add(a, nb)
}

func Divide(a, b Number) (Number, error) {
	ib, err := Inverse(b)
	if err != nil {
		return nil, err
	}
	return Multiply(a, ib)
}

// Equals compares numerically across levels, so (= 1 1.0) holds.
func Equals(a, b Number) (bool, error) {
	ea, eb, err := Equalify(a, b)
	if err != nil {
		return false, err
	}
	switch x := ea.(type) {
	case *Integer:
		return x.val.Cmp(eb.(*Integer).val) == 0, nil
	case *Rational:
		y := eb.(*Rational)
		return x.num.Cmp(y.num) == 0 && x.den.Cmp(y.den) == 0, nil
	case *Real:
		return x.val == eb.(*Real).val, nil
	case *Complex:
		y := eb.(*Complex)
		re, err := Equals(x.re, y.re)
		if err != nil || !re {
			return false, err
		}
		return Equals(x.im, y.im)
	}
	return false, ErrWrongType
}

func GreaterThan(a, b Number) (bool, error) {
	ea, eb, err := Equalify(a, b)
	if err != nil {
		return false, err
	}
	switch x := ea.(type) {
	case *Integer:
		return x.val.Cmp(eb.(*Integer).val) > 0, nil
	case *Rational:
		y := eb.(*Rational)
		l := new(big.Int).Mul(x.num, y.den)
		r := new(big.Int).Mul(y.num, x.den)
		return l.Cmp(r) > 0, nil
	case *Real:
		return x.val > eb.(*Real).val, nil
	case *Complex:
		return false, ErrNotOrdered
	}
	return false, ErrWrongType
}

func LessThan(a, b Number) (bool, error) {
	return GreaterThan(b, a)
}

// GreaterOrEqual is false whenever either side is NaN, like the strict
// comparisons.
func GreaterOrEqual(a, b Number) (bool, error) {
	gt, err := GreaterThan(a, b)
	if err != nil || gt {
		return gt, err
	}
	return Equals(a, b)
}

func LessOrEqual(a, b Number) (bool, error) {
	return GreaterOrEqual(b, a)
}

// Sign reports -1, 0 or +1 for a real-valued number; NaN reports 0.
func Sign(n Number) (int, error) {
	switch x := n.(type) {
	case *Integer:
		return x.val.Sign(), nil
	case *Rational:
		return x.num.Sign(), nil
	case *Real:
		switch {
		case x.val > 0:
			return 1, nil
		case x.val < 0:
			return -1, nil
		}
		return 0, nil
	}
	return 0, ErrNotOrdered
}

func Abs(n Number) (Number, error) {
	s, err := Sign(n)
	if err != nil {
		return nil, err
	}
	if s < 0 {
		return Negate(n)
	}
	return n, nil
}

// IntegerOp names the exact integer division operations.
type IntegerOp int

const (
	Quotient IntegerOp = iota
	Remainder
	Modulo
)

// IntegerDo applies an exact integer division operation. The result of
// Modulo takes the sign of the divisor, Remainder that of the dividend.
func IntegerDo(op IntegerOp, a, b Number) (Number, error) {
	ia, ok := a.(*Integer)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an exact integer", ErrWrongType, a.String())
	}
	ib, ok := b.(*Integer)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an exact integer", ErrWrongType, b.String())
	}
	if ib.IsZero() {
		return nil, ErrDivisionByZero
	}
	switch op {
	case Quotient:
		return &Integer{val: new(big.Int).Quo(ia.val, ib.val)}, nil
	case Remainder:
		return &Integer{val: new(big.Int).Rem(ia.val, ib.val)}, nil
	case Modulo:
		r := new(big.Int).Rem(ia.val, ib.val)
		if r.Sign() != 0 && r.Sign() != ib.val.Sign() {
			r.Add(r, ib.val)
		}
		return &Integer{val: r}, nil
	}
	return nil, fmt.Errorf("unrecognized integer operation %d", op)
}

// Sqrt is exact for perfect squares, inexact otherwise, and yields a
// purely imaginary number for negative reals.
func Sqrt(n Number) (Number, error) {
	if x, ok := n.(*Integer); ok && x.val.Sign() >= 0 {
		r := new(big.Int).Sqrt(x.val)
		if new(big.Int).Mul(r, r).Cmp(x.val) == 0 {
			return &Integer{val: r}, nil
		}
	}
	if n.Level() == ComplexLevel {
		return nil, fmt.Errorf("%w: sqrt of a complex number", ErrWrongType)
	}
	f, err := ToFloat(n)
	if err != nil {
		return nil, err
	}
	if f < 0 {
		if x, ok := n.(*Integer); ok {
			im, err := Sqrt(&Integer{val: new(big.Int).Neg(x.val)})
			if err != nil {
				return nil, err
			}
			return NewComplex(Zero, im, false)
		}
		return NewComplex(NewReal(0), NewReal(math.Sqrt(-f)), false)
	}
	return NewReal(math.Sqrt(f)), nil
}

// IsInteger holds for exact integers and for finite integral reals.
func IsInteger(n Number) bool {
	switch x := Simplify(n).(type) {
	case *Integer:
		return true
	case *Real:
		return !math.IsInf(x.val, 0) && !math.IsNaN(x.val) && x.val == math.Trunc(x.val)
	}
	return false
}

func IsRational(n Number) bool {
	switch x := Simplify(n).(type) {
	case *Integer, *Rational:
		return true
	case *Real:
		return !math.IsInf(x.val, 0) && !math.IsNaN(x.val)
	}
	return false
}

func IsReal(n Number) bool {
	return Simplify(n).Level() <= RealLevel
}

// ToInexact converts every exact part to a Real.
func ToInexact(n Number) (Number, error) {
	switch x := n.(type) {
	case *Complex:
		re, err := ToInexact(x.re)
		if err != nil {
			return nil, err
		}
		im, err := ToInexact(x.im)
		if err != nil {
			return nil, err
		}
		return NewComplex(re, im, false)
	case *Real:
		return x, nil
	}
	return Promote(n, RealLevel)
}
