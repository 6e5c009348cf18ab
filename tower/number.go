package tower

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Level orders the numeric types by generality. Promotion moves a value
// to a higher Level; demotion is only ever done when it is lossless.
type Level int

const (
	IntegerLevel Level = iota + 1
	RationalLevel
	RealLevel
	ComplexLevel
)

func (l Level) String() string {
	switch l {
	case IntegerLevel:
		return "integer"
	case RationalLevel:
		return "rational"
	case RealLevel:
		return "real"
	case ComplexLevel:
		return "complex"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrInvalidNumber   = errors.New("invalid numeric literal")
	ErrIllegalDemotion = errors.New("illegal demotion")
	ErrNotOrdered      = errors.New("complex numbers are not ordered")
	ErrWrongType       = errors.New("operand has invalid numeric type")
)

// Number is one value of the tower. All implementations are immutable.
type Number interface {
	Level() Level
	String() string
	IsExact() bool
	IsZero() bool
}

// Integer is an exact integer of arbitrary precision.
type Integer struct {
	val *big.Int
}

func NewInteger(i int64) *Integer {
	return &Integer{val: big.NewInt(i)}
}

// NewBigInteger copies b, so the caller may keep mutating it.
func NewBigInteger(b *big.Int) *Integer {
	return &Integer{val: new(big.Int).Set(b)}
}

func (z *Integer) Level() Level  { return IntegerLevel }
func (z *Integer) IsExact() bool { return true }
func (z *Integer) IsZero() bool  { return z.val.Sign() == 0 }
func (z *Integer) String() string {
	return z.val.String()
}

// Big returns a copy of the underlying value.
func (z *Integer) Big() *big.Int {
	return new(big.Int).Set(z.val)
}

func (z *Integer) Int64() (int64, bool) {
	if !z.val.IsInt64() {
		return 0, false
	}
	return z.val.Int64(), true
}

// Rational is an exact fraction, always in lowest terms with the sign
// carried by the numerator and a strictly positive denominator.
type Rational struct {
	num *big.Int
	den *big.Int
}

// NewRational reduces num/den by their gcd and normalizes the sign. Unless
// force is set, a denominator of 1 yields an *Integer instead.
func NewRational(num, den *big.Int, force bool) (Number, error) {
	if den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	n := new(big.Int).Set(num)
	d := new(big.Int).Set(den)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	if g.Sign() != 0 && g.Cmp(bigOne) != 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	if !force && d.Cmp(bigOne) == 0 {
		return &Integer{val: n}, nil
	}
	return &Rational{num: n, den: d}, nil
}

func (q *Rational) Level() Level  { return RationalLevel }
func (q *Rational) IsExact() bool { return true }
func (q *Rational) IsZero() bool  { return q.num.Sign() == 0 }
func (q *Rational) String() string {
	return q.num.String() + "/" + q.den.String()
}

func (q *Rational) Num() *big.Int { return new(big.Int).Set(q.num) }
func (q *Rational) Den() *big.Int { return new(big.Int).Set(q.den) }

// Real is an inexact floating point number, including the infinities,
// NaN and signed zero.
type Real struct {
	val float64
}

func NewReal(f float64) *Real {
	return &Real{val: f}
}

func (r *Real) Level() Level     { return RealLevel }
func (r *Real) IsExact() bool    { return false }
func (r *Real) IsZero() bool     { return r.val == 0 }
func (r *Real) Float64() float64 { return r.val }

func (r *Real) String() string {
	f := r.val
	switch {
	case math.IsNaN(f):
		return "+nan.0"
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Complex holds a real and an imaginary part, each of which is an
// Integer, Rational or Real; never another Complex.
type Complex struct {
	re Number
	im Number
}

// NewComplex builds re+im*i. Unless force is set, a zero imaginary part
// yields re itself.
func NewComplex(re, im Number, force bool) (Number, error) {
	if re.Level() == ComplexLevel || im.Level() == ComplexLevel {
		return nil, fmt.Errorf("%w: complex parts must be real", ErrWrongType)
	}
	c := &Complex{re: Simplify(re), im: Simplify(im)}
	if force {
		return c, nil
	}
	return Simplify(c), nil
}

func (c *Complex) Level() Level  { return ComplexLevel }
func (c *Complex) IsExact() bool { return c.re.IsExact() && c.im.IsExact() }
func (c *Complex) IsZero() bool  { return c.re.IsZero() && c.im.IsZero() }
func (c *Complex) Real() Number  { return c.re }
func (c *Complex) Imag() Number  { return c.im }

func (c *Complex) String() string {
	im := c.im.String()
	if !strings.HasPrefix(im, "+") && !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	if c.re.IsExact() && c.re.IsZero() {
		return im + "i"
	}
	return c.re.String() + im + "i"
}

var (
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	safeInt = new(big.Int).Lsh(big.NewInt(1), 53)
)

// ToFloat coerces a real-valued number to float64. Integers too large for
// a float64 saturate to an infinity. A Rational whose parts exceed 2^53 has
// both parts halved together (losing precision) until they fit, so the final
// division never overflows.
func ToFloat(n Number) (float64, error) {
	switch x := n.(type) {
	case *Integer:
		f, _ := new(big.Float).SetInt(x.val).Float64()
		return f, nil
	case *Rational:
		num := new(big.Int).Set(x.num)
		den := new(big.Int).Set(x.den)
		for new(big.Int).Abs(num).Cmp(safeInt) > 0 || den.Cmp(safeInt) > 0 {
			num.Quo(num, bigTwo)
			den.Quo(den, bigTwo)
			if den.Sign() == 0 {
				switch num.Sign() {
				case 1:
					return math.Inf(1), nil
				case -1:
					return math.Inf(-1), nil
				}
				return 0, nil
			}
		}
		return float64(num.Int64()) / float64(den.Int64()), nil
	case *Real:
		return x.val, nil
	}
	return 0, fmt.Errorf("%w: cannot convert %s to a real", ErrWrongType, n.String())
}
