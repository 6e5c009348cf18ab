package tower

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Match is the structural result of classifying a numeric lexeme. It
// carries enough of the lexeme to Build the value.
type Match interface {
	Level() Level
	Build(force bool) (Number, error)
}

type IntegerMatch struct {
	Sign   string
	Digits string
}

func (m IntegerMatch) Level() Level { return IntegerLevel }

func (m IntegerMatch) Build(force bool) (Number, error) {
	b, ok := new(big.Int).SetString(m.Sign+m.Digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: '%s%s'", ErrInvalidNumber, m.Sign, m.Digits)
	}
	return &Integer{val: b}, nil
}

type RationalMatch struct {
	Numerator   IntegerMatch
	Denominator IntegerMatch
}

func (m RationalMatch) Level() Level { return RationalLevel }

func (m RationalMatch) Build(force bool) (Number, error) {
	num, err := m.Numerator.Build(false)
	if err != nil {
		return nil, err
	}
	den, err := m.Denominator.Build(false)
	if err != nil {
		return nil, err
	}
	return NewRational(num.(*Integer).val, den.(*Integer).val, force)
}

// RealMatch covers the basic form [sign]digits.digits, the four sentinels,
// and the extended form <basic>e<exponent>. Base is set only for the
// extended form.
type RealMatch struct {
	Sign     string
	Integer  string
	Fraction string
	Special  string
	Base     Match
	Exponent Match
}

func (m RealMatch) Level() Level { return RealLevel }

func (m RealMatch) Build(force bool) (Number, error) {
	switch m.Special {
	case "+inf.0":
		return NewReal(math.Inf(1)), nil
	case "-inf.0":
		return NewReal(math.Inf(-1)), nil
	case "+nan.0", "-nan.0":
		return NewReal(math.NaN()), nil
	}
	if m.Base == nil {
		return NewReal(m.basicFloat()), nil
	}

	base, err := m.Base.Build(false)
	if err != nil {
		return nil, err
	}
	bf, err := ToFloat(base)
	if err != nil {
		return nil, err
	}
	exp, err := m.Exponent.Build(false)
	if err != nil {
		return nil, err
	}
	if ie, ok := exp.(*Integer); ok && ie.val.IsInt64() {
		// let strconv do the correctly rounded scaling when it can.
		txt := strconv.FormatFloat(bf, 'g', -1, 64) + "e" + ie.val.String()
		f, err := strconv.ParseFloat(txt, 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return NewReal(f), nil
		}
	}
	ef, err := ToFloat(exp)
	if err != nil {
		return nil, err
	}
	return NewReal(bf * math.Pow(10, ef)), nil
}

func (m RealMatch) basicFloat() float64 {
	ip := m.Integer
	if ip == "" {
		ip = "0"
	}
	fp := m.Fraction
	if fp == "" {
		fp = "0"
	}
	f, err := strconv.ParseFloat(m.Sign+ip+"."+fp, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		panic(fmt.Sprintf("basic real '%s%s.%s' did not parse: %v", m.Sign, ip, fp, err))
	}
	return f
}

// ComplexMatch is re+im*i. Real is nil for a purely imaginary lexeme and
// Imaginary is nil when the imaginary magnitude is the implicit unit,
// as in "1+i" or "-i".
type ComplexMatch struct {
	Real      Match
	Sign      string
	Imaginary Match
}

func (m ComplexMatch) Level() Level { return ComplexLevel }

func (m ComplexMatch) Build(force bool) (Number, error) {
	var re Number = Zero
	var err error
	if m.Real != nil {
		re, err = m.Real.Build(false)
		if err != nil {
			return nil, err
		}
	}
	var im Number = One
	if m.Imaginary != nil {
		im, err = m.Imaginary.Build(false)
		if err != nil {
			return nil, err
		}
	}
	if m.Sign == "-" {
		im, err = Negate(im)
		if err != nil {
			return nil, err
		}
	}
	return NewComplex(re, im, force)
}

// Classify tests s against each level in increasing order of generality
// and returns the most specific match.
func Classify(s string) (Match, error) {
	if m, ok := matchInteger(s); ok {
		return m, nil
	}
	if m, ok := matchRational(s); ok {
		return m, nil
	}
	if m, ok := matchReal(s); ok {
		return m, nil
	}
	if m, ok := matchComplex(s); ok {
		return m, nil
	}
	if ZeroDenominator(s) {
		return nil, fmt.Errorf("%w: '%s' has a zero denominator", ErrDivisionByZero, s)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrInvalidNumber, s)
}

// ZeroDenominator reports whether s is shaped like an exact rational
// whose denominator is all zeros, such as 1/0 or -3/00.
func ZeroDenominator(s string) bool {
	i := strings.IndexByte(s, '/')
	if i < 0 || strings.Count(s, "/") != 1 {
		return false
	}
	if _, ok := matchInteger(s[:i]); !ok {
		return false
	}
	den := s[i+1:]
	return den != "" && strings.Trim(den, "0") == ""
}

// IsNumber reports whether s classifies as any numeric literal.
func IsNumber(s string) bool {
	_, err := Classify(s)
	return err == nil
}

// Parse classifies s and builds the simplified value.
func Parse(s string) (Number, error) {
	m, err := Classify(s)
	if err != nil {
		return nil, err
	}
	return m.Build(false)
}

func splitSign(s string) (sign, rest string) {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return s[:1], s[1:]
	}
	return "", s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func matchInteger(s string) (IntegerMatch, bool) {
	sign, digits := splitSign(s)
	if digits == "" || !allDigits(digits) {
		return IntegerMatch{}, false
	}
	return IntegerMatch{Sign: sign, Digits: digits}, true
}

func matchRational(s string) (RationalMatch, bool) {
	if strings.Count(s, "/") != 1 {
		return RationalMatch{}, false
	}
	i := strings.IndexByte(s, '/')
	num, ok := matchInteger(s[:i])
	if !ok {
		return RationalMatch{}, false
	}
	den := s[i+1:]
	if den == "" || !allDigits(den) || strings.Trim(den, "0") == "" {
		return RationalMatch{}, false
	}
	return RationalMatch{Numerator: num, Denominator: IntegerMatch{Digits: den}}, true
}

func matchBasicReal(s string) (RealMatch, bool) {
	switch s {
	case "+inf.0", "-inf.0", "+nan.0", "-nan.0":
		return RealMatch{Special: s}, true
	}
	sign, rest := splitSign(s)
	if strings.Count(rest, ".") != 1 {
		return RealMatch{}, false
	}
	i := strings.IndexByte(rest, '.')
	ip, fp := rest[:i], rest[i+1:]
	if ip == "" && fp == "" {
		return RealMatch{}, false
	}
	if !allDigits(ip) || !allDigits(fp) {
		return RealMatch{}, false
	}
	return RealMatch{Sign: sign, Integer: ip, Fraction: fp}, true
}

func matchReal(s string) (RealMatch, bool) {
	if m, ok := matchBasicReal(s); ok {
		return m, true
	}
	i := strings.IndexAny(s, "eE")
	if i <= 0 || i == len(s)-1 {
		return RealMatch{}, false
	}
	var base Match
	if m, ok := matchInteger(s[:i]); ok {
		base = m
	} else if m, ok := matchBasicReal(s[:i]); ok && m.Special == "" {
		base = m
	} else {
		return RealMatch{}, false
	}
	var exp Match
	rest := s[i+1:]
	if m, ok := matchInteger(rest); ok {
		exp = m
	} else if m, ok := matchRational(rest); ok {
		exp = m
	} else if m, ok := matchReal(rest); ok {
		exp = m
	} else {
		return RealMatch{}, false
	}
	return RealMatch{Base: base, Exponent: exp}, true
}

// matchPart matches one side of a complex lexeme: anything up to Real.
func matchPart(s string) (Match, bool) {
	if m, ok := matchInteger(s); ok {
		return m, true
	}
	if m, ok := matchRational(s); ok {
		return m, true
	}
	if m, ok := matchReal(s); ok {
		return m, true
	}
	return nil, false
}

func matchComplex(s string) (ComplexMatch, bool) {
	if len(s) < 2 || s[len(s)-1] != 'i' {
		return ComplexMatch{}, false
	}
	body := s[:len(s)-1]

	// the last sign not at position 0 and not inside an exponent
	// separates the real part from the imaginary part.
	split := -1
	for k := len(body) - 1; k > 0; k-- {
		if (body[k] == '+' || body[k] == '-') && body[k-1] != 'e' && body[k-1] != 'E' {
			split = k
			break
		}
	}

	var re Match
	imText := body
	if split > 0 {
		m, ok := matchPart(body[:split])
		if !ok {
			return ComplexMatch{}, false
		}
		re = m
		imText = body[split:]
	}

	sign, mag := splitSign(imText)
	if mag == "" {
		if sign == "" {
			return ComplexMatch{}, false
		}
		return ComplexMatch{Real: re, Sign: sign}, true
	}
	// the sentinels carry their own sign.
	if m, ok := matchBasicReal(imText); ok && m.Special != "" {
		return ComplexMatch{Real: re, Imaginary: m}, true
	}
	im, ok := matchPart(mag)
	if !ok {
		return ComplexMatch{}, false
	}
	return ComplexMatch{Real: re, Sign: sign, Imaginary: im}, true
}
