package cseext

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cseval/cseval/cse"
	"github.com/cseval/cseval/tower"
)

var defaultRand = rand.New(rand.NewSource(time.Now().Unix()))

// RandomFunction: (random) gives a real in [0, 1); (random n) gives an
// exact integer in [0, n).
func RandomFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	switch len(args) {
	case 0:
		return cse.Num(tower.NewReal(defaultRand.Float64())), nil
	case 1:
		n, err := exactInt(args[0])
		if err != nil {
			return cse.SexpNull, err
		}
		if n <= 0 {
			return cse.SexpNull, fmt.Errorf("argument of %s must be positive, got %d", name, n)
		}
		return cse.Int(defaultRand.Int63n(n)), nil
	}
	return cse.SexpNull, cse.WrongNargs
}

func exactInt(x cse.Sexp) (int64, error) {
	n, ok := x.(cse.SexpNumber)
	if ok {
		if i, isInt := tower.Simplify(n.Val).(*tower.Integer); isInt {
			if v, fits := i.Int64(); fits {
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("expected an exact integer, got %s", cse.Render(x))
}

func ImportRandom(s *cse.Session) {
	s.AddFunction("random", RandomFunction)
}
