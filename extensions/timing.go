package cseext

import (
	"errors"
	"time"

	"github.com/cseval/cseval/cse"
)

type SexpTime time.Time

func (t SexpTime) SexpString() string {
	return "#<time " + time.Time(t).Format(time.RFC3339Nano) + ">"
}

var started = time.Now()

func NowFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) != 0 {
		return cse.SexpNull, cse.WrongNargs
	}
	return SexpTime(time.Now()), nil
}

// RuntimeFunction gives the milliseconds elapsed since the process
// started, as an exact integer.
func RuntimeFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) != 0 {
		return cse.SexpNull, cse.WrongNargs
	}
	return cse.Int(time.Since(started).Milliseconds()), nil
}

// ElapsedFunction: (elapsed t0 t1) is the difference in milliseconds.
func ElapsedFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) != 2 {
		return cse.SexpNull, cse.WrongNargs
	}
	t0, ok0 := args[0].(SexpTime)
	t1, ok1 := args[1].(SexpTime)
	if !ok0 || !ok1 {
		return cse.SexpNull, errors.New("arguments of elapsed should be times from current-time")
	}
	return cse.Int(time.Time(t1).Sub(time.Time(t0)).Milliseconds()), nil
}

func ImportTiming(s *cse.Session) {
	s.AddFunction("current-time", NowFunction)
	s.AddFunction("runtime", RuntimeFunction)
	s.AddFunction("elapsed", ElapsedFunction)
}
