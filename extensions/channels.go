package cseext

import (
	"fmt"

	"github.com/cseval/cseval/cse"
)

// SexpChannel is a buffered queue of values. The machine runs on one
// goroutine, so a send to a full channel or a receive from an empty one
// is an error rather than a wait.
type SexpChannel chan cse.Sexp

func (ch SexpChannel) SexpString() string {
	return fmt.Sprintf("#<chan %d/%d>", len(ch), cap(ch))
}

func MakeChanFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) > 1 {
		return cse.SexpNull, cse.WrongNargs
	}
	size := int64(1)
	if len(args) == 1 {
		n, err := exactInt(args[0])
		if err != nil {
			return cse.SexpNull, fmt.Errorf("argument to %s: %v", name, err)
		}
		if n < 1 {
			return cse.SexpNull, fmt.Errorf("argument to %s must be at least 1", name)
		}
		size = n
	}
	return SexpChannel(make(chan cse.Sexp, size)), nil
}

func ChanTxFunction(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) < 1 {
		return cse.SexpNull, cse.WrongNargs
	}
	channel, ok := args[0].(SexpChannel)
	if !ok {
		return cse.SexpNull, fmt.Errorf("argument 0 of %s must be channel", name)
	}

	if name == "send!" {
		if len(args) != 2 {
			return cse.SexpNull, cse.WrongNargs
		}
		select {
		case channel <- args[1]:
			return cse.SexpVoid, nil
		default:
			return cse.SexpNull, fmt.Errorf("channel full")
		}
	}

	if len(args) != 1 {
		return cse.SexpNull, cse.WrongNargs
	}
	select {
	case v := <-channel:
		return v, nil
	default:
		return cse.SexpNull, fmt.Errorf("channel empty")
	}
}

func ImportChannels(s *cse.Session) {
	s.AddFunction("make-chan", MakeChanFunction)
	s.AddFunction("send!", ChanTxFunction)
	s.AddFunction("<!", ChanTxFunction)
}

// ImportAll installs every extension.
func ImportAll(s *cse.Session) {
	ImportRandom(s)
	ImportRegexp(s)
	ImportTiming(s)
	ImportChannels(s)
}
