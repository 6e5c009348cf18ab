package cseext

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/cseval/cseval/cse"
)

type SexpRegexp struct {
	re *regexp.Regexp
}

func (r *SexpRegexp) SexpString() string {
	return fmt.Sprintf(`#<regexp %q>`, r.re.String())
}

func regexpFindIndex(needle *regexp.Regexp, haystack string) cse.Sexp {
	loc := needle.FindStringIndex(haystack)
	if loc == nil {
		return cse.SexpBool(false)
	}
	return cse.MakeList([]cse.Sexp{cse.Int(int64(loc[0])), cse.Int(int64(loc[1]))})
}

// RegexpFind serves regexp-find, regexp-find-index and regexp-match?.
// The pattern may be compiled already or given as a string.
func RegexpFind(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) != 2 {
		return cse.SexpNull, cse.WrongNargs
	}
	haystack, ok := args[1].(cse.SexpStr)
	if !ok {
		return cse.SexpNull, fmt.Errorf("2nd argument of %v should be a string", name)
	}

	var needle *regexp.Regexp
	switch t := args[0].(type) {
	case *SexpRegexp:
		needle = t.re
	case cse.SexpStr:
		var err error
		needle, err = regexp.Compile(string(t))
		if err != nil {
			return cse.SexpNull, fmt.Errorf("bad pattern: '%v'", err)
		}
	default:
		return cse.SexpNull,
			fmt.Errorf("1st argument of %v should be a regular expression", name)
	}

	switch name {
	case "regexp-find":
		loc := needle.FindStringIndex(string(haystack))
		if loc == nil {
			return cse.SexpBool(false), nil
		}
		return cse.SexpStr(string(haystack)[loc[0]:loc[1]]), nil
	case "regexp-find-index":
		return regexpFindIndex(needle, string(haystack)), nil
	case "regexp-match?":
		return cse.SexpBool(needle.MatchString(string(haystack))), nil
	}
	return cse.SexpNull, errors.New("unknown function")
}

func RegexpCompile(m *cse.Machine, name string,
	args []cse.Sexp) (cse.Sexp, error) {
	if len(args) != 1 {
		return cse.SexpNull, cse.WrongNargs
	}
	src, ok := args[0].(cse.SexpStr)
	if !ok {
		return cse.SexpNull, errors.New("argument of regexp-compile should be a string")
	}
	r, err := regexp.Compile(string(src))
	if err != nil {
		return cse.SexpNull, fmt.Errorf("error during regexp-compile: '%v'", err)
	}
	return &SexpRegexp{re: r}, nil
}

func ImportRegexp(s *cse.Session) {
	s.AddFunction("regexp-compile", RegexpCompile)
	s.AddFunction("regexp-find-index", RegexpFind)
	s.AddFunction("regexp-find", RegexpFind)
	s.AddFunction("regexp-match?", RegexpFind)
}
