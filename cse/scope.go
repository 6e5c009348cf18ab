package cse

import (
	"fmt"
	"sort"
	"strings"
)

// Scopes map names to values. Each procedure call and each let gets a
// fresh Scope whose Parent is the defining environment; closures keep a
// pointer to the Scope they were created in.
type Scope struct {
	Map    map[string]Sexp
	Name   string
	Parent *Scope
}

func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		Map:    make(map[string]Sexp),
		Name:   name,
		Parent: parent,
	}
}

// Define binds name in this frame, shadowing any parent binding.
func (s *Scope) Define(name string, val Sexp) {
	s.Map[name] = val
}

// Lookup searches this frame and then the parent chain.
func (s *Scope) Lookup(name string) (Sexp, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Map[name]; ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// Assign mutates the nearest existing binding of name.
func (s *Scope) Assign(name string, val Sexp) error {
	_, where, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("cannot assign to unbound variable '%s'", name)
	}
	where.Map[name] = val
	return nil
}

// Clone copies this frame and, recursively, every frame above it, so
// that later mutation of either copy is invisible to the other.
func (s *Scope) Clone() *Scope {
	if s == nil {
		return nil
	}
	n := NewScope(s.Name, s.Parent.Clone())
	for k, v := range s.Map {
		n.Map[k] = v
	}
	return n
}

// Names lists the names bound in this frame, sorted.
func (s *Scope) Names() []string {
	r := make([]string, 0, len(s.Map))
	for k := range s.Map {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

// AllNames lists every name visible from s.
func (s *Scope) AllNames() []string {
	seen := make(map[string]bool)
	var r []string
	for cur := s; cur != nil; cur = cur.Parent {
		for k := range cur.Map {
			if !seen[k] {
				seen[k] = true
				r = append(r, k)
			}
		}
	}
	sort.Strings(r)
	return r
}

func (s *Scope) Depth() int {
	d := 0
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Show renders the frame for the REPL's .env command.
func (s *Scope) Show() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scope %s (depth %d)\n", s.Name, s.Depth())
	for _, k := range s.Names() {
		fmt.Fprintf(&b, "    %s = %s\n", k, Render(s.Map[k]))
	}
	return b.String()
}
