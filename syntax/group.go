package syntax

import (
	"fmt"
	"strings"
)

// Grouping is either a single Token or a *Group.
type Grouping interface {
	Loc() Location
	isGrouping()
}

func (t Token) isGrouping()  {}
func (g *Group) isGrouping() {}

// Group is a non-empty tree of tokens. It takes one of three shapes: a
// single token; an open delimiter, the inner groupings and the matching
// close delimiter; or an affector token followed by its target.
type Group struct {
	Elements []Grouping
}

func (g *Group) Loc() Location {
	return g.Elements[0].Loc()
}

func (g *Group) first() Token {
	return g.Elements[0].(Token)
}

func (g *Group) Len() int {
	return len(g.Elements)
}

func (g *Group) IsParenthesized() bool {
	t, ok := g.Elements[0].(Token)
	return ok && t.isOpen()
}

func (g *Group) IsAffector() bool {
	t, ok := g.Elements[0].(Token)
	return ok && len(g.Elements) == 2 && t.isAffector()
}

func (g *Group) IsSingle() bool {
	return len(g.Elements) == 1
}

// Inner returns the groupings between the delimiters of a parenthesized
// group.
func (g *Group) Inner() []Grouping {
	if !g.IsParenthesized() {
		panic(fmt.Sprintf("Inner() called on a group that is not parenthesized: %v", g))
	}
	return g.Elements[1 : len(g.Elements)-1]
}

func (g *Group) String() string {
	parts := make([]string, len(g.Elements))
	for i, e := range g.Elements {
		switch x := e.(type) {
		case Token:
			parts[i] = x.Lexeme
		case *Group:
			parts[i] = x.String()
		}
	}
	if g.IsAffector() {
		return parts[0] + parts[1]
	}
	return strings.Join(parts, " ")
}

type grouper struct {
	src  []rune
	toks []Token
	pos  int
}

// GroupTokens builds the top-level groupings of toks. src is used only to
// render error context.
func GroupTokens(src string, toks []Token) ([]*Group, error) {
	g := &grouper{src: []rune(src), toks: toks}
	var res []*Group
	for {
		if err := g.skipDatumComments(); err != nil {
			return nil, err
		}
		t := g.peek()
		switch {
		case t.Type == TokenEOF:
			return res, nil
		case t.isClose():
			return nil, g.fail(ErrParenthesisMismatch, t, "unexpected '%s' with no open parenthesis", t.Lexeme)
		}
		e, err := g.readGrouping()
		if err != nil {
			return nil, err
		}
		if grp, ok := e.(*Group); ok {
			res = append(res, grp)
		} else {
			res = append(res, &Group{Elements: []Grouping{e}})
		}
	}
}

// GroupSource tokenizes and groups src in one call.
func GroupSource(src string) ([]*Group, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return GroupTokens(src, toks)
}

func (g *grouper) fail(kind error, t Token, format string, args ...any) error {
	return newError(g.src, kind, t.Loc(), format, args...)
}

func (g *grouper) peek() Token {
	if g.pos >= len(g.toks) {
		// a token list without its EOF; treat the end as EOF anyway.
		if len(g.toks) == 0 {
			return Token{Type: TokenEOF, Line: 1, Col: 1}
		}
		last := g.toks[len(g.toks)-1]
		return Token{Type: TokenEOF, Start: last.End, End: last.End, Line: last.Line, Col: last.Col}
	}
	return g.toks[g.pos]
}

func (g *grouper) consume() Token {
	t := g.peek()
	if g.pos < len(g.toks) {
		g.pos++
	}
	return t
}

// skipDatumComments discards `#;` markers together with the grouping
// that follows each.
func (g *grouper) skipDatumComments() error {
	for g.peek().Type == TokenHashSemicolon {
		marker := g.consume()
		if err := g.skipDatumComments(); err != nil {
			return err
		}
		nx := g.peek()
		if nx.Type == TokenEOF || nx.isClose() {
			return g.fail(ErrMissingForm, marker, "'#;' must be followed by a datum")
		}
		if _, err := g.readGrouping(); err != nil {
			return err
		}
	}
	return nil
}

// readGrouping reads one grouping. The caller guarantees the next token is
// neither EOF, a close delimiter nor a datum comment.
func (g *grouper) readGrouping() (Grouping, error) {
	t := g.consume()
	switch {
	case t.isOpen():
		elems := []Grouping{t}
		for {
			if err := g.skipDatumComments(); err != nil {
				return nil, err
			}
			nx := g.peek()
			if nx.Type == TokenEOF {
				return nil, g.fail(ErrUnexpectedEOF, nx, "missing close for '%s' opened at %v", t.Lexeme, t.Loc())
			}
			if nx.isClose() {
				g.consume()
				if !matches(t, nx) {
					return nil, g.fail(ErrParenthesisMismatch, nx, "'%s' does not close '%s' opened at %v", nx.Lexeme, t.Lexeme, t.Loc())
				}
				elems = append(elems, nx)
				return &Group{Elements: elems}, nil
			}
			e, err := g.readGrouping()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}

	case t.isAffector():
		if err := g.skipDatumComments(); err != nil {
			return nil, err
		}
		nx := g.peek()
		if nx.Type == TokenEOF || nx.isClose() {
			return nil, g.fail(ErrMissingForm, t, "'%s' must be followed by a datum", t.Lexeme)
		}
		target, err := g.readGrouping()
		if err != nil {
			return nil, err
		}
		return &Group{Elements: []Grouping{t, target}}, nil
	}
	return t, nil
}

func matches(open, close Token) bool {
	return (open.Type == TokenLParen && close.Type == TokenRParen) ||
		(open.Type == TokenLSquare && close.Type == TokenRSquare)
}
