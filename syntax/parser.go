package syntax

import (
	"fmt"

	"github.com/cseval/cseval/tower"
)

// Chapters gate which forms the parser accepts.
const (
	Chapter1        = 1
	QuotingChapter  = 2
	MutationChapter = 3
	MacroChapter    = 5
	MaxChapter      = 5
)

type QuoteMode int

const (
	QuoteNone QuoteMode = iota
	QuoteQuote
	QuoteQuasi
)

func (m QuoteMode) String() string {
	switch m {
	case QuoteNone:
		return "NONE"
	case QuoteQuote:
		return "QUOTE"
	case QuoteQuasi:
		return "QUASIQUOTE"
	}
	return fmt.Sprintf("QuoteMode(%d)", int(m))
}

const ellipsis = "..."

// Parser turns one source text into syntax tree nodes. A Parser is used
// for a single parse and is not safe for concurrent use.
type Parser struct {
	source  string
	src     []rune
	chapter int

	quoteMode QuoteMode

	// validateOnly is set during the first pass at MacroChapter, where
	// let, cond, begin, delay and set! are checked loosely and yield a
	// placeholder.
	validateOnly bool

	// evalMode parses text handed to the runtime eval: a single pass, with
	// macro definitions rejected as unsupported.
	evalMode bool

	// spliceOK is true only while parsing a direct element of a list or
	// vector.
	spliceOK bool
}

type ParserOption func(p *Parser)

// WithEvalMode makes the parser run a single NONE-mode pass even at
// MacroChapter, as needed for text passed to the runtime eval.
func WithEvalMode() ParserOption {
	return func(p *Parser) {
		p.evalMode = true
	}
}

func NewParser(source string, chapter int, opts ...ParserOption) *Parser {
	if chapter < Chapter1 {
		chapter = Chapter1
	}
	if chapter > MaxChapter {
		chapter = MaxChapter
	}
	p := &Parser{
		source:  source,
		src:     []rune(source),
		chapter: chapter,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse parses source at the given chapter.
func Parse(source string, chapter int) ([]Node, error) {
	return NewParser(source, chapter).Parse()
}

func (p *Parser) Chapter() int {
	return p.chapter
}

func (p *Parser) Parse() ([]Node, error) {
	groups, err := GroupSource(p.source)
	if err != nil {
		return nil, err
	}
	if p.chapter >= MacroChapter && !p.evalMode {
		return p.parseTwoPass(groups)
	}
	res := make([]Node, 0, len(groups))
	for _, g := range groups {
		p.quoteMode = QuoteNone
		n, err := p.parseGrouping(g)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

// parseTwoPass validates every form, then re-reads the program as quoted
// data. Imports are hoisted and kept as code; everything else becomes
// the single application (eval (begin ...)).
func (p *Parser) parseTwoPass(groups []*Group) ([]Node, error) {
	p.validateOnly = true
	for _, g := range groups {
		p.quoteMode = QuoteNone
		if _, err := p.parseGrouping(g); err != nil {
			return nil, err
		}
	}
	p.validateOnly = false

	var imports, data []Node
	for _, g := range groups {
		if isImportGroup(g) {
			p.quoteMode = QuoteNone
			n, err := p.parseGrouping(g)
			if err != nil {
				return nil, err
			}
			imports = append(imports, n)
			continue
		}
		p.quoteMode = QuoteQuote
		n, err := p.parseGrouping(g)
		if err != nil {
			return nil, err
		}
		data = append(data, n)
	}
	p.quoteMode = QuoteNone
	if len(data) == 0 {
		return imports, nil
	}
	loc := data[0].Loc()
	begin := &List{Location: loc, Elements: append([]Node{&Symbol{Location: loc, Name: "begin"}}, data...)}
	app := &Application{
		Location: loc,
		Operator: &Identifier{Location: loc, Name: "eval"},
		Operands: []Node{begin},
	}
	return append(imports, app), nil
}

func isImportGroup(g *Group) bool {
	if !g.IsParenthesized() {
		return false
	}
	inner := g.Inner()
	if len(inner) == 0 {
		return false
	}
	t, ok := inner[0].(Token)
	return ok && t.Type == TokenImport
}

func (p *Parser) fail(kind error, loc Location, format string, args ...any) error {
	return newError(p.src, kind, loc, format, args...)
}

func (p *Parser) expected(loc Location, shape string) error {
	return p.fail(ErrExpectedForm, loc, "expected %s", shape)
}

// gate checks that the current chapter allows the form introduced by t.
func (p *Parser) gate(t Token, need int) error {
	if p.chapter < need {
		return p.fail(ErrDisallowedToken, t.Loc(), "'%s' is not allowed in chapter %d (needs chapter %d)", t.Lexeme, p.chapter, need)
	}
	return nil
}

// withMode parses e under mode m and restores the previous mode.
func (p *Parser) withMode(m QuoteMode, e Grouping) (Node, error) {
	saved := p.quoteMode
	p.quoteMode = m
	defer func() { p.quoteMode = saved }()
	return p.parseGrouping(e)
}

func (p *Parser) parseElement(e Grouping) (Node, error) {
	p.spliceOK = true
	return p.parseGrouping(e)
}

func (p *Parser) parseGrouping(e Grouping) (Node, error) {
	spliceOK := p.spliceOK
	p.spliceOK = false

	switch x := e.(type) {
	case Token:
		return p.parseToken(x)
	case *Group:
		switch {
		case x.IsSingle():
			return p.parseToken(x.first())
		case x.IsAffector():
			return p.parseAffector(x, spliceOK)
		}
		return p.parseList(x, spliceOK)
	}
	panic(fmt.Sprintf("unknown grouping %T", e))
}

func (p *Parser) parseToken(t Token) (Node, error) {
	loc := t.Loc()
	switch t.Type {
	case TokenNumber:
		n := t.number()
		if n.Level() == tower.ComplexLevel {
			return &ComplexLiteral{Location: loc, Value: n}, nil
		}
		return &NumericLiteral{Location: loc, Value: n}, nil
	case TokenBoolean:
		return &BooleanLiteral{Location: loc, Value: t.Literal.(bool)}, nil
	case TokenString:
		return &StringLiteral{Location: loc, Value: t.Literal.(string)}, nil
	case TokenIdentifier:
		if p.quoteMode == QuoteNone {
			return &Identifier{Location: loc, Name: t.Lexeme}, nil
		}
		return &Symbol{Location: loc, Name: t.Lexeme}, nil
	case TokenDot:
		return nil, p.fail(ErrUnexpectedForm, loc, "'.' outside of a list")
	}
	if t.isKeyword() {
		if p.quoteMode != QuoteNone {
			return &Symbol{Location: loc, Name: t.Lexeme}, nil
		}
		return nil, p.fail(ErrUnexpectedForm, loc, "keyword '%s' cannot be used as an expression", t.Lexeme)
	}
	return nil, p.fail(ErrUnexpectedForm, loc, "unexpected token %v", t)
}

func (p *Parser) parseAffector(g *Group, spliceOK bool) (Node, error) {
	aff := g.first()
	target := g.Elements[1]
	switch aff.Type {
	case TokenHashVector:
		if err := p.gate(aff, MutationChapter); err != nil {
			return nil, err
		}
		return p.parseVector(aff.Loc(), target)
	case TokenApostrophe:
		return p.quoteForm(aff, "quote", target)
	case TokenBacktick:
		return p.quasiquoteForm(aff, "quasiquote", target)
	case TokenComma:
		return p.unquoteForm(aff, "unquote", target)
	case TokenCommaAt:
		return p.unquoteSplicingForm(aff, "unquote-splicing", target, spliceOK)
	}
	panic(fmt.Sprintf("unknown affector %v", aff))
}

func (p *Parser) parseVector(loc Location, target Grouping) (Node, error) {
	g, ok := target.(*Group)
	if !ok || !g.IsParenthesized() {
		return nil, p.expected(loc, "#(<element>*)")
	}
	inner := g.Inner()
	elems := make([]Node, 0, len(inner))
	for _, e := range inner {
		if t, ok := e.(Token); ok && t.Type == TokenDot {
			return nil, p.fail(ErrUnexpectedForm, t.Loc(), "'.' inside a vector")
		}
		n, err := p.parseElement(e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, n)
	}
	return &Vector{Location: loc, Elements: elems}, nil
}

// quoted builds the literal datum (name target) used when a quoting form
// appears inside data.
func (p *Parser) quoted(kw Token, name string, target Grouping) (Node, error) {
	inner, err := p.parseGrouping(target)
	if err != nil {
		return nil, err
	}
	loc := kw.Loc()
	return &List{Location: loc, Elements: []Node{&Symbol{Location: loc, Name: name}, inner}}, nil
}

func (p *Parser) quoteForm(kw Token, name string, target Grouping) (Node, error) {
	if err := p.gate(kw, QuotingChapter); err != nil {
		return nil, err
	}
	if p.quoteMode == QuoteNone {
		return p.withMode(QuoteQuote, target)
	}
	return p.quoted(kw, name, target)
}

func (p *Parser) quasiquoteForm(kw Token, name string, target Grouping) (Node, error) {
	if err := p.gate(kw, QuotingChapter); err != nil {
		return nil, err
	}
	if p.quoteMode == QuoteNone {
		return p.withMode(QuoteQuasi, target)
	}
	return p.quoted(kw, name, target)
}

func (p *Parser) unquoteForm(kw Token, name string, target Grouping) (Node, error) {
	if err := p.gate(kw, QuotingChapter); err != nil {
		return nil, err
	}
	switch p.quoteMode {
	case QuoteNone:
		return nil, p.fail(ErrUnexpectedForm, kw.Loc(), "'%s' outside of a quasiquote", name)
	case QuoteQuote:
		return p.quoted(kw, name, target)
	}
	return p.withMode(QuoteNone, target)
}

func (p *Parser) unquoteSplicingForm(kw Token, name string, target Grouping, spliceOK bool) (Node, error) {
	if err := p.gate(kw, QuotingChapter); err != nil {
		return nil, err
	}
	switch p.quoteMode {
	case QuoteNone:
		return nil, p.fail(ErrUnexpectedForm, kw.Loc(), "'%s' outside of a quasiquote", name)
	case QuoteQuote:
		return p.quoted(kw, name, target)
	}
	if !spliceOK {
		return nil, p.fail(ErrUnexpectedForm, kw.Loc(), "'%s' must appear directly inside a list", name)
	}
	n, err := p.withMode(QuoteNone, target)
	if err != nil {
		return nil, err
	}
	return &SpliceMarker{Location: kw.Loc(), Value: n}, nil
}

func (p *Parser) parseList(g *Group, spliceOK bool) (Node, error) {
	loc := g.Loc()
	inner := g.Inner()
	if len(inner) == 0 {
		if p.quoteMode == QuoteNone && !p.validateOnly {
			return nil, p.expected(loc, "a non-empty application, not ()")
		}
		return &Nil{Location: loc}, nil
	}

	head, headIsToken := inner[0].(Token)

	if p.quoteMode != QuoteNone {
		if headIsToken {
			switch head.Type {
			case TokenQuote, TokenQuasiquote, TokenUnquote, TokenUnquoteSplicing:
				if len(inner) == 2 {
					return p.longQuote(head, inner[1], spliceOK)
				}
			}
		}
		return p.parseData(loc, inner)
	}

	if headIsToken && head.isKeyword() {
		return p.parseSpecialForm(head, loc, inner, spliceOK)
	}
	return p.parseApplication(loc, inner)
}

func (p *Parser) longQuote(head Token, target Grouping, spliceOK bool) (Node, error) {
	switch head.Type {
	case TokenQuote:
		return p.quoteForm(head, "quote", target)
	case TokenQuasiquote:
		return p.quasiquoteForm(head, "quasiquote", target)
	case TokenUnquote:
		return p.unquoteForm(head, "unquote", target)
	}
	return p.unquoteSplicingForm(head, "unquote-splicing", target, spliceOK)
}

// parseData reads the inside of a quoted list: a proper List, or a Pair
// chain when the list is dotted.
func (p *Parser) parseData(loc Location, inner []Grouping) (Node, error) {
	dot := -1
	for i, e := range inner {
		if t, ok := e.(Token); ok && t.Type == TokenDot {
			if dot >= 0 {
				return nil, p.fail(ErrUnexpectedForm, t.Loc(), "more than one '.' in a list")
			}
			dot = i
		}
	}
	if dot >= 0 && (dot == 0 || dot != len(inner)-2) {
		return nil, p.expected(inner[dot].Loc(), "a dotted list (<datum>+ . <datum>)")
	}

	n := len(inner)
	if dot >= 0 {
		n = dot
	}
	elems := make([]Node, 0, n)
	for _, e := range inner[:n] {
		x, err := p.parseElement(e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, x)
	}
	if dot < 0 {
		return &List{Location: loc, Elements: elems}, nil
	}

	tail, err := p.parseGrouping(inner[dot+1])
	if err != nil {
		return nil, err
	}
	for i := len(elems) - 1; i >= 0; i-- {
		tail = &Pair{Location: elems[i].Loc(), Car: elems[i], Cdr: tail}
	}
	return tail, nil
}

func (p *Parser) parseApplication(loc Location, inner []Grouping) (Node, error) {
	nodes := make([]Node, 0, len(inner))
	for _, e := range inner {
		if t, ok := e.(Token); ok && t.Type == TokenDot {
			return nil, p.fail(ErrUnexpectedForm, t.Loc(), "'.' in an application")
		}
		n, err := p.parseGrouping(e)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return &Application{Location: loc, Operator: nodes[0], Operands: nodes[1:]}, nil
}

func (p *Parser) parseSpecialForm(head Token, loc Location, inner []Grouping, spliceOK bool) (Node, error) {
	switch head.Type {
	case TokenQuote, TokenQuasiquote, TokenUnquote, TokenUnquoteSplicing:
		if len(inner) != 2 {
			return nil, p.expected(loc, fmt.Sprintf("(%s <datum>)", head.Lexeme))
		}
		return p.longQuote(head, inner[1], spliceOK)
	case TokenDefine:
		return p.parseDefine(loc, inner)
	case TokenLambda:
		return p.parseLambda(loc, inner)
	case TokenIf:
		return p.parseConditional(loc, inner)
	case TokenImport:
		return p.parseImport(loc, inner)
	case TokenExport:
		return p.parseExport(loc, inner)
	case TokenDefineSyntax, TokenSyntaxRules:
		if err := p.gate(head, MacroChapter); err != nil {
			return nil, err
		}
		if p.evalMode {
			return nil, p.fail(ErrUnsupportedToken, head.Loc(), "'%s' cannot be evaluated at runtime", head.Lexeme)
		}
		if head.Type == TokenDefineSyntax {
			return p.parseDefineSyntax(loc, inner)
		}
		return p.parseSyntaxRules(loc, inner)
	case TokenElse:
		return nil, p.fail(ErrUnexpectedForm, head.Loc(), "'else' outside of cond")
	}

	// let, cond, begin, delay and set!
	switch head.Type {
	case TokenSet, TokenDelay:
		if err := p.gate(head, MutationChapter); err != nil {
			return nil, err
		}
	}
	if p.validateOnly {
		for _, e := range inner[1:] {
			if err := p.validateLoose(e); err != nil {
				return nil, err
			}
		}
		return &Nil{Location: loc}, nil
	}
	switch head.Type {
	case TokenLet:
		return p.parseLet(loc, inner)
	case TokenCond:
		return p.parseCond(loc, inner)
	case TokenBegin:
		return p.parseBegin(loc, inner)
	case TokenDelay:
		return p.parseDelay(loc, inner)
	case TokenSet:
		return p.parseSet(loc, inner)
	}
	panic(fmt.Sprintf("unhandled keyword %v", head))
}

// validateLoose parses every keyword form inside e without insisting on
// the shape of the surrounding binding lists and clauses.
func (p *Parser) validateLoose(e Grouping) error {
	g, ok := e.(*Group)
	if !ok {
		return nil
	}
	if g.IsSingle() {
		return nil
	}
	if g.IsAffector() {
		_, err := p.parseGrouping(g)
		return err
	}
	inner := g.Inner()
	if len(inner) > 0 {
		if t, ok := inner[0].(Token); ok && t.isKeyword() && t.Type != TokenElse {
			_, err := p.parseGrouping(g)
			return err
		}
	}
	for _, x := range inner {
		if err := p.validateLoose(x); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) identifier(e Grouping, what string) (*Identifier, error) {
	t, ok := e.(Token)
	if g, isGroup := e.(*Group); isGroup && g.IsSingle() {
		t, ok = g.first(), true
	}
	if !ok || t.Type != TokenIdentifier {
		return nil, p.expected(e.Loc(), what)
	}
	return &Identifier{Location: t.Loc(), Name: t.Lexeme}, nil
}

// parseParams reads identifiers with an optional trailing ". rest".
func (p *Parser) parseParams(elems []Grouping, loc Location) ([]*Identifier, *Identifier, error) {
	var params []*Identifier
	var rest *Identifier
	for i := 0; i < len(elems); i++ {
		if t, ok := elems[i].(Token); ok && t.Type == TokenDot {
			if i != len(elems)-2 {
				return nil, nil, p.expected(t.Loc(), "a single rest parameter after '.'")
			}
			r, err := p.identifier(elems[i+1], "a rest parameter identifier")
			if err != nil {
				return nil, nil, err
			}
			rest = r
			break
		}
		id, err := p.identifier(elems[i], "a parameter identifier")
		if err != nil {
			return nil, nil, err
		}
		params = append(params, id)
	}
	return params, rest, nil
}

func (p *Parser) parseBody(loc Location, elems []Grouping) (*Sequence, error) {
	body := make([]Node, 0, len(elems))
	for _, e := range elems {
		n, err := p.parseGrouping(e)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	if len(body) > 0 {
		loc = body[0].Loc()
	}
	return &Sequence{Location: loc, Body: body}, nil
}

func (p *Parser) parseLambda(loc Location, inner []Grouping) (Node, error) {
	const shape = "(lambda <formals> <body>+)"
	if len(inner) < 3 {
		return nil, p.expected(loc, shape)
	}
	var params []*Identifier
	var rest *Identifier
	switch f := inner[1].(type) {
	case Token:
		id, err := p.identifier(f, shape)
		if err != nil {
			return nil, err
		}
		rest = id
	case *Group:
		if !f.IsParenthesized() {
			return nil, p.expected(f.Loc(), shape)
		}
		var err error
		params, rest, err = p.parseParams(f.Inner(), f.Loc())
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody(loc, inner[2:])
	if err != nil {
		return nil, err
	}
	return &Lambda{Location: loc, Params: params, Rest: rest, Body: body}, nil
}

func (p *Parser) parseDefine(loc Location, inner []Grouping) (Node, error) {
	const shape = "(define <identifier> <expression>) or (define (<identifier> <formals>) <body>+)"
	if len(inner) < 3 {
		return nil, p.expected(loc, shape)
	}
	switch target := inner[1].(type) {
	case Token:
		if len(inner) != 3 {
			return nil, p.expected(loc, "(define <identifier> <expression>)")
		}
		name, err := p.identifier(target, shape)
		if err != nil {
			return nil, err
		}
		val, err := p.parseGrouping(inner[2])
		if err != nil {
			return nil, err
		}
		return &Definition{Location: loc, Name: name, Value: val}, nil
	case *Group:
		if !target.IsParenthesized() || len(target.Inner()) == 0 {
			return nil, p.expected(target.Loc(), shape)
		}
		head := target.Inner()
		name, err := p.identifier(head[0], "a procedure name")
		if err != nil {
			return nil, err
		}
		params, rest, err := p.parseParams(head[1:], target.Loc())
		if err != nil {
			return nil, err
		}
		body, err := p.parseBody(loc, inner[2:])
		if err != nil {
			return nil, err
		}
		return &FunctionDefinition{Location: loc, Name: name, Params: params, Rest: rest, Body: body}, nil
	}
	return nil, p.expected(loc, shape)
}

func (p *Parser) parseConditional(loc Location, inner []Grouping) (Node, error) {
	if len(inner) != 3 && len(inner) != 4 {
		return nil, p.expected(loc, "(if <predicate> <consequent> <alternative>?)")
	}
	nodes := make([]Node, 0, 3)
	for _, e := range inner[1:] {
		n, err := p.parseGrouping(e)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 2 {
		nodes = append(nodes, &Identifier{Location: loc, Name: "undefined"})
	}
	return &Conditional{Location: loc, Test: nodes[0], Consequent: nodes[1], Alternate: nodes[2]}, nil
}

func (p *Parser) parseLet(loc Location, inner []Grouping) (Node, error) {
	const shape = "(let ((<identifier> <value>)*) <body>+)"
	if len(inner) < 3 {
		return nil, p.expected(loc, shape)
	}
	bindings, ok := inner[1].(*Group)
	if !ok || !bindings.IsParenthesized() {
		return nil, p.expected(inner[1].Loc(), shape)
	}
	var ids []*Identifier
	var vals []Node
	for _, b := range bindings.Inner() {
		bg, ok := b.(*Group)
		if !ok || !bg.IsParenthesized() || len(bg.Inner()) != 2 {
			return nil, p.expected(b.Loc(), "a binding (<identifier> <value>)")
		}
		id, err := p.identifier(bg.Inner()[0], "a binding identifier")
		if err != nil {
			return nil, err
		}
		v, err := p.parseGrouping(bg.Inner()[1])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		vals = append(vals, v)
	}
	body, err := p.parseBody(loc, inner[2:])
	if err != nil {
		return nil, err
	}
	return &Let{Location: loc, Identifiers: ids, Values: vals, Body: body}, nil
}

func (p *Parser) parseCond(loc Location, inner []Grouping) (Node, error) {
	const shape = "(cond (<predicate> <consequent>+)+ (else <consequent>+)?)"
	if len(inner) < 2 {
		return nil, p.expected(loc, shape)
	}
	c := &Cond{Location: loc}
	clauses := inner[1:]
	for i, cl := range clauses {
		g, ok := cl.(*Group)
		if !ok || !g.IsParenthesized() || len(g.Inner()) < 2 {
			return nil, p.expected(cl.Loc(), "a clause (<predicate> <consequent>+)")
		}
		parts := g.Inner()
		if t, ok := parts[0].(Token); ok && t.Type == TokenElse {
			if i != len(clauses)-1 {
				return nil, p.fail(ErrUnexpectedForm, t.Loc(), "'else' clause must be last in cond")
			}
			body, err := p.parseBody(g.Loc(), parts[1:])
			if err != nil {
				return nil, err
			}
			c.Catchall = body
			continue
		}
		pred, err := p.parseGrouping(parts[0])
		if err != nil {
			return nil, err
		}
		body, err := p.parseBody(g.Loc(), parts[1:])
		if err != nil {
			return nil, err
		}
		c.Predicates = append(c.Predicates, pred)
		c.Consequents = append(c.Consequents, body)
	}
	return c, nil
}

func (p *Parser) parseBegin(loc Location, inner []Grouping) (Node, error) {
	if len(inner) < 2 {
		return nil, p.expected(loc, "(begin <expression>+)")
	}
	body, err := p.parseBody(loc, inner[1:])
	if err != nil {
		return nil, err
	}
	return &Begin{Location: loc, Body: body.Body}, nil
}

func (p *Parser) parseDelay(loc Location, inner []Grouping) (Node, error) {
	if len(inner) != 2 {
		return nil, p.expected(loc, "(delay <expression>)")
	}
	n, err := p.parseGrouping(inner[1])
	if err != nil {
		return nil, err
	}
	return &Delay{Location: loc, Body: n}, nil
}

func (p *Parser) parseSet(loc Location, inner []Grouping) (Node, error) {
	const shape = "(set! <identifier> <expression>)"
	if len(inner) != 3 {
		return nil, p.expected(loc, shape)
	}
	name, err := p.identifier(inner[1], shape)
	if err != nil {
		return nil, err
	}
	v, err := p.parseGrouping(inner[2])
	if err != nil {
		return nil, err
	}
	return &Reassignment{Location: loc, Name: name, Value: v}, nil
}

func (p *Parser) parseImport(loc Location, inner []Grouping) (Node, error) {
	const shape = `(import "<source>" (<identifier>*))`
	if len(inner) != 3 {
		return nil, p.expected(loc, shape)
	}
	st, ok := inner[1].(Token)
	if !ok || st.Type != TokenString {
		return nil, p.expected(inner[1].Loc(), shape)
	}
	ids, ok := inner[2].(*Group)
	if !ok || !ids.IsParenthesized() {
		return nil, p.expected(inner[2].Loc(), shape)
	}
	imp := &Import{
		Location: loc,
		Source:   &StringLiteral{Location: st.Loc(), Value: st.Literal.(string)},
	}
	for _, e := range ids.Inner() {
		id, err := p.identifier(e, "an imported identifier")
		if err != nil {
			return nil, err
		}
		imp.Identifiers = append(imp.Identifiers, id)
	}
	return imp, nil
}

func (p *Parser) parseExport(loc Location, inner []Grouping) (Node, error) {
	const shape = "(export (define ...))"
	if len(inner) != 2 {
		return nil, p.expected(loc, shape)
	}
	g, ok := inner[1].(*Group)
	if !ok || !g.IsParenthesized() || len(g.Inner()) == 0 {
		return nil, p.expected(inner[1].Loc(), shape)
	}
	if t, ok := g.Inner()[0].(Token); !ok || t.Type != TokenDefine {
		return nil, p.expected(inner[1].Loc(), shape)
	}
	n, err := p.parseDefine(g.Loc(), g.Inner())
	if err != nil {
		return nil, err
	}
	var def *Definition
	switch d := n.(type) {
	case *Definition:
		def = d
	case *FunctionDefinition:
		def = desugarFunctionDefinition(d)
	}
	return &Export{Location: loc, Definition: def}, nil
}

func (p *Parser) parseDefineSyntax(loc Location, inner []Grouping) (Node, error) {
	const shape = "(define-syntax <identifier> (syntax-rules ...))"
	if len(inner) != 3 {
		return nil, p.expected(loc, shape)
	}
	name, err := p.identifier(inner[1], shape)
	if err != nil {
		return nil, err
	}
	g, ok := inner[2].(*Group)
	if !ok || !g.IsParenthesized() || len(g.Inner()) == 0 {
		return nil, p.expected(inner[2].Loc(), shape)
	}
	head, ok := g.Inner()[0].(Token)
	if !ok || head.Type != TokenSyntaxRules {
		return nil, p.expected(inner[2].Loc(), shape)
	}
	rules, err := p.parseSyntaxRules(g.Loc(), g.Inner())
	if err != nil {
		return nil, err
	}
	return &DefineSyntax{Location: loc, Name: name, Rules: rules.(*SyntaxRules)}, nil
}

func (p *Parser) parseSyntaxRules(loc Location, inner []Grouping) (Node, error) {
	const shape = "(syntax-rules (<literal>*) (<pattern> <template>)+)"
	if len(inner) < 3 {
		return nil, p.expected(loc, shape)
	}
	lits, ok := inner[1].(*Group)
	if !ok || !lits.IsParenthesized() {
		return nil, p.expected(inner[1].Loc(), shape)
	}
	sr := &SyntaxRules{Location: loc}
	for _, e := range lits.Inner() {
		id, err := p.identifier(e, "a literal identifier")
		if err != nil {
			return nil, err
		}
		sr.Literals = append(sr.Literals, &Symbol{Location: id.Location, Name: id.Name})
	}
	for _, r := range inner[2:] {
		rg, ok := r.(*Group)
		if !ok || !rg.IsParenthesized() || len(rg.Inner()) != 2 {
			return nil, p.expected(r.Loc(), "a rule (<pattern> <template>)")
		}
		pat, err := p.withMode(QuoteQuote, rg.Inner()[0])
		if err != nil {
			return nil, err
		}
		if err := p.checkPattern(pat); err != nil {
			return nil, err
		}
		tmpl, err := p.withMode(QuoteQuote, rg.Inner()[1])
		if err != nil {
			return nil, err
		}
		if err := p.checkTemplate(tmpl); err != nil {
			return nil, err
		}
		sr.Rules = append(sr.Rules, SyntaxRule{Pattern: pat, Template: tmpl})
	}
	return sr, nil
}

func isEllipsis(n Node) bool {
	s, ok := n.(*Symbol)
	return ok && s.Name == ellipsis
}

// flatten splits quoted list data into its elements and the dotted tail,
// which is nil for a proper list.
func flatten(n Node) (elems []Node, tail Node, isList bool) {
	switch x := n.(type) {
	case *List:
		return x.Elements, nil, true
	case *Vector:
		return x.Elements, nil, true
	case *Pair:
		var cur Node = x
		for {
			pr, ok := cur.(*Pair)
			if !ok {
				break
			}
			elems = append(elems, pr.Car)
			cur = pr.Cdr
		}
		return elems, cur, true
	}
	return nil, nil, false
}

// checkPattern allows at most one ellipsis per list, never first, and for
// a dotted list never last before the dot.
func (p *Parser) checkPattern(n Node) error {
	elems, tail, isList := flatten(n)
	if !isList {
		return nil
	}
	seen := false
	for i, e := range elems {
		if isEllipsis(e) {
			if seen {
				return p.expected(e.Loc(), "at most one ellipsis in a pattern")
			}
			if i == 0 {
				return p.expected(e.Loc(), "a pattern before the ellipsis")
			}
			if tail != nil && i == len(elems)-1 {
				return p.expected(e.Loc(), "a pattern between the ellipsis and the dot")
			}
			seen = true
			continue
		}
		if err := p.checkPattern(e); err != nil {
			return err
		}
	}
	if tail != nil {
		if isEllipsis(tail) {
			return p.expected(tail.Loc(), "a pattern after the dot, not an ellipsis")
		}
		return p.checkPattern(tail)
	}
	return nil
}

// checkTemplate allows an ellipsis after any element, or the escape form
// (... <template>).
func (p *Parser) checkTemplate(n Node) error {
	elems, tail, isList := flatten(n)
	if !isList {
		return nil
	}
	if len(elems) > 0 && isEllipsis(elems[0]) {
		if len(elems) != 2 || tail != nil {
			return p.expected(elems[0].Loc(), "an escaped template (... <template>)")
		}
		return nil
	}
	for _, e := range elems {
		if isEllipsis(e) {
			continue
		}
		if err := p.checkTemplate(e); err != nil {
			return err
		}
	}
	if tail != nil {
		if isEllipsis(tail) {
			return p.expected(tail.Loc(), "a template after the dot, not an ellipsis")
		}
		return p.checkTemplate(tail)
	}
	return nil
}
