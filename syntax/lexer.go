package syntax

import (
	"errors"
	"strings"
	"unicode"

	"github.com/cseval/cseval/tower"
)

// Lexer turns source text into tokens. It reads the whole source up front
// and tracks the rune offset, line and column of the read head.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	col    int
	tokens []Token
}

func NewLexer(src string) *Lexer {
	return &Lexer{
		src:    []rune(src),
		line:   1,
		col:    1,
		tokens: make([]Token, 0, 16),
	}
}

func (lex *Lexer) Linenum() int {
	return lex.line
}

// Tokenize lexes all of src. The returned slice always ends in an EOF token.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Run()
}

func (lex *Lexer) Run() ([]Token, error) {
	for {
		done, err := lex.next()
		if err != nil {
			return nil, err
		}
		if done {
			return lex.tokens, nil
		}
	}
}

func (lex *Lexer) AppendToken(tok Token) {
	lex.tokens = append(lex.tokens, tok)
}

func (lex *Lexer) peek(k int) (rune, bool) {
	if lex.pos+k >= len(lex.src) {
		return 0, false
	}
	return lex.src[lex.pos+k], true
}

func (lex *Lexer) advance() rune {
	r := lex.src[lex.pos]
	lex.pos++
	if r == '\n' {
		lex.line++
		lex.col = 1
	} else {
		lex.col++
	}
	return r
}

func (lex *Lexer) here() Location {
	return Location{Line: lex.line, Col: lex.col}
}

func (lex *Lexer) fail(kind error, loc Location, format string, args ...any) error {
	return newError(lex.src, kind, loc, format, args...)
}

// emit appends a token spanning from start to the current read head.
func (lex *Lexer) emit(typ TokenType, start int, loc Location, literal any) {
	lex.AppendToken(Token{
		Type:    typ,
		Lexeme:  string(lex.src[start:lex.pos]),
		Literal: literal,
		Start:   start,
		End:     lex.pos,
		Line:    loc.Line,
		Col:     loc.Col,
	})
}

func isDelimiter(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '(', ')', '[', ']', '{', '}', '"', ';', '\'', '`', ',':
		return true
	}
	return false
}

// next scans one token, or skips one run of whitespace or comment.
func (lex *Lexer) next() (done bool, err error) {
	r, ok := lex.peek(0)
	if !ok {
		lex.emit(TokenEOF, lex.pos, lex.here(), nil)
		return true, nil
	}
	start, loc := lex.pos, lex.here()

	switch {
	case unicode.IsSpace(r):
		lex.advance()
		return false, nil
	case r == ';':
		for {
			c, ok := lex.peek(0)
			if !ok || c == '\n' {
				return false, nil
			}
			lex.advance()
		}
	}

	switch r {
	case '(':
		lex.advance()
		lex.emit(TokenLParen, start, loc, nil)
	case ')':
		lex.advance()
		lex.emit(TokenRParen, start, loc, nil)
	case '[':
		lex.advance()
		lex.emit(TokenLSquare, start, loc, nil)
	case ']':
		lex.advance()
		lex.emit(TokenRSquare, start, loc, nil)
	case '\'':
		lex.advance()
		lex.emit(TokenApostrophe, start, loc, nil)
	case '`':
		lex.advance()
		lex.emit(TokenBacktick, start, loc, nil)
	case ',':
		lex.advance()
		if c, ok := lex.peek(0); ok && c == '@' {
			lex.advance()
			lex.emit(TokenCommaAt, start, loc, nil)
		} else {
			lex.emit(TokenComma, start, loc, nil)
		}
	case '"':
		return false, lex.lexString(start, loc)
	case '#':
		return false, lex.lexHash(start, loc)
	case '|':
		return false, lex.lexLooseIdentifier(start, loc)
	case '{', '}':
		return false, lex.fail(ErrUnexpectedCharacter, loc, "'%c'", r)
	default:
		if err := lex.lexAtom(start, loc); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (lex *Lexer) lexString(start int, loc Location) error {
	lex.advance() // opening quote
	var b strings.Builder
	for {
		c, ok := lex.peek(0)
		if !ok {
			return lex.fail(ErrUnexpectedEOF, loc, "unterminated string literal")
		}
		lex.advance()
		switch c {
		case '"':
			lex.emit(TokenString, start, loc, b.String())
			return nil
		case '\\':
			e, ok := lex.peek(0)
			if !ok {
				return lex.fail(ErrUnexpectedEOF, loc, "unterminated string literal")
			}
			lex.advance()
			switch e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\\', '"':
				b.WriteRune(e)
			default:
				// unknown escapes are kept verbatim
				b.WriteRune('\\')
				b.WriteRune(e)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (lex *Lexer) lexHash(start int, loc Location) error {
	c, ok := lex.peek(1)
	if !ok {
		return lex.fail(ErrUnexpectedCharacter, loc, "'#'")
	}
	switch c {
	case '(':
		// the paren itself is left for the next token.
		lex.advance()
		lex.emit(TokenHashVector, start, loc, nil)
		return nil
	case ';':
		lex.advance()
		lex.advance()
		lex.emit(TokenHashSemicolon, start, loc, nil)
		return nil
	case '|':
		return lex.lexBlockComment(loc)
	case 't', 'f':
		for {
			r, ok := lex.peek(0)
			if !ok || (lex.pos > start && isDelimiter(r)) {
				break
			}
			lex.advance()
		}
		switch string(lex.src[start:lex.pos]) {
		case "#t", "#true":
			lex.emit(TokenBoolean, start, loc, true)
			return nil
		case "#f", "#false":
			lex.emit(TokenBoolean, start, loc, false)
			return nil
		}
		return lex.fail(ErrUnexpectedCharacter, loc, "'%s'", string(lex.src[start:lex.pos]))
	}
	return lex.fail(ErrUnexpectedCharacter, loc, "'#%c'", c)
}

// lexBlockComment skips a #| ... |# comment. Comments nest.
func (lex *Lexer) lexBlockComment(loc Location) error {
	lex.advance()
	lex.advance()
	depth := 1
	for depth > 0 {
		c, ok := lex.peek(0)
		if !ok {
			return lex.fail(ErrUnterminatedBlockComment, loc, "missing |#")
		}
		d, _ := lex.peek(1)
		switch {
		case c == '|' && d == '#':
			lex.advance()
			lex.advance()
			depth--
		case c == '#' && d == '|':
			lex.advance()
			lex.advance()
			depth++
		default:
			lex.advance()
		}
	}
	return nil
}

func (lex *Lexer) lexLooseIdentifier(start int, loc Location) error {
	lex.advance()
	for {
		c, ok := lex.peek(0)
		if !ok {
			return lex.fail(ErrUnterminatedIdentifier, loc, "missing closing '|'")
		}
		lex.advance()
		if c == '|' {
			tok := Token{
				Type:   TokenIdentifier,
				Lexeme: string(lex.src[start+1 : lex.pos-1]),
				Start:  start,
				End:    lex.pos,
				Line:   loc.Line,
				Col:    loc.Col,
			}
			lex.AppendToken(tok)
			return nil
		}
	}
}

// lexAtom consumes an identifier-shaped lexeme. Lexemes that could start
// a number are tried against the numeric classifier first.
func (lex *Lexer) lexAtom(start int, loc Location) error {
	for {
		r, ok := lex.peek(0)
		if !ok || isDelimiter(r) {
			break
		}
		lex.advance()
	}
	atom := string(lex.src[start:lex.pos])

	if strings.ContainsRune("0123456789+-.in", rune(atom[0])) {
		if atom == "." {
			lex.emit(TokenDot, start, loc, nil)
			return nil
		}
		n, err := tower.Parse(atom)
		if err == nil {
			lex.emit(TokenNumber, start, loc, n)
			return nil
		}
		if errors.Is(err, tower.ErrDivisionByZero) {
			return lex.fail(tower.ErrDivisionByZero, loc, "'%s' has a zero denominator", atom)
		}
	}
	if kw, ok := keywords[atom]; ok {
		lex.emit(kw, start, loc, nil)
		return nil
	}
	lex.emit(TokenIdentifier, start, loc, nil)
	return nil
}
