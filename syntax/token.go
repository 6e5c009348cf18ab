package syntax

import (
	"fmt"

	"github.com/cseval/cseval/tower"
)

type TokenType int

const (
	TokenEmpty TokenType = iota
	TokenLParen
	TokenRParen
	TokenLSquare
	TokenRSquare
	TokenDot
	TokenEOF

	TokenNumber
	TokenBoolean
	TokenString
	TokenIdentifier

	// keywords
	TokenIf
	TokenLet
	TokenCond
	TokenElse
	TokenDefine
	TokenSet
	TokenLambda
	TokenBegin
	TokenDelay
	TokenQuote
	TokenQuasiquote
	TokenUnquote
	TokenUnquoteSplicing
	TokenImport
	TokenExport
	TokenDefineSyntax
	TokenSyntaxRules

	// affectors
	TokenApostrophe
	TokenBacktick
	TokenComma
	TokenCommaAt
	TokenHashVector

	TokenHashSemicolon
)

var tokenNames = map[TokenType]string{
	TokenEmpty:           "EMPTY",
	TokenLParen:          "LEFT_PAREN",
	TokenRParen:          "RIGHT_PAREN",
	TokenLSquare:         "LEFT_BRACKET",
	TokenRSquare:         "RIGHT_BRACKET",
	TokenDot:             "DOT",
	TokenEOF:             "EOF",
	TokenNumber:          "NUMBER",
	TokenBoolean:         "BOOLEAN",
	TokenString:          "STRING",
	TokenIdentifier:      "IDENTIFIER",
	TokenIf:              "IF",
	TokenLet:             "LET",
	TokenCond:            "COND",
	TokenElse:            "ELSE",
	TokenDefine:          "DEFINE",
	TokenSet:             "SET",
	TokenLambda:          "LAMBDA",
	TokenBegin:           "BEGIN",
	TokenDelay:           "DELAY",
	TokenQuote:           "QUOTE",
	TokenQuasiquote:      "QUASIQUOTE",
	TokenUnquote:         "UNQUOTE",
	TokenUnquoteSplicing: "UNQUOTE_SPLICING",
	TokenImport:          "IMPORT",
	TokenExport:          "EXPORT",
	TokenDefineSyntax:    "DEFINE_SYNTAX",
	TokenSyntaxRules:     "SYNTAX_RULES",
	TokenApostrophe:      "APOSTROPHE",
	TokenBacktick:        "BACKTICK",
	TokenComma:           "COMMA",
	TokenCommaAt:         "COMMA_AT",
	TokenHashVector:      "HASH_VECTOR",
	TokenHashSemicolon:   "HASH_SEMICOLON",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"if":               TokenIf,
	"let":              TokenLet,
	"cond":             TokenCond,
	"else":             TokenElse,
	"define":           TokenDefine,
	"set!":             TokenSet,
	"lambda":           TokenLambda,
	"begin":            TokenBegin,
	"delay":            TokenDelay,
	"quote":            TokenQuote,
	"quasiquote":       TokenQuasiquote,
	"unquote":          TokenUnquote,
	"unquote-splicing": TokenUnquoteSplicing,
	"import":           TokenImport,
	"export":           TokenExport,
	"define-syntax":    TokenDefineSyntax,
	"syntax-rules":     TokenSyntaxRules,
}

// IsKeyword reports whether name lexes as a keyword rather than an
// identifier.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Keywords lists every keyword lexeme, for completion.
func Keywords() []string {
	r := make([]string, 0, len(keywords))
	for k := range keywords {
		r = append(r, k)
	}
	return r
}

// Token is immutable once the lexer produces it. Start and End are rune
// offsets into the source; Line and Col are 1-based.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // tower.Number, bool or string for literal tokens
	Start   int
	End     int
	Line    int
	Col     int
}

func (t Token) Loc() Location {
	return Location{Line: t.Line, Col: t.Col}
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenNumber, TokenIdentifier, TokenBoolean:
		return fmt.Sprintf("%s(%s)", t.Type, t.Lexeme)
	case TokenString:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	}
	return t.Type.String()
}

func (t Token) isAffector() bool {
	switch t.Type {
	case TokenApostrophe, TokenBacktick, TokenComma, TokenCommaAt, TokenHashVector:
		return true
	}
	return false
}

func (t Token) isKeyword() bool {
	return t.Type >= TokenIf && t.Type <= TokenSyntaxRules
}

func (t Token) isOpen() bool {
	return t.Type == TokenLParen || t.Type == TokenLSquare
}

func (t Token) isClose() bool {
	return t.Type == TokenRParen || t.Type == TokenRSquare
}

func (t Token) number() tower.Number {
	n, _ := t.Literal.(tower.Number)
	return n
}

// Location is a 1-based line and column in the source.
type Location struct {
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}
