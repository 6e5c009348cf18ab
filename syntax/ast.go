package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cseval/cseval/tower"
)

type NodeKind int

const (
	KindSequence NodeKind = iota
	KindNumericLiteral
	KindComplexLiteral
	KindBooleanLiteral
	KindStringLiteral
	KindIdentifier
	KindLambda
	KindDefinition
	KindReassignment
	KindApplication
	KindConditional
	KindPair
	KindNil
	KindSymbol
	KindVector
	KindSpliceMarker
	KindImport
	KindExport
	KindDefineSyntax
	KindSyntaxRules

	// sugared kinds, removed by Desugar (except Let, Cond and List, which
	// the machine evaluates directly).
	KindFunctionDefinition
	KindLet
	KindCond
	KindList
	KindBegin
	KindDelay

	kindCount
)

var kindNames = [...]string{
	KindSequence:           "Sequence",
	KindNumericLiteral:     "NumericLiteral",
	KindComplexLiteral:     "ComplexLiteral",
	KindBooleanLiteral:     "BooleanLiteral",
	KindStringLiteral:      "StringLiteral",
	KindIdentifier:         "Identifier",
	KindLambda:             "Lambda",
	KindDefinition:         "Definition",
	KindReassignment:       "Reassignment",
	KindApplication:        "Application",
	KindConditional:        "Conditional",
	KindPair:               "Pair",
	KindNil:                "Nil",
	KindSymbol:             "Symbol",
	KindVector:             "Vector",
	KindSpliceMarker:       "SpliceMarker",
	KindImport:             "Import",
	KindExport:             "Export",
	KindDefineSyntax:       "DefineSyntax",
	KindSyntaxRules:        "SyntaxRules",
	KindFunctionDefinition: "FunctionDefinition",
	KindLet:                "Let",
	KindCond:               "Cond",
	KindList:               "List",
	KindBegin:              "Begin",
	KindDelay:              "Delay",
}

func (k NodeKind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one syntax tree node. The set of implementations is closed;
// every consumer switches over the concrete types and panics on a kind it
// does not know.
type Node interface {
	Loc() Location
	Kind() NodeKind
	String() string
}

func (l Location) Loc() Location { return l }

type Sequence struct {
	Location
	Body []Node
}

type NumericLiteral struct {
	Location
	Value tower.Number
}

// ComplexLiteral holds a literal whose value has a non-zero imaginary part.
type ComplexLiteral struct {
	Location
	Value tower.Number
}

type BooleanLiteral struct {
	Location
	Value bool
}

type StringLiteral struct {
	Location
	Value string
}

type Identifier struct {
	Location
	Name string
}

// Lambda has positional Params and an optional Rest parameter that
// collects surplus arguments into a list.
type Lambda struct {
	Location
	Params []*Identifier
	Rest   *Identifier
	Body   *Sequence
}

type Definition struct {
	Location
	Name  *Identifier
	Value Node
}

type Reassignment struct {
	Location
	Name  *Identifier
	Value Node
}

type Application struct {
	Location
	Operator Node
	Operands []Node
}

// Conditional with a nil Alternate evaluates to nil when the test fails.
// The parser always fills Alternate in.
type Conditional struct {
	Location
	Test       Node
	Consequent Node
	Alternate  Node
}

type Pair struct {
	Location
	Car Node
	Cdr Node
}

type Nil struct {
	Location
}

type Symbol struct {
	Location
	Name string
}

type Vector struct {
	Location
	Elements []Node
}

// SpliceMarker wraps an unquote-splicing target inside a quasiquoted
// list; its value is spliced into the enclosing list.
type SpliceMarker struct {
	Location
	Value Node
}

type Import struct {
	Location
	Source      *StringLiteral
	Identifiers []*Identifier
}

type Export struct {
	Location
	Definition *Definition
}

type DefineSyntax struct {
	Location
	Name  *Identifier
	Rules *SyntaxRules
}

type SyntaxRule struct {
	Pattern  Node
	Template Node
}

type SyntaxRules struct {
	Location
	Literals []*Symbol
	Rules    []SyntaxRule
}

type FunctionDefinition struct {
	Location
	Name   *Identifier
	Params []*Identifier
	Rest   *Identifier
	Body   *Sequence
}

type Let struct {
	Location
	Identifiers []*Identifier
	Values      []Node
	Body        *Sequence
}

// Cond holds parallel Predicates and Consequents; Catchall is the else
// clause, or nil.
type Cond struct {
	Location
	Predicates  []Node
	Consequents []Node
	Catchall    Node
}

// List is a quoted proper list.
type List struct {
	Location
	Elements []Node
}

type Begin struct {
	Location
	Body []Node
}

type Delay struct {
	Location
	Body Node
}

func (*Sequence) Kind() NodeKind           { return KindSequence }
func (*NumericLiteral) Kind() NodeKind     { return KindNumericLiteral }
func (*ComplexLiteral) Kind() NodeKind     { return KindComplexLiteral }
func (*BooleanLiteral) Kind() NodeKind     { return KindBooleanLiteral }
func (*StringLiteral) Kind() NodeKind      { return KindStringLiteral }
func (*Identifier) Kind() NodeKind         { return KindIdentifier }
func (*Lambda) Kind() NodeKind             { return KindLambda }
func (*Definition) Kind() NodeKind         { return KindDefinition }
func (*Reassignment) Kind() NodeKind       { return KindReassignment }
func (*Application) Kind() NodeKind        { return KindApplication }
func (*Conditional) Kind() NodeKind        { return KindConditional }
func (*Pair) Kind() NodeKind               { return KindPair }
func (*Nil) Kind() NodeKind                { return KindNil }
func (*Symbol) Kind() NodeKind             { return KindSymbol }
func (*Vector) Kind() NodeKind             { return KindVector }
func (*SpliceMarker) Kind() NodeKind       { return KindSpliceMarker }
func (*Import) Kind() NodeKind             { return KindImport }
func (*Export) Kind() NodeKind             { return KindExport }
func (*DefineSyntax) Kind() NodeKind       { return KindDefineSyntax }
func (*SyntaxRules) Kind() NodeKind        { return KindSyntaxRules }
func (*FunctionDefinition) Kind() NodeKind { return KindFunctionDefinition }
func (*Let) Kind() NodeKind                { return KindLet }
func (*Cond) Kind() NodeKind               { return KindCond }
func (*List) Kind() NodeKind               { return KindList }
func (*Begin) Kind() NodeKind              { return KindBegin }
func (*Delay) Kind() NodeKind              { return KindDelay }

func join[T Node](nodes []T) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

func formals(params []*Identifier, rest *Identifier) string {
	switch {
	case rest != nil && len(params) == 0:
		return rest.Name
	case rest != nil:
		return "(" + join(params) + " . " + rest.Name + ")"
	}
	return "(" + join(params) + ")"
}

func (n *Sequence) String() string       { return join(n.Body) }
func (n *NumericLiteral) String() string { return n.Value.String() }
func (n *ComplexLiteral) String() string { return n.Value.String() }
func (n *StringLiteral) String() string  { return strconv.Quote(n.Value) }
func (n *Identifier) String() string     { return n.Name }
func (n *Nil) String() string            { return "()" }
func (n *Symbol) String() string         { return n.Name }
func (n *SpliceMarker) String() string   { return ",@" + n.Value.String() }
func (n *List) String() string           { return "(" + join(n.Elements) + ")" }
func (n *Vector) String() string         { return "#(" + join(n.Elements) + ")" }
func (n *Begin) String() string          { return "(begin " + join(n.Body) + ")" }
func (n *Delay) String() string          { return "(delay " + n.Body.String() + ")" }
func (n *Export) String() string         { return "(export " + n.Definition.String() + ")" }

func (n *BooleanLiteral) String() string {
	if n.Value {
		return "#t"
	}
	return "#f"
}

func (n *Lambda) String() string {
	return fmt.Sprintf("(lambda %s %s)", formals(n.Params, n.Rest), n.Body)
}

func (n *Definition) String() string {
	return fmt.Sprintf("(define %s %s)", n.Name, n.Value)
}

func (n *Reassignment) String() string {
	return fmt.Sprintf("(set! %s %s)", n.Name, n.Value)
}

func (n *Application) String() string {
	if len(n.Operands) == 0 {
		return "(" + n.Operator.String() + ")"
	}
	return "(" + n.Operator.String() + " " + join(n.Operands) + ")"
}

func (n *Conditional) String() string {
	if n.Alternate == nil {
		return fmt.Sprintf("(if %s %s)", n.Test, n.Consequent)
	}
	return fmt.Sprintf("(if %s %s %s)", n.Test, n.Consequent, n.Alternate)
}

func (n *Pair) String() string {
	return fmt.Sprintf("(%s . %s)", n.Car, n.Cdr)
}

func (n *Import) String() string {
	return fmt.Sprintf("(import %s (%s))", n.Source, join(n.Identifiers))
}

func (n *DefineSyntax) String() string {
	return fmt.Sprintf("(define-syntax %s %s)", n.Name, n.Rules)
}

func (n *SyntaxRules) String() string {
	var b strings.Builder
	b.WriteString("(syntax-rules (" + join(n.Literals) + ")")
	for _, r := range n.Rules {
		fmt.Fprintf(&b, " (%s %s)", r.Pattern, r.Template)
	}
	b.WriteString(")")
	return b.String()
}

func (n *FunctionDefinition) String() string {
	head := append([]*Identifier{n.Name}, n.Params...)
	if n.Rest != nil {
		return fmt.Sprintf("(define (%s . %s) %s)", join(head), n.Rest, n.Body)
	}
	return fmt.Sprintf("(define (%s) %s)", join(head), n.Body)
}

func (n *Let) String() string {
	binds := make([]string, len(n.Identifiers))
	for i := range n.Identifiers {
		binds[i] = fmt.Sprintf("(%s %s)", n.Identifiers[i], n.Values[i])
	}
	return fmt.Sprintf("(let (%s) %s)", strings.Join(binds, " "), n.Body)
}

func (n *Cond) String() string {
	var b strings.Builder
	b.WriteString("(cond")
	for i := range n.Predicates {
		fmt.Fprintf(&b, " (%s %s)", n.Predicates[i], n.Consequents[i])
	}
	if n.Catchall != nil {
		fmt.Fprintf(&b, " (else %s)", n.Catchall)
	}
	b.WriteString(")")
	return b.String()
}
