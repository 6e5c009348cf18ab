package syntax

import (
	"fmt"

	"github.com/cseval/cseval/tower"
)

// Equal compares two trees field by field, ignoring source locations.
func Equal(a, b Node) bool {
	if isNilNode(a) || isNilNode(b) {
		return isNilNode(a) && isNilNode(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Sequence:
		return equalAll(x.Body, b.(*Sequence).Body)
	case *NumericLiteral:
		return equalNumber(x.Value, b.(*NumericLiteral).Value)
	case *ComplexLiteral:
		return equalNumber(x.Value, b.(*ComplexLiteral).Value)
	case *BooleanLiteral:
		return x.Value == b.(*BooleanLiteral).Value
	case *StringLiteral:
		return x.Value == b.(*StringLiteral).Value
	case *Identifier:
		return equalIdent(x, b.(*Identifier))
	case *Lambda:
		y := b.(*Lambda)
		return equalIdents(x.Params, y.Params) && equalIdent(x.Rest, y.Rest) && Equal(x.Body, y.Body)
	case *Definition:
		y := b.(*Definition)
		return equalIdent(x.Name, y.Name) && Equal(x.Value, y.Value)
	case *Reassignment:
		y := b.(*Reassignment)
		return equalIdent(x.Name, y.Name) && Equal(x.Value, y.Value)
	case *Application:
		y := b.(*Application)
		return Equal(x.Operator, y.Operator) && equalAll(x.Operands, y.Operands)
	case *Conditional:
		y := b.(*Conditional)
		return Equal(x.Test, y.Test) && Equal(x.Consequent, y.Consequent) && Equal(x.Alternate, y.Alternate)
	case *Pair:
		y := b.(*Pair)
		return Equal(x.Car, y.Car) && Equal(x.Cdr, y.Cdr)
	case *Nil:
		return true
	case *Symbol:
		return x.Name == b.(*Symbol).Name
	case *Vector:
		return equalAll(x.Elements, b.(*Vector).Elements)
	case *SpliceMarker:
		return Equal(x.Value, b.(*SpliceMarker).Value)
	case *Import:
		y := b.(*Import)
		return Equal(x.Source, y.Source) && equalIdents(x.Identifiers, y.Identifiers)
	case *Export:
		return Equal(x.Definition, b.(*Export).Definition)
	case *DefineSyntax:
		y := b.(*DefineSyntax)
		return equalIdent(x.Name, y.Name) && Equal(x.Rules, y.Rules)
	case *SyntaxRules:
		y := b.(*SyntaxRules)
		if len(x.Literals) != len(y.Literals) || len(x.Rules) != len(y.Rules) {
			return false
		}
		for i := range x.Literals {
			if x.Literals[i].Name != y.Literals[i].Name {
				return false
			}
		}
		for i := range x.Rules {
			if !Equal(x.Rules[i].Pattern, y.Rules[i].Pattern) || !Equal(x.Rules[i].Template, y.Rules[i].Template) {
				return false
			}
		}
		return true
	case *FunctionDefinition:
		y := b.(*FunctionDefinition)
		return equalIdent(x.Name, y.Name) && equalIdents(x.Params, y.Params) &&
			equalIdent(x.Rest, y.Rest) && Equal(x.Body, y.Body)
	case *Let:
		y := b.(*Let)
		return equalIdents(x.Identifiers, y.Identifiers) && equalAll(x.Values, y.Values) && Equal(x.Body, y.Body)
	case *Cond:
		y := b.(*Cond)
		return equalAll(x.Predicates, y.Predicates) && equalAll(x.Consequents, y.Consequents) &&
			Equal(x.Catchall, y.Catchall)
	case *List:
		return equalAll(x.Elements, b.(*List).Elements)
	case *Begin:
		return equalAll(x.Body, b.(*Begin).Body)
	case *Delay:
		return Equal(x.Body, b.(*Delay).Body)
	}
	panic(fmt.Sprintf("Equal: unknown node kind %v", a.Kind()))
}

// isNilNode is true for an untyped nil and for a typed nil pointer
// stored in a Node.
func isNilNode(n Node) bool {
	switch x := n.(type) {
	case nil:
		return true
	case *Sequence:
		return x == nil
	case *Identifier:
		return x == nil
	case *StringLiteral:
		return x == nil
	case *Definition:
		return x == nil
	case *SyntaxRules:
		return x == nil
	}
	return false
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalIdent(a, b *Identifier) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name
}

func equalIdents(a, b []*Identifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalIdent(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalNumber(a, b tower.Number) bool {
	if a.Level() != b.Level() {
		return false
	}
	return a.String() == b.String()
}
