package syntax

import "fmt"

// Desugar rewrites the sugared forms the machine does not evaluate:
// function definitions become definitions of lambdas, begin becomes a
// sequence, and delay becomes (make-promise (lambda () body)). Let, Cond
// and List are kept; their children are rewritten.
func Desugar(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = desugar(n)
	}
	return out
}

func desugarSeq(s *Sequence) *Sequence {
	if s == nil {
		return nil
	}
	return &Sequence{Location: s.Location, Body: Desugar(s.Body)}
}

func desugarFunctionDefinition(f *FunctionDefinition) *Definition {
	return &Definition{
		Location: f.Location,
		Name:     f.Name,
		Value: &Lambda{
			Location: f.Location,
			Params:   f.Params,
			Rest:     f.Rest,
			Body:     desugarSeq(f.Body),
		},
	}
}

func desugar(n Node) Node {
	if n == nil {
		return nil
	}
	switch x := n.(type) {
	case *NumericLiteral, *ComplexLiteral, *BooleanLiteral, *StringLiteral,
		*Identifier, *Nil, *Symbol, *Import, *DefineSyntax, *SyntaxRules:
		return n
	case *Sequence:
		return desugarSeq(x)
	case *Lambda:
		return &Lambda{Location: x.Location, Params: x.Params, Rest: x.Rest, Body: desugarSeq(x.Body)}
	case *Definition:
		return &Definition{Location: x.Location, Name: x.Name, Value: desugar(x.Value)}
	case *Reassignment:
		return &Reassignment{Location: x.Location, Name: x.Name, Value: desugar(x.Value)}
	case *Application:
		return &Application{Location: x.Location, Operator: desugar(x.Operator), Operands: Desugar(x.Operands)}
	case *Conditional:
		return &Conditional{
			Location:   x.Location,
			Test:       desugar(x.Test),
			Consequent: desugar(x.Consequent),
			Alternate:  desugar(x.Alternate),
		}
	case *Pair:
		return &Pair{Location: x.Location, Car: desugar(x.Car), Cdr: desugar(x.Cdr)}
	case *Vector:
		return &Vector{Location: x.Location, Elements: Desugar(x.Elements)}
	case *SpliceMarker:
		return &SpliceMarker{Location: x.Location, Value: desugar(x.Value)}
	case *Export:
		return &Export{Location: x.Location, Definition: desugar(x.Definition).(*Definition)}
	case *FunctionDefinition:
		return desugarFunctionDefinition(x)
	case *Let:
		return &Let{Location: x.Location, Identifiers: x.Identifiers, Values: Desugar(x.Values), Body: desugarSeq(x.Body)}
	case *Cond:
		return &Cond{
			Location:    x.Location,
			Predicates:  Desugar(x.Predicates),
			Consequents: Desugar(x.Consequents),
			Catchall:    desugar(x.Catchall),
		}
	case *List:
		return &List{Location: x.Location, Elements: Desugar(x.Elements)}
	case *Begin:
		return &Sequence{Location: x.Location, Body: Desugar(x.Body)}
	case *Delay:
		thunk := &Lambda{
			Location: x.Location,
			Body:     &Sequence{Location: x.Location, Body: []Node{desugar(x.Body)}},
		}
		return &Application{
			Location: x.Location,
			Operator: &Identifier{Location: x.Location, Name: "make-promise"},
			Operands: []Node{thunk},
		}
	}
	panic(fmt.Sprintf("desugar: unknown node kind %v", n.Kind()))
}
