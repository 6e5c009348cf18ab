package cse

import (
	"strings"

	"github.com/cseval/cseval/tower"
)

// Render gives the written representation of a value: strings are
// quoted, symbols are piped when they would not read back as symbols.
func Render(x Sexp) string {
	var b strings.Builder
	pr := &printer{b: &b, write: true, seen: make(map[any]bool)}
	pr.print(x)
	return b.String()
}

// Display is Render without string quotes, as used by display.
func Display(x Sexp) string {
	var b strings.Builder
	pr := &printer{b: &b, seen: make(map[any]bool)}
	pr.print(x)
	return b.String()
}

type printer struct {
	b     *strings.Builder
	write bool
	seen  map[any]bool
}

func (pr *printer) print(x Sexp) {
	switch v := x.(type) {
	case nil:
		pr.b.WriteString("#<nil>")
	case SexpStr:
		if pr.write {
			pr.b.WriteString(v.SexpString())
		} else {
			pr.b.WriteString(string(v))
		}
	case *SexpPair:
		if pr.seen[v] {
			pr.b.WriteString("...")
			return
		}
		pr.seen[v] = true
		pr.printList(v)
		delete(pr.seen, v)
	case *SexpVector:
		if pr.seen[v] {
			pr.b.WriteString("...")
			return
		}
		pr.seen[v] = true
		pr.b.WriteString("#(")
		for i, e := range v.Val {
			if i > 0 {
				pr.b.WriteByte(' ')
			}
			pr.print(e)
		}
		pr.b.WriteByte(')')
		delete(pr.seen, v)
	case *SexpFunction:
		switch {
		case v.user:
			pr.b.WriteString("#<primitive " + v.name + ">")
		case v.name == "":
			pr.b.WriteString("#<procedure>")
		default:
			pr.b.WriteString("#<procedure " + v.name + ">")
		}
	default:
		pr.b.WriteString(x.SexpString())
	}
}

func (pr *printer) printList(p *SexpPair) {
	var spine []*SexpPair
	defer func() {
		for _, t := range spine {
			delete(pr.seen, t)
		}
	}()
	pr.b.WriteByte('(')
	pr.print(p.Head)
	var cur Sexp = p.Tail
	for {
		switch t := cur.(type) {
		case *SexpPair:
			if pr.seen[t] {
				pr.b.WriteString(" ...)")
				return
			}
			pr.seen[t] = true
			spine = append(spine, t)
			pr.b.WriteByte(' ')
			pr.print(t.Head)
			cur = t.Tail
			continue
		case SexpSentinel:
			if t == SexpNull {
				pr.b.WriteByte(')')
				return
			}
		}
		pr.b.WriteString(" . ")
		pr.print(cur)
		pr.b.WriteByte(')')
		return
	}
}

func renderSymbol(name string) string {
	if needsPipes(name) {
		return "|" + name + "|"
	}
	return name
}

func needsPipes(name string) bool {
	if name == "" || name == "." || tower.IsNumber(name) || tower.ZeroDenominator(name) {
		return true
	}
	if name[0] == '#' {
		return true
	}
	return strings.ContainsAny(name, " \t\r\n()[]{}\";'`,|")
}
