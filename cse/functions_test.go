package cse

import (
	"bytes"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"

	"github.com/cseval/cseval/store"
)

func Test416Printer(t *testing.T) {

	cv.Convey(`Given a cyclic list, rendering should terminate and mark the cycle`, t, func() {
		s, _ := newTestSession()
		res := eval(s, "(define c (list 1 2 3)) (set-cdr! (cdr (cdr c)) (cdr c)) c")
		cv.So(res.Repr, cv.ShouldEqual, "(1 2 3 ...)")
		cv.So(res.Tag, cv.ShouldEqual, TagPair)
	})

	cv.Convey(`Given shared but acyclic structure, both occurrences should print in full`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(define x '(1)) (list x x)"), cv.ShouldEqual, "((1) (1))")
	})

	cv.Convey(`Given symbols that would not read back, they should be piped`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, `(string->symbol "a b")`), cv.ShouldEqual, "|a b|")
		cv.So(repr(s, `(string->symbol "12")`), cv.ShouldEqual, "|12|")
		cv.So(repr(s, `(string->symbol "1/0")`), cv.ShouldEqual, "|1/0|")
		cv.So(repr(s, `(string->symbol "abc")`), cv.ShouldEqual, "abc")
		cv.So(repr(s, `(symbol->string 'abc)`), cv.ShouldEqual, `"abc"`)
	})

	cv.Convey(`Given strings, display should write them raw while the result is quoted`, t, func() {
		s, out := newTestSession()
		cv.So(repr(s, `(display "a\"b") "a\"b"`), cv.ShouldEqual, `"a\"b"`)
		cv.So(out.String(), cv.ShouldEqual, `a"b`)
		eval(s, `(newline) (display '(1 "x" #t))`)
		cv.So(out.String(), cv.ShouldEqual, "a\"b\n(1 x #t)")
		cv.So(Display(MakeList([]Sexp{SexpStr("q")})), cv.ShouldEqual, "(q)")
		cv.So(Render(MakeList([]Sexp{SexpStr("q")})), cv.ShouldEqual, `("q")`)
	})

	cv.Convey(`Given the sentinels, they should have fixed spellings`, t, func() {
		cv.So(Render(SexpNull), cv.ShouldEqual, "()")
		cv.So(Render(SexpVoid), cv.ShouldEqual, "#<void>")
		cv.So(Render(SexpBool(true)), cv.ShouldEqual, "#t")
		cv.So(Render(&SexpError{Msg: "boom"}), cv.ShouldEqual, "Error: boom")
	})
}

func Test417NumericPrimitives(t *testing.T) {

	cv.Convey(`Given integer division of mixed signs, quotient truncates and modulo follows the divisor`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(quotient 17 5)"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(remainder -17 5)"), cv.ShouldEqual, "-2")
		cv.So(repr(s, "(modulo -17 5)"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(modulo 17 -5)"), cv.ShouldEqual, "-3")
	})

	cv.Convey(`Given mixed exactness, results should be inexact and comparisons should cross levels`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(exact->inexact 1/4)"), cv.ShouldEqual, "0.25")
		cv.So(repr(s, "(max 1 2.0)"), cv.ShouldEqual, "2.0")
		cv.So(repr(s, "(max 3 2.0)"), cv.ShouldEqual, "3.0")
		cv.So(repr(s, "(min 1 2)"), cv.ShouldEqual, "1")
		cv.So(repr(s, "(< 1 2 3)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(< 1 3 2)"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(>= 3 3 1)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(<= 1 +nan.0)"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(>= +nan.0 1)"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(<= 1 1.0 2)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(= 1 1.0)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(eqv? 1 1.0)"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(eqv? 2 2)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(exact? 1/2)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(integer? 2.0)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(abs -7/2)"), cv.ShouldEqual, "7/2")
		cv.So(repr(s, "(sqrt 49)"), cv.ShouldEqual, "7")
	})

	cv.Convey(`Given numerals in strings, string->number should parse them and give #f otherwise`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, `(string->number "42")`), cv.ShouldEqual, "42")
		cv.So(repr(s, `(string->number "1/3")`), cv.ShouldEqual, "1/3")
		cv.So(repr(s, `(string->number "abc")`), cv.ShouldEqual, "#f")
		cv.So(repr(s, `(number->string 3/4)`), cv.ShouldEqual, `"3/4"`)
		cv.So(repr(s, `(+ 1 "a")`), cv.ShouldStartWith, "Error: +:")
	})
}

func Test418ListAndVectorPrimitives(t *testing.T) {

	cv.Convey(`Given the list primitives, they should build, measure and index lists`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(length '(1 2 3))"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(append '(1) '(2 3) 4)"), cv.ShouldEqual, "(1 2 3 . 4)")
		cv.So(repr(s, "(append)"), cv.ShouldEqual, "()")
		cv.So(repr(s, "(reverse '(1 2 3))"), cv.ShouldEqual, "(3 2 1)")
		cv.So(repr(s, "(list-ref '(a b c) 2)"), cv.ShouldEqual, "c")
		cv.So(repr(s, "(list-ref '(a b c) 3)"), cv.ShouldStartWith, "Error: list-ref:")
		cv.So(repr(s, "(length '(1 . 2))"), cv.ShouldStartWith, "Error: length:")
		cv.So(repr(s, "(define p (cons 1 2)) (set-car! p 9) p"), cv.ShouldEqual, "(9 . 2)")
	})

	cv.Convey(`Given equality predicates, equal? should compare structure while eq? compares identity`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(equal? '(1 (2 #(3))) '(1 (2 #(3))))"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(eq? '(1) '(1))"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(define l '(1)) (eq? l l)"), cv.ShouldEqual, "#t")
		cv.So(repr(s, "(eq? 'a 'a)"), cv.ShouldEqual, "#t")
	})

	cv.Convey(`Given vectors, they should be indexed, mutated and converted`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(define v (make-vector 3 0)) (vector-set! v 1 'x) v"), cv.ShouldEqual, "#(0 x 0)")
		cv.So(repr(s, "(vector-length v)"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(vector->list v)"), cv.ShouldEqual, "(0 x 0)")
		cv.So(repr(s, "(list->vector '(1 2))"), cv.ShouldEqual, "#(1 2)")
		cv.So(repr(s, "(vector-ref v 5)"), cv.ShouldStartWith, "Error: vector-ref:")
	})

	cv.Convey(`Given type predicates, each should recognize only its own kind`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(list (null? '()) (pair? '()) (list? '(1)) (procedure? car) (symbol? 'a) (string? 'a))"),
			cv.ShouldEqual, "(#t #f #t #t #t #f)")
		cv.So(repr(s, "(not 0)"), cv.ShouldEqual, "#f")
		cv.So(repr(s, "(not #f)"), cv.ShouldEqual, "#t")
	})
}

func Test419HistoryRecording(t *testing.T) {

	cv.Convey(`Given a history store, each evaluated chunk should be recorded and prelude runs should not`, t, func() {
		hist := store.NewMemory()
		s, _ := newTestSession(func(c *Config) { c.History = hist })
		eval(s, "(define x 2)")
		eval(s, "(* x 21)")
		_, err := s.EvalString("(define hidden 1)", EvalOptions{IsPrelude: true})
		panicOn(err)

		recs, err := hist.List()
		panicOn(err)
		cv.So(len(recs), cv.ShouldEqual, 2)
		cv.So(recs[0].Seq, cv.ShouldEqual, 1)
		cv.So(recs[1].Source, cv.ShouldEqual, "(* x 21)")
		cv.So(recs[1].Result, cv.ShouldEqual, "42")
		cv.So(recs[1].Fingerprint, cv.ShouldEqual, store.Fingerprint([]byte("(* x 21)")))
		cv.So(recs[1].Steps, cv.ShouldBeGreaterThan, 0)
	})
}

func Test420Stack(t *testing.T) {

	cv.Convey(`Given a stack, Get and Pop should see the top first and PopN should give the bottom first`, t, func() {
		st := NewStack[int]("test")
		for i := 1; i <= 4; i++ {
			st.Push(i)
		}
		top, err := st.Get(0)
		panicOn(err)
		cv.So(top, cv.ShouldEqual, 4)
		cv.So(st.PopN(2), cv.ShouldResemble, []int{3, 4})
		cv.So(st.Elements(), cv.ShouldResemble, []int{1, 2})
		cl := st.Clone()
		cl.Push(9)
		cv.So(st.Size(), cv.ShouldEqual, 2)
		st.TruncateToSize(0)
		_, err = st.Pop()
		cv.So(err, cv.ShouldEqual, StackUnderFlowErr)
		cv.So(func() { st.MustPop() }, cv.ShouldPanic)
	})

	cv.Convey(`Given trace output, VPrintf should write only when Verbose is on`, t, func() {
		var buf bytes.Buffer
		saved := OurStdout
		OurStdout = &buf
		defer func() { OurStdout = saved; Verbose = false }()
		VPrintf("hidden\n")
		Verbose = true
		VPrintf("shown %d\n", 1)
		cv.So(strings.Contains(buf.String(), "hidden"), cv.ShouldBeFalse)
		cv.So(buf.String(), cv.ShouldContainSubstring, "shown 1")
	})
}
