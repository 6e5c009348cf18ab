package cse

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	cv "github.com/glycerine/goconvey/convey"

	"github.com/cseval/cseval/syntax"
)

func panicOn(err error) {
	if err != nil {
		panic(err)
	}
}

func newTestSession(configure ...func(*Config)) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := NewConfig()
	cfg.Stdout = &out
	for _, f := range configure {
		f(cfg)
	}
	s, err := Initialize(cfg)
	panicOn(err)
	return s, &out
}

func eval(s *Session, src string) *Result {
	res, err := s.EvalString(src, EvalOptions{})
	panicOn(err)
	return res
}

func repr(s *Session, src string) string {
	return eval(s, src).Repr
}

func Test400ArithmeticBasics(t *testing.T) {

	cv.Convey(`Given the identity and unary cases of the arithmetic primitives, they should give identities, negation and inversion`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(+ 1 2)"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(*)"), cv.ShouldEqual, "1")
		cv.So(repr(s, "(+)"), cv.ShouldEqual, "0")
		cv.So(repr(s, "(- 5)"), cv.ShouldEqual, "-5")
		cv.So(repr(s, "(/ 2)"), cv.ShouldEqual, "1/2")
		cv.So(repr(s, "(/ 6 3)"), cv.ShouldEqual, "2")
		cv.So(repr(s, "(- 10 1 2 3)"), cv.ShouldEqual, "4")
		cv.So(repr(s, "(+ 1/2 0.5)"), cv.ShouldEqual, "1.0")
		res := eval(s, "(+ 1 (sqrt -4))")
		cv.So(res.Repr, cv.ShouldEqual, "1+2i")
		cv.So(res.Tag, cv.ShouldEqual, TagComplex)
		cv.So(eval(s, "(+ 1 2)").Tag, cv.ShouldEqual, TagNumber)
	})
}

func Test401DefinitionThenLookup(t *testing.T) {

	cv.Convey(`Given (define x 10) then x, the definition should give void and x should resolve to 10 in the same environment`, t, func() {
		s, _ := newTestSession()
		res := eval(s, "(define x 10)")
		cv.So(res.Tag, cv.ShouldEqual, TagVoid)
		cv.So(res.Value, cv.ShouldEqual, SexpVoid)
		cv.So(repr(s, "x"), cv.ShouldEqual, "10")
		cv.So(repr(s, "(define y 1) (set! y (+ y x)) y"), cv.ShouldEqual, "11")

		v, where, ok := s.Global().Lookup("x")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(where, cv.ShouldEqual, s.Global())
		cv.So(Render(v), cv.ShouldEqual, "10")
	})
}

func Test402Conditionals(t *testing.T) {

	cv.Convey(`Given if with and without an alternate, only #f and nil should count as false`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(if #f 1 2)"), cv.ShouldEqual, "2")
		cv.So(eval(s, "(if #f 1)").Value, cv.ShouldEqual, SexpVoid)
		cv.So(repr(s, "(if '() 1 2)"), cv.ShouldEqual, "2")
		cv.So(repr(s, "(if 0 1 2)"), cv.ShouldEqual, "1")
		cv.So(repr(s, `(if "" 1 2)`), cv.ShouldEqual, "1")
	})

	cv.Convey(`Given cond clauses, the first true predicate should win, and no match without else should give nil`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(cond ((= 1 2) 'no) ((= 1 1) 'yes) (else 'other))"), cv.ShouldEqual, "yes")
		cv.So(repr(s, "(cond ((= 1 2) 'no) (else 'other 'last))"), cv.ShouldEqual, "last")
		cv.So(repr(s, "(cond ((= 1 2) 'no))"), cv.ShouldEqual, "()")
	})
}

func Test403StepLimit(t *testing.T) {

	cv.Convey(`Given a non-terminating loop and a step limit, evaluation should stop with the step-limit error exactly at the limit`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.StepLimit = 1000 })
		res, err := s.EvalString("(define (loop) (loop)) (loop)", EvalOptions{})
		cv.So(errors.Is(err, ErrStepLimitExceeded), cv.ShouldBeTrue)
		cv.So(res, cv.ShouldNotBeNil)
		cv.So(res.Steps, cv.ShouldEqual, 1000)

		res, err = s.EvalString("(loop)", EvalOptions{StepLimit: 50})
		cv.So(errors.Is(err, ErrStepLimitExceeded), cv.ShouldBeTrue)
		cv.So(res.Steps, cv.ShouldEqual, 50)
	})

	cv.Convey(`Given a prelude-flagged evaluation, the step limit should not apply`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.StepLimit = 1000 })
		res, err := s.EvalString(`
(define (count n) (if (= n 0) 'done (count (- n 1))))
(count 2000)`, EvalOptions{IsPrelude: true})
		panicOn(err)
		cv.So(res.Repr, cv.ShouldEqual, "done")
		cv.So(res.Steps, cv.ShouldBeGreaterThan, 1000)
	})
}

func Test404SteppingMatchesRunning(t *testing.T) {

	cv.Convey(`Given the same program, single-stepping and running to completion should end with the same value on top of the Stash`, t, func() {
		const prog = "(define (fact n) (if (= n 0) 1 (* n (fact (- n 1))))) (fact 10)"
		a, _ := newTestSession()
		res := eval(a, prog)
		cv.So(res.Repr, cv.ShouldEqual, "3628800")

		b, _ := newTestSession()
		steps, err := b.Stepper(prog, EvalOptions{})
		panicOn(err)
		var last StepFrame
		n := 0
		for frame, err := range steps {
			panicOn(err)
			n++
			cv.So(frame.Step, cv.ShouldEqual, n)
			last = frame
		}
		cv.So(n, cv.ShouldEqual, res.Steps)
		cv.So(Render(last.Stash[len(last.Stash)-1]), cv.ShouldEqual, res.Repr)
		cv.So(len(last.Control), cv.ShouldEqual, 0)
	})

	cv.Convey(`Given a tail-recursive loop, Control should stay bounded`, t, func() {
		s, _ := newTestSession()
		steps, err := s.Stepper("(define (count n) (if (= n 0) 'done (count (- n 1)))) (count 500)", EvalOptions{})
		panicOn(err)
		maxControl := 0
		for frame, err := range steps {
			panicOn(err)
			maxControl = max(maxControl, len(frame.Control))
		}
		cv.So(maxControl, cv.ShouldBeLessThan, 20)
	})
}

func Test405ErrorsBecomeValues(t *testing.T) {

	cv.Convey(`Given faults in the program, the result should be an error value and the session should carry on`, t, func() {
		s, _ := newTestSession()
		res := eval(s, "(car 1)")
		cv.So(res.Tag, cv.ShouldEqual, TagError)
		cv.So(res.Repr, cv.ShouldStartWith, "Error: car:")

		cv.So(repr(s, "nope"), cv.ShouldEqual, "Error: unbound variable 'nope'")
		cv.So(repr(s, "(1 2)"), cv.ShouldEqual, "Error: cannot apply a non-procedure: 1")
		cv.So(repr(s, "(set! nope 1)"), cv.ShouldEqual, "Error: cannot assign to unbound variable 'nope'")
		cv.So(repr(s, `(error "bad thing:" 42 'x)`), cv.ShouldEqual, "Error: bad thing: 42 x")
		cv.So(repr(s, "(/ 1 0)"), cv.ShouldEqual, "Error: /: division by zero")
		cv.So(repr(s, "(< 1 (sqrt -1))"), cv.ShouldStartWith, "Error: <:")

		cv.So(repr(s, "(define (f) (car '())) (define z 5) (f) z"), cv.ShouldStartWith, "Error: car:")
		cv.So(repr(s, "(define z 5) z"), cv.ShouldEqual, "5")
		cv.So(s.Global().Name, cv.ShouldEqual, "program")
	})

	cv.Convey(`Given a syntax error, EvalString should return it as a Go error`, t, func() {
		s, _ := newTestSession()
		_, err := s.EvalString("(+ 1 2", EvalOptions{})
		cv.So(errors.Is(err, syntax.ErrUnexpectedEOF), cv.ShouldBeTrue)
	})
}

func Test406QuotingAndAggregates(t *testing.T) {

	cv.Convey(`Given quoted and quasiquoted data, lists, pairs and vectors should be rebuilt in order`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "'(1 2 . 3)"), cv.ShouldEqual, "(1 2 . 3)")
		cv.So(repr(s, "'(a (b c) #t \"s\")"), cv.ShouldEqual, `(a (b c) #t "s")`)
		cv.So(repr(s, "''a"), cv.ShouldEqual, "(quote a)")
		cv.So(repr(s, "(define xs '(2 3)) `(1 ,@xs 4)"), cv.ShouldEqual, "(1 2 3 4)")
		cv.So(repr(s, "`(1 ,(+ 1 1) ,@'())"), cv.ShouldEqual, "(1 2)")
		cv.So(repr(s, "`(,@xs . 9)"), cv.ShouldEqual, "(2 3 . 9)")
		cv.So(repr(s, "#(1 (+ 1 1) 3)"), cv.ShouldEqual, "#(1 2 3)")
		cv.So(repr(s, "`#(0 ,@xs)"), cv.ShouldEqual, "#(0 2 3)")
		cv.So(eval(s, "'(1 2)").Tag, cv.ShouldEqual, TagList)
		cv.So(eval(s, "'(1 . 2)").Tag, cv.ShouldEqual, TagPair)
		cv.So(repr(s, "`(1 ,@5)"), cv.ShouldStartWith, "Error: unquote-splicing:")
	})

	cv.Convey(`Given let, values should be computed in the enclosing environment before any binding is visible`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(let ((a 1) (b 2)) (+ a b))"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(define a 10) (let ((a 1) (b a)) b)"), cv.ShouldEqual, "10")
		cv.So(repr(s, "(let ((a 1)) a) a"), cv.ShouldEqual, "10")
	})
}

func Test407Closures(t *testing.T) {

	cv.Convey(`Given closures, they should capture their defining environment, take rest arguments and default missing ones to nil`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, `
(define (make-counter)
  (let ((n 0))
    (lambda () (set! n (+ n 1)) n)))
(define c (make-counter))
(c)
(c)`), cv.ShouldEqual, "2")
		cv.So(repr(s, "(define (f a . rest) rest) (f 1 2 3)"), cv.ShouldEqual, "(2 3)")
		cv.So(repr(s, "(f 1)"), cv.ShouldEqual, "()")
		cv.So(repr(s, "((lambda args args) 1 2)"), cv.ShouldEqual, "(1 2)")
		cv.So(repr(s, "(define (g a b) b) (g 1)"), cv.ShouldEqual, "()")
		cv.So(repr(s, "(g 1 2 3)"), cv.ShouldStartWith, "Error: #<procedure g>: wrong number of arguments")
	})

	cv.Convey(`Given procedures as results, they should render as opaque markers`, t, func() {
		s, _ := newTestSession()
		res := eval(s, "(define (sq x) (* x x)) sq")
		cv.So(res.Repr, cv.ShouldEqual, "#<procedure sq>")
		cv.So(res.Tag, cv.ShouldEqual, TagClosure)
		cv.So(repr(s, "(lambda (x) x)"), cv.ShouldEqual, "#<procedure>")
		res = eval(s, "car")
		cv.So(res.Repr, cv.ShouldEqual, "#<primitive car>")
		cv.So(res.Tag, cv.ShouldEqual, TagPrimitive)
	})
}

func Test408Prelude(t *testing.T) {

	cv.Convey(`Given the prelude, map, filter, accumulate, for-each and list-tail should be available`, t, func() {
		s, out := newTestSession()
		cv.So(repr(s, "(map (lambda (x) (* x x)) '(1 2 3))"), cv.ShouldEqual, "(1 4 9)")
		cv.So(repr(s, "(filter odd? '(1 2 3 4 5))"), cv.ShouldEqual, "(1 3 5)")
		cv.So(repr(s, "(accumulate + 0 '(1 2 3 4))"), cv.ShouldEqual, "10")
		cv.So(repr(s, "(list-tail '(1 2 3) 1)"), cv.ShouldEqual, "(2 3)")
		eval(s, "(for-each display '(1 2 3))")
		cv.So(out.String(), cv.ShouldEqual, "123")

		_, where, ok := s.Global().Lookup("map")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(where, cv.ShouldEqual, s.Builtins())
	})

	cv.Convey(`Given NoPrelude, the prelude names should be unbound`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.NoPrelude = true })
		cv.So(repr(s, "map"), cv.ShouldEqual, "Error: unbound variable 'map'")
	})
}

func Test409PromisesAndApply(t *testing.T) {

	cv.Convey(`Given a delayed expression, forcing it twice should evaluate the body once`, t, func() {
		s, out := newTestSession()
		cv.So(repr(s, `(define p (delay (begin (display "once") 42))) (force p)`), cv.ShouldEqual, "42")
		cv.So(repr(s, "(force p)"), cv.ShouldEqual, "42")
		cv.So(out.String(), cv.ShouldEqual, "once")
		cv.So(repr(s, "(force 7)"), cv.ShouldEqual, "7")
		cv.So(eval(s, "(make-promise 3)").Tag, cv.ShouldEqual, TagPromise)
		cv.So(repr(s, "(force (make-promise 3))"), cv.ShouldEqual, "3")
	})

	cv.Convey(`Given a stream built from cons and delay, stream-cdr should force the tail`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(define s (cons 1 (delay (cons 2 nil)))) (stream-car (stream-cdr s))"), cv.ShouldEqual, "2")
	})

	cv.Convey(`Given apply, the last argument should be spread as the trailing arguments`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(apply + 1 2 '(3 4))"), cv.ShouldEqual, "10")
		cv.So(repr(s, "(apply max '(3 1 2))"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(apply (lambda (a b) (- a b)) '(10 4))"), cv.ShouldEqual, "6")
		cv.So(repr(s, "(apply + 1)"), cv.ShouldStartWith, "Error: apply:")
	})
}

func Test410EvalAndTheMacroChapter(t *testing.T) {

	cv.Convey(`Given eval on quoted data, the datum should be evaluated in the current environment`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, "(eval '(+ 1 2))"), cv.ShouldEqual, "3")
		cv.So(repr(s, "(eval (list 'define 'w 4)) w"), cv.ShouldEqual, "4")
		cv.So(repr(s, `(eval "str")`), cv.ShouldEqual, `"str"`)
	})

	cv.Convey(`Given a program at the macro chapter, the two-pass parse should run it through eval with the same results`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.Chapter = syntax.MacroChapter })
		cv.So(repr(s, "(define x 3) (* x x)"), cv.ShouldEqual, "9")
		cv.So(repr(s, `(define (greet n) (string-append "hi " n)) (greet "bob")`), cv.ShouldEqual, `"hi bob"`)
		cv.So(repr(s, "'(a b)"), cv.ShouldEqual, "(a b)")
		cv.So(repr(s, "(define v #(1 2)) (vector-ref v 1)"), cv.ShouldEqual, "2")
	})

	cv.Convey(`Given define-syntax at the macro chapter, it should be accepted by the parser but fail at evaluation`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.Chapter = syntax.MacroChapter })
		res := eval(s, "(define-syntax my-if (syntax-rules () ((_ c a b) (cond (c a) (else b)))))")
		cv.So(res.Tag, cv.ShouldEqual, TagError)
		cv.So(res.Repr, cv.ShouldContainSubstring, "define-syntax")
	})
}

func Test411ImportAndExport(t *testing.T) {

	loader := MapLoader{
		"math": `
(export (define (square x) (* x x)))
(define hidden 1)
(export (define pi-ish 3))`,
		"broken": "(car '())",
	}

	cv.Convey(`Given a module with exports, import should bind exactly the requested exported names`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.Loader = loader })
		cv.So(repr(s, `(import "math" (square pi-ish)) (square pi-ish)`), cv.ShouldEqual, "9")
		cv.So(repr(s, `(import "math" (hidden))`), cv.ShouldEqual, `Error: 'hidden' is not exported by "math"`)
		cv.So(repr(s, `(import "nowhere" (x))`), cv.ShouldStartWith, `Error: import "nowhere":`)
		cv.So(repr(s, `(import "broken" (x))`), cv.ShouldStartWith, `Error: import "broken": car:`)

		_, _, ok := s.Global().Lookup("hidden")
		cv.So(ok, cv.ShouldBeFalse)
	})

	cv.Convey(`Given no loader, import should give an error value`, t, func() {
		s, _ := newTestSession()
		cv.So(repr(s, `(import "math" (square))`), cv.ShouldContainSubstring, "no module loader")
	})
}

func Test412ScopesCloneIndependently(t *testing.T) {

	cv.Convey(`Given a cloned scope chain, mutation of either copy should be invisible to the other`, t, func() {
		parent := NewScope("parent", nil)
		parent.Define("x", Int(1))
		child := NewScope("child", parent)
		child.Define("y", Int(2))

		c := child.Clone()
		panicOn(c.Assign("x", Int(100)))
		c.Define("y", Int(200))

		v, _, _ := child.Lookup("x")
		cv.So(Render(v), cv.ShouldEqual, "1")
		v, _, _ = child.Lookup("y")
		cv.So(Render(v), cv.ShouldEqual, "2")
		v, _, _ = c.Lookup("x")
		cv.So(Render(v), cv.ShouldEqual, "100")
		cv.So(c.Parent, cv.ShouldNotEqual, parent)
		cv.So(c.Parent.Name, cv.ShouldEqual, "parent")
		cv.So(c.Depth(), cv.ShouldEqual, 1)

		cv.So(child.Assign("nope", Int(1)), cv.ShouldNotBeNil)
		cv.So(child.AllNames(), cv.ShouldResemble, []string{"x", "y"})
	})
}

func Test413StopHaltsTheMachine(t *testing.T) {

	cv.Convey(`Given a machine stopped before it runs, Run should return at once with nil`, t, func() {
		nodes, err := syntax.Parse("(+ 1 2)", syntax.Chapter1)
		panicOn(err)
		m := NewMachine(syntax.Desugar(nodes), NewScope("global", nil), MachineOptions{})
		m.Stop()
		v, err := m.Run()
		panicOn(err)
		cv.So(v, cv.ShouldEqual, SexpNull)
		cv.So(m.StepCount(), cv.ShouldEqual, 0)
	})

	cv.Convey(`Given an endless loop with no step limit, Session.Stop from another goroutine should end it`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.StepLimit = 0 })
		done := make(chan error)
		go func() {
			_, err := s.EvalString("(define (loop) (loop)) (loop)", EvalOptions{})
			done <- err
		}()
		var err error
	wait:
		for {
			select {
			case err = <-done:
				break wait
			case <-time.After(5 * time.Millisecond):
				s.Stop()
			}
		}
		cv.So(err, cv.ShouldBeNil)
	})
}

func Test414EnvStepsPause(t *testing.T) {

	cv.Convey(`Given EnvSteps, the machine should pause after that many steps and report the Stash top`, t, func() {
		s, _ := newTestSession()
		res, err := s.EvalString("(+ 1 2)", EvalOptions{EnvSteps: 3})
		panicOn(err)
		cv.So(res.Paused, cv.ShouldBeTrue)
		cv.So(res.Steps, cv.ShouldEqual, 3)
		cv.So(res.Repr, cv.ShouldEqual, "#<primitive +>")

		res, err = s.EvalString("(+ 1 2)", EvalOptions{})
		panicOn(err)
		cv.So(res.Paused, cv.ShouldBeFalse)
	})

	cv.Convey(`Given zero MachineOptions, the machine should run to completion`, t, func() {
		nodes, err := syntax.Parse("(if #t 42 0)", syntax.Chapter1)
		panicOn(err)
		m := NewMachine(syntax.Desugar(nodes), NewScope("global", nil), MachineOptions{})
		v, err := m.Run()
		panicOn(err)
		cv.So(Render(v), cv.ShouldEqual, "42")
		cv.So(m.Paused(), cv.ShouldBeFalse)
	})

	cv.Convey(`Given Pause with EnvSteps 0, the machine should stop before the first step`, t, func() {
		nodes, err := syntax.Parse("(if #t 42 0)", syntax.Chapter1)
		panicOn(err)
		m := NewMachine(syntax.Desugar(nodes), NewScope("global", nil), MachineOptions{Pause: true})
		_, err = m.Run()
		panicOn(err)
		cv.So(m.StepCount(), cv.ShouldEqual, 0)
		cv.So(m.Paused(), cv.ShouldBeTrue)
	})

	cv.Convey(`Given a session that pauses by default, a negative per-call EnvSteps should run to completion`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.EnvSteps = 2 })
		res, err := s.EvalString("(+ 1 2)", EvalOptions{})
		panicOn(err)
		cv.So(res.Paused, cv.ShouldBeTrue)
		res, err = s.EvalString("(+ 1 2)", EvalOptions{EnvSteps: -1})
		panicOn(err)
		cv.So(res.Paused, cv.ShouldBeFalse)
		cv.So(res.Repr, cv.ShouldEqual, "3")
	})
}

func Test415StepRecords(t *testing.T) {

	cv.Convey(`Given a frame in the middle of an application, its record should list both stacks bottom first`, t, func() {
		s, _ := newTestSession()
		steps, err := s.Stepper("(+ 1 2)", EvalOptions{})
		panicOn(err)
		var rec StepRecord
		for frame, err := range steps {
			panicOn(err)
			if frame.Step == 3 {
				rec = NewStepRecord(frame)
				break
			}
		}
		cv.So(rec.Step, cv.ShouldEqual, 3)
		cv.So(rec.Env, cv.ShouldEqual, "program")
		cv.So(rec.Stash, cv.ShouldResemble, []string{"#<primitive +>"})
		cv.So(rec.Control, cv.ShouldResemble, []string{"apply 2", "2", "1"})
		cv.So(rec.String(), cv.ShouldContainSubstring, "1 | 2 | apply 2")

		by, err := rec.MarshalMsg(nil)
		panicOn(err)
		var back StepRecord
		_, err = back.UnmarshalMsg(by)
		panicOn(err)
		cv.So(back, cv.ShouldResemble, rec)

		var buf bytes.Buffer
		panicOn(EncodeStepJSON(&buf, rec))
		cv.So(strings.Count(buf.String(), "\n"), cv.ShouldEqual, 1)
		cv.So(buf.String(), cv.ShouldContainSubstring, `"control"`)
		back2, err := DecodeStepJSON(buf.Bytes())
		panicOn(err)
		cv.So(back2, cv.ShouldResemble, rec)
	})

	cv.Convey(`Given a step-limited stepper, the stream should end with the step-limit error`, t, func() {
		s, _ := newTestSession(func(c *Config) { c.StepLimit = 30 })
		steps, err := s.Stepper("(define (loop) (loop)) (loop)", EvalOptions{})
		panicOn(err)
		var last error
		n := 0
		for _, err := range steps {
			if err != nil {
				last = err
				break
			}
			n++
		}
		cv.So(errors.Is(last, ErrStepLimitExceeded), cv.ShouldBeTrue)
		cv.So(n, cv.ShouldEqual, 30)
	})
}
