package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"

	"github.com/cseval/cseval/cse"
	"github.com/cseval/cseval/store"
)

func panicOn(err error) {
	if err != nil {
		panic(err)
	}
}

func newTestRepl(args ...string) (*Repl, *bytes.Buffer) {
	cfg := NewCsevalConfig("cseval-test")
	cfg.DefineFlags()
	panicOn(cfg.Flags.Parse(append([]string{"-quiet", "-noliner"}, args...)))
	panicOn(cfg.ValidateConfig())
	sc, hist, err := cfg.SessionConfig()
	panicOn(err)
	var out bytes.Buffer
	sc.Stdout = &out
	s, err := cse.Initialize(sc)
	panicOn(err)
	return NewRepl(s, cfg, hist, &out), &out
}

func feed(r *Repl, input string) {
	r.Loop(&plainSource{prompt: "", reader: bufio.NewReader(strings.NewReader(input)), out: r.out})
}

func Test800FlagValidation(t *testing.T) {

	cv.Convey(`Given out-of-range flags, ValidateConfig should reject them`, t, func() {
		for _, args := range [][]string{
			{"-chapter", "0"},
			{"-chapter", "6"},
			{"-steplimit", "-1"},
			{"-json"},
		} {
			cfg := NewCsevalConfig("t")
			cfg.DefineFlags()
			panicOn(cfg.Flags.Parse(args))
			cv.So(cfg.ValidateConfig(), cv.ShouldNotBeNil)
		}
		cfg := NewCsevalConfig("t")
		cfg.DefineFlags()
		panicOn(cfg.Flags.Parse(nil))
		cv.So(cfg.ValidateConfig(), cv.ShouldBeNil)
		cv.So(cfg.Prompt, cv.ShouldEqual, "cseval> ")
		cv.So(cfg.StepLimit, cv.ShouldEqual, cse.DefaultStepLimit)
	})
}

func Test801ReplEvaluatesMultilineInput(t *testing.T) {

	cv.Convey(`Given input split over lines, the repl should wait for balance and print non-void results`, t, func() {
		r, out := newTestRepl()
		feed(r, "(define (sq x)\n  (* x x))\n(sq 7)\n\"a ( b\"\n(car '())\n")
		got := out.String()
		cv.So(got, cv.ShouldStartWith, continuationPrompt+"49\n")
		cv.So(got, cv.ShouldContainSubstring, "\n\"a ( b\"\n")
		cv.So(got, cv.ShouldContainSubstring, "\nError: car:")
	})

	cv.Convey(`Given needsMoreInput, parentheses inside strings, comments and piped names should not count`, t, func() {
		cv.So(needsMoreInput(`(display ")")`), cv.ShouldBeFalse)
		cv.So(needsMoreInput("(a ; )\n"), cv.ShouldBeTrue)
		cv.So(needsMoreInput(`(a "x\"y")`), cv.ShouldBeFalse)
		cv.So(needsMoreInput(`(a (b)`), cv.ShouldBeTrue)
		cv.So(needsMoreInput("#| ( |# 1"), cv.ShouldBeFalse)
		cv.So(needsMoreInput("'|a(b|"), cv.ShouldBeFalse)
		cv.So(needsMoreInput("#| open"), cv.ShouldBeTrue)
		cv.So(needsMoreInput(`"open`), cv.ShouldBeTrue)
		cv.So(needsMoreInput("(a))"), cv.ShouldBeFalse)
	})

	cv.Convey(`Given a complete line with a parenthesis inside a block comment or piped name, the repl should evaluate it at once`, t, func() {
		r, out := newTestRepl()
		feed(r, "#| ( |# 1\n'|a(b|\n")
		cv.So(out.String(), cv.ShouldEqual, "1\n|a(b|\n")
	})

	cv.Convey(`Given .step with an unfinished expression, the repl should read on, and file commands should never continue`, t, func() {
		text, ok := continuable(".step (+ 1")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(text, cv.ShouldEqual, "(+ 1")
		_, ok = continuable(".save /tmp/a(b")
		cv.So(ok, cv.ShouldBeFalse)
	})
}

func Test802DotCommands(t *testing.T) {

	cv.Convey(`Given the dot-commands, they should show the environment, the history and stop on .quit`, t, func() {
		r, out := newTestRepl()
		feed(r, "(define x 5)\n(+ x 1)\n.env\n.history\n.dump (f x)\n.quit\n(display \"never\")\n")
		got := out.String()
		cv.So(got, cv.ShouldContainSubstring, "scope program")
		cv.So(got, cv.ShouldContainSubstring, "x = 5")
		cv.So(got, cv.ShouldContainSubstring, "(+ x 1)  => 6")
		cv.So(got, cv.ShouldContainSubstring, "syntax.Application")
		cv.So(got, cv.ShouldContainSubstring, `"f"`)
		cv.So(got, cv.ShouldNotContainSubstring, "never")
	})

	cv.Convey(`Given .save and .json, the history files should read back`, t, func() {
		r, _ := newTestRepl()
		dir := t.TempDir()
		snap := filepath.Join(dir, "h.msgp")
		js := filepath.Join(dir, "h.json")
		feed(r, "(* 6 7)\n.save "+snap+"\n.json "+js+"\n")

		f, err := os.Open(snap)
		panicOn(err)
		defer f.Close()
		recs, err := store.LoadSnapshot(f)
		panicOn(err)
		cv.So(len(recs), cv.ShouldEqual, 1)
		cv.So(recs[0].Result, cv.ShouldEqual, "42")

		by, err := os.ReadFile(js)
		panicOn(err)
		recs, err = store.ImportJSON(by)
		panicOn(err)
		cv.So(recs[0].Source, cv.ShouldEqual, "(* 6 7)")
	})
}

func Test803StepPrinting(t *testing.T) {

	cv.Convey(`Given -step, every step should be printed and the final value shown`, t, func() {
		r, out := newTestRepl("-step")
		panicOn(r.Handle("(+ 1 2)"))
		got := out.String()
		cv.So(got, cv.ShouldContainSubstring, "step 1 (env program)")
		cv.So(got, cv.ShouldContainSubstring, "control: 1 | 2 | apply 2")
		cv.So(got, cv.ShouldEndWith, "=> 3\n")
	})

	cv.Convey(`Given -step -json, each step should be one decodable JSON line`, t, func() {
		r, out := newTestRepl("-step", "-json")
		panicOn(r.Handle("(+ 1 2)"))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		cv.So(len(lines), cv.ShouldBeGreaterThan, 3)
		last, err := cse.DecodeStepJSON([]byte(lines[len(lines)-1]))
		panicOn(err)
		cv.So(last.Stash, cv.ShouldResemble, []string{"3"})
		cv.So(last.Step, cv.ShouldEqual, len(lines))
	})

	cv.Convey(`Given .step with an expression, only that expression should be stepped`, t, func() {
		r, out := newTestRepl()
		panicOn(r.Handle(".step (* 2 3)"))
		cv.So(out.String(), cv.ShouldEndWith, "=> 6\n")
		out.Reset()
		panicOn(r.Handle("(* 2 3)"))
		cv.So(out.String(), cv.ShouldEqual, "6\n")
	})
}

func Test804SQLiteHistoryAndScripts(t *testing.T) {

	cv.Convey(`Given -db, the history should survive into a new repl`, t, func() {
		db := filepath.Join(t.TempDir(), "hist.db")
		r, _ := newTestRepl("-db", db)
		panicOn(r.Handle("(list 1 2)"))
		panicOn(r.hist.Close())

		r2, out := newTestRepl("-db", db)
		feed(r2, ".history\n")
		cv.So(out.String(), cv.ShouldContainSubstring, "(list 1 2)  => (1 2)")
		panicOn(r2.hist.Close())
	})

	cv.Convey(`Given a script and a modules directory, the script should import from it`, t, func() {
		dir := t.TempDir()
		panicOn(os.WriteFile(filepath.Join(dir, "util.scm"), []byte(`(export (define (twice x) (* 2 x)))`), 0644))
		script := filepath.Join(dir, "main.scm")
		panicOn(os.WriteFile(script, []byte("(import \"util\" (twice))\n(twice 21)\n"), 0644))

		r, out := newTestRepl("-modules", dir)
		panicOn(r.runScript(script))
		cv.So(out.String(), cv.ShouldEqual, "42\n")
		cv.So(r.runScript(filepath.Join(dir, "missing.scm")), cv.ShouldNotBeNil)
	})
}
