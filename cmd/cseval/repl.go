package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shurcooL/go-goon"

	"github.com/cseval/cseval/cse"
	"github.com/cseval/cseval/store"
	"github.com/cseval/cseval/syntax"
)

var ErrQuit = errors.New("quit requested")

type lineSource interface {
	Getline(prompt *string) (string, error)
}

// plainSource reads from a reader; used when liner is off or under test.
type plainSource struct {
	prompt string
	reader *bufio.Reader
	out    io.Writer
}

func (p *plainSource) Getline(prompt *string) (string, error) {
	if prompt == nil {
		fmt.Fprint(p.out, p.prompt)
	} else {
		fmt.Fprint(p.out, *prompt)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var continuationPrompt = "... "

// needsMoreInput reports whether str stops partway through a datum, so
// the reader should ask for another line. Other syntax errors are left for
// evaluation to report.
func needsMoreInput(str string) bool {
	_, err := syntax.GroupSource(str)
	return errors.Is(err, syntax.ErrUnexpectedEOF) ||
		errors.Is(err, syntax.ErrUnterminatedBlockComment) ||
		errors.Is(err, syntax.ErrUnterminatedIdentifier)
}

// continuable is the part of line that must be complete: the whole line,
// or the expression argument of .step and .dump. Other dot-commands take
// file names and never continue.
func continuable(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ".") {
		return line, true
	}
	cmd, rest, _ := strings.Cut(trimmed, " ")
	switch cmd {
	case ".step", ".dump":
		return rest, true
	}
	return "", false
}

func getExpression(src lineSource) (string, error) {
	line, err := src.Getline(nil)
	if err != nil {
		return "", err
	}
	for {
		text, ok := continuable(line)
		if !ok || !needsMoreInput(text) {
			return line, nil
		}
		next, err := src.Getline(&continuationPrompt)
		if err != nil {
			return "", err
		}
		line += "\n" + next
	}
}

type Repl struct {
	s    *cse.Session
	cfg  *CsevalConfig
	hist store.Store
	out  io.Writer
}

func NewRepl(s *cse.Session, cfg *CsevalConfig, hist store.Store, out io.Writer) *Repl {
	return &Repl{s: s, cfg: cfg, hist: hist, out: out}
}

// Loop reads and evaluates until EOF or .quit.
func (r *Repl) Loop(src lineSource) {
	if !r.cfg.Quiet {
		fmt.Fprintf(r.out, "cseval, chapter %d\n", r.s.Config().Chapter)
		fmt.Fprintf(r.out, "press tab (repeatedly) to get completion suggestions. Ctrl-d to exit.\n")
	}
	for {
		line, err := getExpression(src)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(r.out, err)
			}
			return
		}
		if err := r.Handle(line); err == ErrQuit {
			return
		}
	}
}

// Handle runs one dot-command or evaluates one chunk of source.
func (r *Repl) Handle(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, ".") {
		parts := strings.Fields(trimmed)
		return r.command(parts[0], parts[1:], strings.TrimSpace(strings.TrimPrefix(trimmed, parts[0])))
	}
	if r.cfg.Dump {
		if err := r.dump(line); err != nil {
			return err
		}
	}
	if r.cfg.Step {
		return r.step(line)
	}
	return r.eval(line)
}

// dump prints the desugared syntax tree of src as Go syntax.
func (r *Repl) dump(src string) error {
	nodes, err := r.s.Parse(src)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return err
	}
	for _, n := range nodes {
		fmt.Fprint(r.out, goon.Sdump(n))
	}
	return nil
}

func (r *Repl) eval(src string) error {
	res, err := r.s.EvalString(src, cse.EvalOptions{})
	if err != nil {
		if res != nil {
			fmt.Fprintf(r.out, "%v (after %d steps)\n", err, res.Steps)
		} else {
			fmt.Fprintln(r.out, err)
		}
		return err
	}
	r.printResult(res)
	if res.Tag == cse.TagError {
		return errors.New(res.Repr)
	}
	return nil
}

func (r *Repl) printResult(res *cse.Result) {
	if res.Paused {
		fmt.Fprintf(r.out, "paused after %d steps, stash top: %s\n", res.Steps, res.Repr)
		return
	}
	if res.Tag == cse.TagVoid {
		return
	}
	fmt.Fprintln(r.out, res.Repr)
}

func (r *Repl) step(src string) error {
	steps, err := r.s.Stepper(src, cse.EvalOptions{})
	if err != nil {
		fmt.Fprintln(r.out, err)
		return err
	}
	var last cse.StepFrame
	for frame, err := range steps {
		if err != nil {
			fmt.Fprintln(r.out, err)
			return err
		}
		last = frame
		rec := cse.NewStepRecord(frame)
		if r.cfg.JSON {
			if err := cse.EncodeStepJSON(r.out, rec); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(r.out, rec.String())
	}
	if !r.cfg.JSON && len(last.Stash) > 0 {
		fmt.Fprintf(r.out, "=> %s\n", cse.Render(last.Stash[len(last.Stash)-1]))
	}
	return nil
}

func (r *Repl) command(name string, args []string, rest string) error {
	switch name {
	case ".quit":
		return ErrQuit
	case ".env":
		fmt.Fprint(r.out, r.s.Global().Show())
	case ".dump":
		if rest == "" {
			fmt.Fprintln(r.out, "provide an expression to dump.")
			return nil
		}
		return r.dump(rest)
	case ".history":
		recs, err := r.hist.List()
		if err != nil {
			fmt.Fprintln(r.out, err)
			return err
		}
		for _, rec := range recs {
			fmt.Fprintf(r.out, "%4d  %016x  %s  => %s  (%d steps)\n",
				rec.Seq, rec.Fingerprint, strings.ReplaceAll(rec.Source, "\n", " "), rec.Result, rec.Steps)
		}
	case ".save", ".json":
		if len(args) != 1 {
			fmt.Fprintf(r.out, "usage: %s <file>\n", name)
			return nil
		}
		if err := r.saveHistory(args[0], name == ".json"); err != nil {
			fmt.Fprintln(r.out, err)
			return err
		}
		fmt.Fprintf(r.out, "history written to %s\n", args[0])
	case ".step":
		if rest == "" {
			r.cfg.Step = !r.cfg.Step
			fmt.Fprintf(r.out, "stepping: %v.\n", r.cfg.Step)
			return nil
		}
		return r.step(rest)
	case ".verb":
		cse.Verbose = !cse.Verbose
		fmt.Fprintf(r.out, "verbose: %v.\n", cse.Verbose)
	case ".debug":
		r.s.Config().Trace = true
		cse.Verbose = true
		fmt.Fprintf(r.out, "instruction tracing on.\n")
	case ".undebug":
		r.s.Config().Trace = false
		cse.Verbose = false
		fmt.Fprintf(r.out, "instruction tracing off.\n")
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", name)
	}
	return nil
}

func (r *Repl) saveHistory(path string, asJSON bool) error {
	recs, err := r.hist.List()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if asJSON {
		err = store.ExportJSON(f, recs)
	} else {
		err = store.SaveSnapshot(f, recs)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// runScript evaluates a whole file as one chunk.
func (r *Repl) runScript(fname string) error {
	by, err := os.ReadFile(fname)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return err
	}
	if r.cfg.Step {
		return r.step(string(by))
	}
	if r.cfg.Dump {
		if err := r.dump(string(by)); err != nil {
			return err
		}
	}
	return r.eval(string(by))
}
