package cse

import (
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cseval/cseval/store"
	"github.com/cseval/cseval/syntax"
)

const DefaultStepLimit = 1000000

// Config holds the session-wide settings. Build one with NewConfig and
// adjust the fields before calling Initialize.
type Config struct {
	Chapter   int
	StepLimit int

	// EnvSteps pauses every evaluation after that many steps; -1 is off.
	EnvSteps int

	Stdout  io.Writer
	Loader  ModuleLoader
	History store.Store

	NoPrelude bool
	Trace     bool
}

func NewConfig() *Config {
	return &Config{
		Chapter:   syntax.MutationChapter,
		StepLimit: DefaultStepLimit,
		EnvSteps:  -1,
		Stdout:    os.Stdout,
	}
}

func (c *Config) Validate() error {
	if c.Chapter < syntax.Chapter1 || c.Chapter > syntax.MaxChapter {
		return fmt.Errorf("chapter must be between %d and %d, got %d", syntax.Chapter1, syntax.MaxChapter, c.Chapter)
	}
	if c.StepLimit < 0 {
		return fmt.Errorf("step limit must not be negative, got %d", c.StepLimit)
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	return nil
}

// EvalOptions adjust one evaluation. Zero fields take the session's
// setting; a negative EnvSteps turns the pause off for this call.
type EvalOptions struct {
	StepLimit int
	EnvSteps  int
	IsPrelude bool
}

type Result struct {
	Value  Sexp
	Tag    Tag
	Repr   string
	Steps  int
	Paused bool
}

// Session is a persistent evaluation context: definitions made by one
// chunk are visible to the next. Primitives and the prelude live in the
// "global" scope; user definitions go into its child "program" scope.
type Session struct {
	cfg      *Config
	builtins *Scope
	program  *Scope
	modules  map[string]map[string]Sexp
	loading  map[string]bool
	current  atomic.Pointer[Machine]
}

// Initialize builds a session. Nothing is evaluated before it is called.
func Initialize(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		modules: make(map[string]map[string]Sexp),
		loading: make(map[string]bool),
	}
	s.builtins = NewScope("global", nil)
	for name, fn := range BuiltinFunctions() {
		s.builtins.Define(name, MakeUserFunction(name, fn))
	}
	for name, val := range builtinConstants {
		s.builtins.Define(name, val)
	}
	s.program = NewScope("program", s.builtins)

	if !cfg.NoPrelude {
		nodes, err := syntax.Parse(Prelude, syntax.Chapter1)
		if err != nil {
			return nil, fmt.Errorf("prelude: %w", err)
		}
		res, err := s.run(syntax.Desugar(nodes), s.builtins, EvalOptions{IsPrelude: true})
		if err != nil {
			return nil, fmt.Errorf("prelude: %w", err)
		}
		if e, isErr := res.Value.(*SexpError); isErr {
			return nil, fmt.Errorf("prelude: %s", e.Msg)
		}
	}
	return s, nil
}

func (s *Session) Config() *Config  { return s.cfg }
func (s *Session) Global() *Scope   { return s.program }
func (s *Session) Builtins() *Scope { return s.builtins }

// AddFunction installs a Go primitive alongside the builtins.
func (s *Session) AddFunction(name string, function UserFunction) {
	s.builtins.Define(name, MakeUserFunction(name, function))
}

// Stop halts the evaluation in progress, if any.
func (s *Session) Stop() {
	if m := s.current.Load(); m != nil {
		m.Stop()
	}
}

// Parse reads src at the session's chapter and desugars it.
func (s *Session) Parse(src string) ([]syntax.Node, error) {
	nodes, err := syntax.Parse(src, s.cfg.Chapter)
	if err != nil {
		return nil, err
	}
	return syntax.Desugar(nodes), nil
}

// EvalString evaluates one chunk in the program scope. Syntax errors and
// the step limit are returned as errors; faults in the program itself
// come back as a Result holding an *SexpError. On a step-limit error the
// Result is still filled in.
func (s *Session) EvalString(src string, opts EvalOptions) (*Result, error) {
	nodes, err := s.Parse(src)
	if err != nil {
		return nil, err
	}
	res, err := s.run(nodes, s.program, opts)
	if err != nil {
		return res, err
	}
	if s.cfg.History != nil && !opts.IsPrelude {
		rec := &store.Record{
			Fingerprint: store.Fingerprint([]byte(src)),
			Source:      src,
			Result:      res.Repr,
			Steps:       res.Steps,
			Ts:          time.Now().UnixNano(),
		}
		if err := s.cfg.History.Append(rec); err != nil {
			return res, fmt.Errorf("recording history: %w", err)
		}
	}
	return res, nil
}

// Stepper returns the step stream of src without running it. The chunk
// is evaluated as the stream is consumed.
func (s *Session) Stepper(src string, opts EvalOptions) (iter.Seq2[StepFrame, error], error) {
	nodes, err := s.Parse(src)
	if err != nil {
		return nil, err
	}
	m := s.newMachine(nodes, s.program, opts)
	return func(yield func(StepFrame, error) bool) {
		s.current.Store(m)
		defer s.current.Store(nil)
		for frame, err := range m.Steps() {
			if !yield(frame, err) {
				return
			}
		}
	}, nil
}

func (s *Session) newMachine(nodes []syntax.Node, env *Scope, opts EvalOptions) *Machine {
	mo := MachineOptions{
		StepLimit: s.cfg.StepLimit,
		Pause:     s.cfg.EnvSteps >= 0,
		EnvSteps:  s.cfg.EnvSteps,
		IsPrelude: opts.IsPrelude,
		Trace:     s.cfg.Trace,
		Chapter:   s.cfg.Chapter,
		Stdout:    s.cfg.Stdout,
		Importer:  s.importModule,
	}
	if opts.StepLimit > 0 {
		mo.StepLimit = opts.StepLimit
	}
	switch {
	case opts.EnvSteps > 0:
		mo.Pause, mo.EnvSteps = true, opts.EnvSteps
	case opts.EnvSteps < 0:
		mo.Pause = false
	}
	if opts.IsPrelude {
		mo.Pause = false
	}
	return NewMachine(nodes, env, mo)
}

func (s *Session) run(nodes []syntax.Node, env *Scope, opts EvalOptions) (*Result, error) {
	m := s.newMachine(nodes, env, opts)
	s.current.Store(m)
	defer s.current.Store(nil)

	val, err := m.Run()
	res := &Result{
		Value:  val,
		Tag:    TagOf(val),
		Repr:   Render(val),
		Steps:  m.StepCount(),
		Paused: m.Paused(),
	}
	return res, err
}

// importModule evaluates a module once per session in its own program
// scope and returns the bindings it exported.
func (s *Session) importModule(source string) (map[string]Sexp, error) {
	if b, ok := s.modules[source]; ok {
		return b, nil
	}
	if s.loading[source] {
		return nil, fmt.Errorf("circular import of \"%s\"", source)
	}
	if s.cfg.Loader == nil {
		return nil, fmt.Errorf("no module loader configured")
	}
	text, err := s.cfg.Loader.Load(source)
	if err != nil {
		return nil, err
	}
	s.loading[source] = true
	defer delete(s.loading, source)

	nodes, err := s.Parse(text)
	if err != nil {
		return nil, err
	}
	env := NewScope("program", s.builtins)
	outer := s.current.Load()
	m := s.newMachine(nodes, env, EvalOptions{IsPrelude: true})
	s.current.Store(m)
	val, err := m.Run()
	s.current.Store(outer)
	if err != nil {
		return nil, err
	}
	if e, isErr := val.(*SexpError); isErr {
		return nil, fmt.Errorf("%s", e.Msg)
	}

	bindings := make(map[string]Sexp)
	for _, name := range m.Exports() {
		v, _, ok := env.Lookup(name)
		if ok {
			bindings[name] = v
		}
	}
	s.modules[source] = bindings
	VPrintf("module \"%s\" loaded, exports %v", source, m.Exports())
	return bindings, nil
}

// ModuleLoader finds the source text of an imported module.
type ModuleLoader interface {
	Load(name string) (string, error)
}

// DirLoader reads <Dir>/<name>.scm.
type DirLoader struct {
	Dir string
}

func (d DirLoader) Load(name string) (string, error) {
	if !strings.HasSuffix(name, ".scm") {
		name += ".scm"
	}
	by, err := os.ReadFile(filepath.Join(d.Dir, filepath.Clean("/"+name)))
	if err != nil {
		return "", err
	}
	return string(by), nil
}

// MapLoader serves modules from memory.
type MapLoader map[string]string

func (ml MapLoader) Load(name string) (string, error) {
	src, ok := ml[name]
	if !ok {
		return "", fmt.Errorf("no module named \"%s\"", name)
	}
	return src, nil
}
