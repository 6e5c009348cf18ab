package main

import (
	"flag"
	"fmt"

	"github.com/cseval/cseval/cse"
	"github.com/cseval/cseval/store"
	"github.com/cseval/cseval/syntax"
)

// configure a cseval repl
type CsevalConfig struct {
	Flags *flag.FlagSet

	Chapter       int
	StepLimit     int
	EnvSteps      int
	Command       string
	ExitOnFailure bool
	Quiet         bool
	Trace         bool
	NoPrelude     bool
	Extensions    bool

	// step prints every machine step of each evaluation.
	Step bool
	// JSON prints steps as one JSON object per line.
	JSON bool

	// DB is a sqlite file for the evaluation history; empty keeps it in memory.
	DB string
	// Dump prints the parsed syntax tree of each chunk before evaluating it.
	Dump bool
	// Modules is the directory imports are read from.
	Modules string

	// liner bombs under emacs, avoid it with this flag.
	NoLiner bool
	Prompt  string // default "cseval> "
}

func NewCsevalConfig(cmdname string) *CsevalConfig {
	return &CsevalConfig{
		Flags: flag.NewFlagSet(cmdname, flag.ExitOnError),
	}
}

// call DefineFlags before myflags.Parse()
func (c *CsevalConfig) DefineFlags() {
	c.Flags.IntVar(&c.Chapter, "chapter", syntax.MutationChapter, "language chapter, 1 to 5")
	c.Flags.IntVar(&c.StepLimit, "steplimit", cse.DefaultStepLimit, "maximum machine steps per evaluation; 0 for no limit")
	c.Flags.IntVar(&c.EnvSteps, "envsteps", -1, "pause every evaluation after this many steps; -1 to run to completion")
	c.Flags.StringVar(&c.Command, "c", "", "expressions to evaluate")
	c.Flags.BoolVar(&c.ExitOnFailure, "exitonfail", false, "exit on failure instead of starting repl")
	c.Flags.BoolVar(&c.Quiet, "quiet", false, "start repl without printing the banner")
	c.Flags.BoolVar(&c.NoLiner, "noliner", false, "read plain lines from stdin, without line editing")
	c.Flags.BoolVar(&c.Trace, "trace", false, "trace execution (warning: very verbose and slow)")
	c.Flags.BoolVar(&c.NoPrelude, "noprelude", false, "do not load the prelude library")
	c.Flags.BoolVar(&c.Extensions, "ext", false, "load the extension functions: random, regexp, time and channels")
	c.Flags.BoolVar(&c.Step, "step", false, "print every machine step")
	c.Flags.BoolVar(&c.JSON, "json", false, "with -step, print steps as JSON lines")
	c.Flags.StringVar(&c.DB, "db", "", "sqlite file to keep the evaluation history in")
	c.Flags.BoolVar(&c.Dump, "dump", false, "print the parsed syntax tree of each input before evaluating it")
	c.Flags.StringVar(&c.Modules, "modules", ".", "directory to load imported modules from")
}

// call c.ValidateConfig() after myflags.Parse()
func (c *CsevalConfig) ValidateConfig() error {
	if c.Chapter < syntax.Chapter1 || c.Chapter > syntax.MaxChapter {
		return fmt.Errorf("-chapter must be between %d and %d", syntax.Chapter1, syntax.MaxChapter)
	}
	if c.StepLimit < 0 {
		return fmt.Errorf("-steplimit must not be negative")
	}
	if c.JSON && !c.Step {
		return fmt.Errorf("-json only applies with -step")
	}
	if c.Prompt == "" {
		c.Prompt = "cseval> "
	}
	return nil
}

// SessionConfig builds the interpreter settings, opening the history
// store. The caller closes the store.
func (c *CsevalConfig) SessionConfig() (*cse.Config, store.Store, error) {
	var hist store.Store = store.NewMemory()
	if c.DB != "" {
		db, err := store.NewSQLite(c.DB)
		if err != nil {
			return nil, nil, err
		}
		hist = db
	}
	sc := cse.NewConfig()
	sc.Chapter = c.Chapter
	sc.StepLimit = c.StepLimit
	sc.EnvSteps = c.EnvSteps
	sc.Trace = c.Trace
	sc.NoPrelude = c.NoPrelude
	sc.Loader = cse.DirLoader{Dir: c.Modules}
	sc.History = hist
	return sc, hist, nil
}
