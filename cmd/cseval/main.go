/*
The cseval command evaluates Scheme programs on a
Control/Stash/Environment machine, from a file, from -c, or at a REPL.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cseval/cseval/cse"
	cseext "github.com/cseval/cseval/extensions"
)

func usage(myflags *flag.FlagSet) {
	fmt.Printf("cseval command line help:\n")
	myflags.PrintDefaults()
	os.Exit(1)
}

func main() {
	cfg := NewCsevalConfig("cseval")
	cfg.DefineFlags()
	err := cfg.Flags.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		usage(cfg.Flags)
	}
	if err != nil {
		panic(err)
	}
	err = cfg.ValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cseval command line error: '%v'\n", err)
		usage(cfg.Flags)
	}
	os.Exit(ReplMain(cfg))
}

// ReplMain runs the command and gives its exit status.
func ReplMain(cfg *CsevalConfig) int {
	sc, hist, err := cfg.SessionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer hist.Close()
	cse.Verbose = cfg.Trace

	s, err := cse.Initialize(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if cfg.Extensions {
		cseext.ImportAll(s)
	}

	// ctrl-c stops the evaluation in progress, not the repl.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		for range sigs {
			s.Stop()
		}
	}()

	r := NewRepl(s, cfg, hist, os.Stdout)
	status := 0

	if cfg.Command != "" {
		if err := r.Handle(cfg.Command); err != nil {
			status = 1
		}
		return status
	}

	args := cfg.Flags.Args()
	if len(args) > 0 {
		if err := r.runScript(args[0]); err != nil {
			status = 1
			if cfg.ExitOnFailure {
				return status
			}
		} else {
			return status
		}
	}

	if cfg.NoLiner {
		r.Loop(&plainSource{prompt: cfg.Prompt, reader: bufio.NewReader(os.Stdin), out: os.Stdout})
	} else {
		pr := NewPrompter(cfg.Prompt, s.Global().AllNames)
		defer pr.Close()
		r.Loop(pr)
	}
	return status
}
