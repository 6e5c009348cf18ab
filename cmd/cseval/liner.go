package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/glycerine/liner"
)

var historyFn = filepath.Join(os.Getenv("HOME"), ".csevalhist")

var completionKeywords = []string{`(`, `(append `, `(apply `, `(begin `, `(car `, `(cdr `, `(cond `, `(cons `, `(define `, `(delay `, `(display `, `(else `, `(eq? `, `(equal? `, `(error `, `(eval `, `(export `, `(filter `, `(force `, `(if `, `(import `, `(lambda `, `(length `, `(let `, `(list `, `(list-ref `, `(map `, `(newline `, `(not `, `(null? `, `(pair? `, `(quote `, `(reverse `, `(set! `, `(vector `, `(vector-ref `, `(* `, `(+ `, `(- `, `(/ `, `(< `, `(<= `, `(= `, `(> `, `(>= `,
	`.quit`, `.env`, `.history`, `.save `, `.json `, `.step `, `.dump `, `.debug`, `.undebug`, `.verb`}

type Prompter struct {
	prompt   string
	prompter *liner.State
}

// NewPrompter completes keywords and dot-commands, plus whatever names
// boundNames reports at the time tab is pressed.
func NewPrompter(prompt string, boundNames func() []string) *Prompter {
	p := &Prompter{
		prompt:   prompt,
		prompter: liner.NewLiner(),
	}
	p.prompter.SetCtrlCAborts(false)
	p.prompter.SetCompleter(func(line string) (c []string) {
		for _, n := range completionKeywords {
			if strings.HasPrefix(n, strings.ToLower(line)) {
				c = append(c, n)
			}
		}
		// complete the last word against bound names
		cut := strings.LastIndexAny(line, "( '`,") + 1
		word := line[cut:]
		if word == "" || boundNames == nil {
			return
		}
		for _, n := range boundNames() {
			if strings.HasPrefix(n, word) {
				c = append(c, line[:cut]+n)
			}
		}
		return
	})

	if f, err := os.Open(historyFn); err == nil {
		p.prompter.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *Prompter) Close() {
	defer p.prompter.Close()
	if f, err := os.Create(historyFn); err != nil {
		log.Print("Error writing history file: ", err)
	} else {
		p.prompter.WriteHistory(f)
		f.Close()
	}
}

func (p *Prompter) Getline(prompt *string) (line string, err error) {
	if prompt == nil {
		line, err = p.prompter.Prompt(p.prompt)
	} else {
		line, err = p.prompter.Prompt(*prompt)
	}
	if err == nil {
		p.prompter.AppendHistory(line)
		return line, nil
	}
	return "", err
}
