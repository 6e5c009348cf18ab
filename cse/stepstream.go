package cse

//go:generate msgp

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/ugorji/go/codec"
)

// StepRecord is the printable form of a StepFrame, as sent to a
// debugger or written by the step printer.
type StepRecord struct {
	Step    int      `json:"step" msg:"step"`
	Env     string   `json:"env" msg:"env"`
	Stash   []string `json:"stash" msg:"stash"`
	Control []string `json:"control" msg:"control"`
}

func NewStepRecord(f StepFrame) StepRecord {
	rec := StepRecord{
		Step:    f.Step,
		Stash:   make([]string, len(f.Stash)),
		Control: make([]string, len(f.Control)),
	}
	if f.Env != nil {
		rec.Env = f.Env.Name
	}
	for i, v := range f.Stash {
		rec.Stash[i] = Render(v)
	}
	for i, c := range f.Control {
		rec.Control[i] = describe(c)
	}
	return rec
}

// String gives the one-record text form used by the CLI: the tops of
// both stacks come first.
func (r StepRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %d (env %s)\n", r.Step, r.Env)
	b.WriteString("  stash:  ")
	writeTopFirst(&b, r.Stash)
	b.WriteString("\n  control: ")
	writeTopFirst(&b, r.Control)
	return b.String()
}

func writeTopFirst(b *strings.Builder, xs []string) {
	if len(xs) == 0 {
		b.WriteString("<empty>")
		return
	}
	for i := len(xs) - 1; i >= 0; i-- {
		if i < len(xs)-1 {
			b.WriteString(" | ")
		}
		b.WriteString(xs[i])
	}
}

type jsonHelper struct {
	jh codec.JsonHandle
}

var stepJSON = func() *jsonHelper {
	h := &jsonHelper{}
	h.jh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	h.jh.SignedInteger = true
	h.jh.Canonical = true
	return h
}()

// EncodeStepJSON writes rec as one line of JSON.
func EncodeStepJSON(w io.Writer, rec StepRecord) error {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &stepJSON.jh)
	if err := enc.Encode(&rec); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func DecodeStepJSON(data []byte) (StepRecord, error) {
	var rec StepRecord
	dec := codec.NewDecoderBytes(data, &stepJSON.jh)
	err := dec.Decode(&rec)
	return rec, err
}
