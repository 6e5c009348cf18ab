package cse

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"
)

var Verbose bool // set to true to trace

// so tests and the repl can redirect trace output
var OurStdout io.Writer = os.Stdout

var tracePrintMut sync.Mutex

const traceTimeLayout = "15:04:05.000"

// VPrintf writes one trace line, stamped with the caller's file:line and
// the time, when Verbose is on.
func VPrintf(format string, a ...interface{}) {
	if !Verbose {
		return
	}
	line := fmt.Sprintf(format, a...)
	tracePrintMut.Lock()
	defer tracePrintMut.Unlock()
	fmt.Fprintf(OurStdout, "%s %s %s", FileLine(2), time.Now().Format(traceTimeLayout), line)
	if !strings.HasSuffix(line, "\n") {
		fmt.Fprintln(OurStdout)
	}
}

func FileLine(depth int) string {
	_, fileName, fileLine, ok := runtime.Caller(depth)
	if !ok {
		return "?:0"
	}
	return fmt.Sprintf("%s:%d", path.Base(fileName), fileLine)
}
