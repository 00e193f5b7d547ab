// Package logger prints the retrieval pipeline's progress to stderr when
// docbrain runs with --verbose. Nothing is printed otherwise.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects verbose output. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Section starts a named block, such as "Query" or "Reindex".
func Section(name string) {
	write("\n=== %s ===\n", name)
}

// Debug logs pipeline detail: scores, chunk counts, prompt sizes.
func Debug(format string, args ...any) {
	write("[DEBUG] "+format+"\n", args...)
}

// Info logs a completed step.
func Info(format string, args ...any) {
	write("[INFO] "+format+"\n", args...)
}

// Warn logs a degraded path that did not fail the command.
func Warn(format string, args ...any) {
	write("[WARN] "+format+"\n", args...)
}

func write(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, format, args...)
}
