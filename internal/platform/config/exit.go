package config

import (
	"fmt"
	"io"
	"os"
)

var (
	exitWriter io.Writer = os.Stderr
	exit                 = os.Exit
)

// Exitf reports a fatal startup problem on stderr and terminates with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(exitWriter, format+"\n", args...)
	exit(1)
}

// ExitOnError calls Exitf with "<context>: <err>" when err is not nil.
func ExitOnError(err error, context string) {
	if err == nil {
		return
	}
	Exitf("%s: %v", context, err)
}
