// gdbmi-helper is a CLI that parses gdb/MI transcripts and gdb output streams:
// it prints records as text, JSON or YAML and folds them into debugger state.
package main

import (
	"fmt"
	"os"

	"github.com/glthr/go-gdbmi/internal/gdbhelper"
)

func main() {
	if err := gdbhelper.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "gdbmi-helper: %v\n", err)
		os.Exit(1)
	}
}
