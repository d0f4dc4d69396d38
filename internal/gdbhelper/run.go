// Run is the CLI entry point, called by cmd/gdbmi-helper/main.go.
package gdbhelper

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/glthr/go-gdbmi/internal/config"
	"github.com/glthr/go-gdbmi/internal/logging"
)

// Replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run dispatches CLI arguments to the appropriate command handler.
func Run(argv []string) error {
	if len(argv) < 2 {
		printUsage()
		return nil
	}
	cmd := strings.ToLower(argv[1])
	args := argv[2:]

	switch cmd {
	case "parse":
		return cmdParse(args)
	case "watch":
		return cmdWatch(args)
	case "state":
		return cmdState(args)
	case "unescape":
		return cmdUnescape(args)
	case "escape":
		return cmdEscape(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// settings loads the config file named by --config (or $GDBMI_CONFIG) and
// builds the logger it describes.
func settings(path string) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printUsage() {
	fmt.Fprintf(stderr, `Usage: gdbmi-helper <command> [args]

Parsing:
  parse [--format text|json|yaml] [--get PATH] [--keep-done] [--chunk N] [--config FILE] [FILE|-]
                     Parse a gdb/MI transcript and print one record per line.
                     --get evaluates a gjson path against each record's JSON
                     form and prints only the matches.
  watch [--timeout D] [--config FILE] [FILE|-]
                     Read the input as gdb's stdout through the I/O manager and
                     print responses in batches as they are collected.
  state [--config FILE] [FILE|-]
                     Fold a transcript into debugger state and print the stop
                     location, breakpoints, stack and locals.

Strings:
  unescape TEXT...   Decode gdb's C-style escapes (\n, \", \303\251, ...).
  escape TEXT...     Encode TEXT the way gdb escapes strings.

Input may be compressed with zstd or gzip. FILE defaults to stdin.

Config: --config FILE or GDBMI_CONFIG (TOML: format, chunk_size, keep_done,
[io] timeout/additional_output/read_size, [log] level/file).
Logging: set GDBMI_LOG=1 (stderr) or GDBMI_LOG=/path/to/log, GDBMI_LOG_LEVEL=debug|info|warn|error.
`)
}
