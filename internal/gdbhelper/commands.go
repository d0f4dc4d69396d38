// Commands: parse, watch, state, unescape, escape.
package gdbhelper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/glthr/go-gdbmi/internal/gdbio"
	"github.com/glthr/go-gdbmi/internal/gdbmi"
	"github.com/glthr/go-gdbmi/internal/miview"
)

// feed streams r through a framer chunkSize bytes at a time and hands every
// record to emit. Undecodable lines are reported on stderr and counted.
func feed(r io.Reader, f *gdbmi.Framer, chunkSize int, emit func(gdbmi.Record) error) (int, error) {
	bad := 0
	handle := func(recs []gdbmi.Record, err error) error {
		bad += reportLineErrors(err)
		for _, rec := range recs {
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	}
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if herr := handle(f.Ingest(buf[:n])); herr != nil {
				return bad, herr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return bad, fmt.Errorf("read input: %w", err)
		}
	}
	return bad, handle(f.Flush())
}

func reportLineErrors(err error) int {
	if err == nil {
		return 0
	}
	var errs []error
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		fmt.Fprintf(stderr, "skipped: %v\n", e)
	}
	return len(errs)
}

func undecodable(bad int) error {
	if bad == 0 {
		return nil
	}
	return fmt.Errorf("%d line(s) could not be decoded", bad)
}

func cmdParse(args []string) error {
	fs := newFlagSet("parse")
	format := fs.StringP("format", "f", "", "output format: text, json or yaml")
	path := fs.String("get", "", "gjson path selecting part of each record")
	keepDone := fs.Bool("keep-done", false, "report (gdb) prompts as done records")
	chunk := fs.Int("chunk", 0, "bytes fed to the framer per read")
	cfgPath := fs.String("config", "", "TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, log, err := settings(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Close()
	if fs.Changed("format") {
		cfg.Format = *format
	}
	if fs.Changed("keep-done") {
		cfg.KeepDone = *keepDone
	}
	if fs.Changed("chunk") {
		if *chunk <= 0 {
			return fmt.Errorf("--chunk must be positive, got %d", *chunk)
		}
		cfg.ChunkSize = *chunk
	}

	r, err := newRenderer(cfg.Format, *path, stdout)
	if err != nil {
		return err
	}
	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()

	f := gdbmi.NewFramer(gdbmi.NewParser(log.Logger))
	f.KeepDone = cfg.KeepDone
	log.Debug("parse", "input", fs.Arg(0), "format", cfg.Format, "chunk", cfg.ChunkSize)
	bad, err := feed(in, f, cfg.ChunkSize, r.render)
	if err != nil {
		return err
	}
	if err := r.close(); err != nil {
		return err
	}
	return undecodable(bad)
}

func cmdWatch(args []string) error {
	fs := newFlagSet("watch")
	timeout := fs.Duration("timeout", 0, "how long to wait for each batch of output")
	cfgPath := fs.String("config", "", "TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, log, err := settings(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Close()
	if fs.Changed("timeout") {
		cfg.IO.Timeout = *timeout
	}

	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()

	ctx := context.Background()
	m := gdbio.NewManager(io.Discard, in, nil, cfg.IO, log.Logger)
	batch := 0
	for {
		resp, err := m.GetResponse(ctx, cfg.IO.Timeout, false)
		if err != nil {
			m.Close()
			return err
		}
		if len(resp) > 0 {
			batch++
			fmt.Fprintf(stdout, "batch %d (%d responses)\n", batch, len(resp))
			for _, r := range resp {
				fmt.Fprintf(stdout, "  %s: %s\n", r.Stream, textLine(r.Record))
			}
		}
		select {
		case <-m.Done():
			if rest, _ := m.GetResponse(ctx, 0, false); len(rest) > 0 {
				batch++
				fmt.Fprintf(stdout, "batch %d (%d responses)\n", batch, len(rest))
				for _, r := range rest {
					fmt.Fprintf(stdout, "  %s: %s\n", r.Stream, textLine(r.Record))
				}
			}
			return m.Close()
		default:
		}
	}
}

func cmdState(args []string) error {
	fs := newFlagSet("state")
	cfgPath := fs.String("config", "", "TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, log, err := settings(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Close()

	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()

	s := miview.NewSession(log.Logger)
	f := gdbmi.NewFramer(gdbmi.NewParser(log.Logger))
	bad, err := feed(in, f, cfg.ChunkSize, func(rec gdbmi.Record) error {
		if err := s.Apply(rec); err != nil {
			log.Warn("record not applied", "message", rec.Message, "err", err)
			fmt.Fprintf(stderr, "skipped: %s: %v\n", rec.Message, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	printSession(s)
	return undecodable(bad)
}

func cmdUnescape(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: unescape TEXT...")
	}
	s, err := gdbmi.Unescape(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, s)
	return nil
}

func cmdEscape(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: escape TEXT...")
	}
	fmt.Fprintln(stdout, gdbmi.Escape(strings.Join(args, " ")))
	return nil
}

// printSession prints the stop location, then breakpoints, stack and locals.
func printSession(s *miview.Session) {
	printState(s)
	if bps := s.Breakpoints(); len(bps) > 0 {
		fmt.Fprintln(stdout, "breakpoints:")
		for _, bp := range bps {
			extra := ""
			if bp.Cond != "" {
				extra += " if " + bp.Cond
			}
			if bp.Disabled {
				extra += " (disabled)"
			}
			fmt.Fprintf(stdout, "  %d: %s:%d%s hits=%d\n", bp.ID, bp.File, bp.Line, extra, bp.TotalHitCount)
		}
	}
	if frames := s.Stack(); len(frames) > 0 {
		fmt.Fprintln(stdout, "stack:")
		for i, f := range frames {
			fn := "???"
			if f.Function != nil {
				fn = f.Function.Name()
			}
			fmt.Fprintf(stdout, "  #%d %s %s:%d\n", i, fn, f.File, f.Line)
		}
	}
	if vars := s.Locals(); len(vars) > 0 {
		fmt.Fprintln(stdout, "locals:")
		for _, v := range vars {
			fmt.Fprintf(stdout, "  %s = %s\n", v.Name, v.Value)
		}
	}
	for _, msg := range s.Errors() {
		fmt.Fprintf(stdout, "error: %s\n", msg)
	}
}

func printState(s *miview.Session) {
	state := s.State()
	if state.Exited {
		fmt.Fprintf(stdout, "Process exited with status %d\n", state.ExitStatus)
		return
	}
	if state.Running {
		fmt.Fprintln(stdout, "Process is running.")
		return
	}
	th := state.CurrentThread
	if th == nil {
		fmt.Fprintln(stdout, "stopped")
		return
	}
	fn := "???"
	if th.Function != nil {
		fn = th.Function.Name()
	}
	fmt.Fprintf(stdout, "thread %d at %s:%d (%s)\n", th.ID, th.File, th.Line, fn)
	if th.Breakpoint != nil {
		fmt.Fprintf(stdout, "  at breakpoint %d\n", th.Breakpoint.ID)
	}
}
