// Session folds MI records into debugger state.
package miview

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-delve/delve/service/api"

	"github.com/glthr/go-gdbmi/internal/gdbmi"
)

// Session tracks what a stream of records says about the debugged program:
// run state, breakpoints, the last stack and local variables, console text
// and error messages. It is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	log     *slog.Logger
	state   api.DebuggerState
	bps     map[int]*api.Breakpoint
	stack   []api.Stackframe
	locals  []api.Variable
	console strings.Builder
	errs    []string
}

func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{log: logger, bps: make(map[int]*api.Breakpoint)}
}

// Apply folds one record into the session. Records it has no use for are
// ignored; an error means a recognised record carried malformed values.
func (s *Session) Apply(rec gdbmi.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch rec.Kind {
	case gdbmi.KindNotify:
		return s.notify(rec)
	case gdbmi.KindResult:
		return s.result(rec)
	case gdbmi.KindConsole:
		s.console.WriteString(rec.Text())
	}
	return nil
}

func (s *Session) notify(rec gdbmi.Record) error {
	m := rec.Results()
	switch rec.Message {
	case "running":
		s.state.Running = true
		s.stack, s.locals = nil, nil
	case "stopped":
		return s.stopped(m)
	case "breakpoint-created", "breakpoint-modified":
		return s.storeBreakpoint(m)
	case "breakpoint-deleted":
		id, err := breakpointID(m.Text("id"))
		if err != nil {
			return err
		}
		delete(s.bps, id)
	case "thread-group-started":
		if pid := m.Text("pid"); pid != "" {
			n, err := strconv.Atoi(pid)
			if err != nil {
				return fmt.Errorf("parse pid %q: %w", pid, err)
			}
			s.state.Pid = n
		}
	default:
		s.log.Debug("ignoring notification", "message", rec.Message)
	}
	return nil
}

func (s *Session) stopped(m *gdbmi.Mapping) error {
	s.state.Running = false
	s.state.CurrentThread = nil
	s.state.Threads = nil
	s.stack, s.locals = nil, nil

	switch reason := m.Text("reason"); reason {
	case "exited-normally":
		s.state.Exited = true
		s.state.ExitStatus = 0
		return nil
	case "exited":
		// exit-code is printed in octal.
		code := m.Text("exit-code")
		n, err := strconv.ParseInt(code, 8, 32)
		if err != nil {
			return fmt.Errorf("parse exit code %q: %w", code, err)
		}
		s.state.Exited = true
		s.state.ExitStatus = int(n)
		return nil
	case "exited-signalled":
		s.state.Exited = true
		s.state.ExitStatus = -1
		s.errs = append(s.errs, "program terminated with signal "+m.Text("signal-name"))
		return nil
	}

	if m.Text("thread-id") == "" {
		return nil
	}
	th, err := Thread(m)
	if err != nil {
		return err
	}
	if n := m.Text("bkptno"); n != "" {
		id, err := breakpointID(n)
		if err != nil {
			return err
		}
		if bp, ok := s.bps[id]; ok {
			th.Breakpoint = bp
		} else {
			th.Breakpoint = &api.Breakpoint{ID: id}
		}
	}
	s.state.CurrentThread = th
	s.state.Threads = []*api.Thread{th}
	if fv, ok := m.Get("frame"); ok {
		f, err := Frame(fv.Mapping())
		if err != nil {
			return err
		}
		s.stack = []api.Stackframe{f}
	}
	return nil
}

func (s *Session) storeBreakpoint(m *gdbmi.Mapping) error {
	v, ok := m.Get("bkpt")
	if !ok {
		return nil
	}
	bp, err := Breakpoint(v.Mapping())
	if err != nil {
		return err
	}
	s.bps[bp.ID] = bp
	return nil
}

func (s *Session) result(rec gdbmi.Record) error {
	m := rec.Results()
	switch rec.Message {
	case "error":
		s.errs = append(s.errs, m.Text("msg"))
		return nil
	case "running":
		s.state.Running = true
		return nil
	case "done":
	default:
		return nil
	}

	if err := s.storeBreakpoint(m); err != nil {
		return err
	}
	if v, ok := m.Get("BreakpointTable"); ok {
		if body, ok := v.Mapping().Get("body"); ok {
			for _, it := range body.Items() {
				bp, err := Breakpoint(it.Mapping())
				if err != nil {
					return err
				}
				s.bps[bp.ID] = bp
			}
		}
	}
	if v, ok := m.Get("stack"); ok {
		frames := make([]api.Stackframe, 0, len(v.Items()))
		for _, it := range v.Items() {
			f, err := Frame(it.Mapping())
			if err != nil {
				return err
			}
			frames = append(frames, f)
		}
		s.stack = frames
	}
	for _, key := range []string{"locals", "variables"} {
		if v, ok := m.Get(key); ok {
			s.locals = Variables(v)
		}
	}
	if v, ok := m.Get("threads"); ok {
		threads := make([]*api.Thread, 0, len(v.Items()))
		for _, it := range v.Items() {
			th, err := Thread(it.Mapping())
			if err != nil {
				return err
			}
			threads = append(threads, th)
		}
		s.state.Threads = threads
		s.state.CurrentThread = nil
		if cur := m.Text("current-thread-id"); cur != "" {
			for _, th := range threads {
				if strconv.Itoa(th.ID) == cur {
					s.state.CurrentThread = th
				}
			}
		}
	}
	return nil
}

// State returns a copy of the run state.
func (s *Session) State() *api.DebuggerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Threads = append([]*api.Thread(nil), s.state.Threads...)
	return &st
}

// Breakpoints returns the known breakpoints ordered by number.
func (s *Session) Breakpoints() []*api.Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bps := make([]*api.Breakpoint, 0, len(s.bps))
	for _, bp := range s.bps {
		c := *bp
		bps = append(bps, &c)
	}
	sort.Slice(bps, func(i, j int) bool { return bps[i].ID < bps[j].ID })
	return bps
}

// Stack returns the last listed stack, or the stop frame when no stack was
// listed since the program last stopped.
func (s *Session) Stack() []api.Stackframe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Stackframe(nil), s.stack...)
}

func (s *Session) Locals() []api.Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Variable(nil), s.locals...)
}

// Console returns all console stream text seen so far.
func (s *Session) Console() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.console.String()
}

// Errors returns the messages of ^error results and abnormal exits.
func (s *Session) Errors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.errs...)
}
