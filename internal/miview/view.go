// Conversion of MI tuples into Delve API view types.
package miview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-delve/delve/service/api"

	"github.com/glthr/go-gdbmi/internal/gdbmi"
)

// parseAddr reads a hex address. gdb prints <PENDING> and <MULTIPLE> for
// breakpoints without a single resolved location; those map to 0.
func parseAddr(s string) (uint64, error) {
	if s == "" || strings.HasPrefix(s, "<") {
		return 0, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse addr %q: %w", s, err)
	}
	return v, nil
}

func parseLine(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse line %q: %w", s, err)
	}
	return n, nil
}

// breakpointID accepts "3" as well as the "3.1" form gdb uses for the
// locations of a multi-location breakpoint.
func breakpointID(s string) (int, error) {
	major, _, _ := strings.Cut(s, ".")
	id, err := strconv.Atoi(major)
	if err != nil {
		return 0, fmt.Errorf("parse breakpoint number %q: %w", s, err)
	}
	return id, nil
}

func file(m *gdbmi.Mapping) string {
	if f := m.Text("fullname"); f != "" {
		return f
	}
	return m.Text("file")
}

func function(name string) *api.Function {
	if name == "" {
		return nil
	}
	return &api.Function{Name_: name}
}

// Breakpoint converts a bkpt tuple.
func Breakpoint(m *gdbmi.Mapping) (*api.Breakpoint, error) {
	if m == nil {
		return nil, fmt.Errorf("breakpoint: no tuple")
	}
	id, err := breakpointID(m.Text("number"))
	if err != nil {
		return nil, err
	}
	addr, err := parseAddr(m.Text("addr"))
	if err != nil {
		return nil, err
	}
	line, err := parseLine(m.Text("line"))
	if err != nil {
		return nil, err
	}
	bp := &api.Breakpoint{
		ID:           id,
		Addr:         addr,
		File:         file(m),
		Line:         line,
		FunctionName: m.Text("func"),
		Cond:         m.Text("cond"),
		Disabled:     m.Text("enabled") == "n",
	}
	if t := m.Text("times"); t != "" {
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse hit count %q: %w", t, err)
		}
		bp.TotalHitCount = n
	}
	if addr != 0 {
		bp.Addrs = []uint64{addr}
	}
	if locs, ok := m.Get("locations"); ok {
		for _, loc := range locs.Items() {
			lm := loc.Mapping()
			a, err := parseAddr(lm.Text("addr"))
			if err != nil {
				return nil, err
			}
			if a != 0 {
				bp.Addrs = append(bp.Addrs, a)
			}
			if bp.File == "" {
				bp.File = file(lm)
				if bp.Line, err = parseLine(lm.Text("line")); err != nil {
					return nil, err
				}
			}
			if bp.FunctionName == "" {
				bp.FunctionName = lm.Text("func")
			}
		}
	}
	return bp, nil
}

// Frame converts a frame tuple as found in *stopped and -stack-list-frames.
func Frame(m *gdbmi.Mapping) (api.Stackframe, error) {
	pc, err := parseAddr(m.Text("addr"))
	if err != nil {
		return api.Stackframe{}, err
	}
	line, err := parseLine(m.Text("line"))
	if err != nil {
		return api.Stackframe{}, err
	}
	f := api.Stackframe{
		Location: api.Location{
			PC:       pc,
			File:     file(m),
			Line:     line,
			Function: function(m.Text("func")),
		},
	}
	if args, ok := m.Get("args"); ok {
		f.Arguments = Variables(args)
	}
	return f, nil
}

// Variable converts a {name=,value=,type=} tuple.
func Variable(m *gdbmi.Mapping) api.Variable {
	return api.Variable{
		Name:  m.Text("name"),
		Type:  m.Text("type"),
		Value: m.Text("value"),
	}
}

// Variables converts a variable list. gdb prints bare names when values were
// not requested; those become variables without a value.
func Variables(v gdbmi.Value) []api.Variable {
	vars := make([]api.Variable, 0, len(v.Items()))
	for _, it := range v.Items() {
		switch it.Kind() {
		case gdbmi.ValueMapping:
			vars = append(vars, Variable(it.Mapping()))
		case gdbmi.ValueString:
			vars = append(vars, api.Variable{Name: it.Text()})
		}
	}
	return vars
}

// Thread converts an entry of -thread-info's threads list, or the
// thread-id/frame pair of a *stopped record.
func Thread(m *gdbmi.Mapping) (*api.Thread, error) {
	idText := m.Text("id")
	if idText == "" {
		idText = m.Text("thread-id")
	}
	id, err := strconv.Atoi(idText)
	if err != nil {
		return nil, fmt.Errorf("parse thread id %q: %w", idText, err)
	}
	th := &api.Thread{ID: id}
	if fv, ok := m.Get("frame"); ok {
		f, err := Frame(fv.Mapping())
		if err != nil {
			return nil, err
		}
		th.PC = f.PC
		th.File = f.File
		th.Line = f.Line
		th.Function = f.Function
	}
	return th, nil
}
