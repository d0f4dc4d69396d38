// Classification and recursive-descent parsing of MI output lines.
//
// See https://sourceware.org/gdb/onlinedocs/gdb/GDB_002fMI-Output-Syntax.html
package gdbmi

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

const (
	tokenPattern   = `(?P<token>\d+)?`
	payloadPattern = `(?P<payload>,.*)?`
)

var (
	resultRE   = regexp.MustCompile(`^` + tokenPattern + `\^(?P<message>\S+?)` + payloadPattern + `$`)
	notifyRE   = regexp.MustCompile(`^` + tokenPattern + `[*=](?P<message>\S+?)` + payloadPattern + `$`)
	consoleRE  = regexp.MustCompile(`^~"(?s:(?P<payload>.*))"`)
	logRE      = regexp.MustCompile(`^&"(?s:(?P<payload>.*))"`)
	targetRE   = regexp.MustCompile(`^@"(?s:(?P<payload>.*))"`)
	finishedRE = regexp.MustCompile(`^\(gdb\)\s*$`)
)

// recordPattern pairs a line pattern with the function building its record.
// Patterns are tried in order and the first match wins.
type recordPattern struct {
	re    *regexp.Regexp
	parse func(p *Parser, line string, m []int) (Record, error)
}

var recordPatterns = []recordPattern{
	{resultRE, func(p *Parser, line string, m []int) (Record, error) {
		return p.parseResultLike(KindResult, resultRE, line, m)
	}},
	{notifyRE, func(p *Parser, line string, m []int) (Record, error) {
		return p.parseResultLike(KindNotify, notifyRE, line, m)
	}},
	{consoleRE, streamParser(KindConsole, consoleRE)},
	{logRE, streamParser(KindLog, logRE)},
	{targetRE, streamParser(KindTarget, targetRE)},
	{finishedRE, func(*Parser, string, []int) (Record, error) {
		return Record{Kind: KindDone}, nil
	}},
}

const whitespace = " \t\r\n"

// Parser turns MI lines into records. It keeps no state between lines and
// is safe for concurrent use.
type Parser struct {
	log *slog.Logger
}

// NewParser returns a parser reporting structural anomalies to logger. A nil
// logger discards them.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = discardLogger
	}
	return &Parser{log: logger}
}

var defaultParser = NewParser(nil)

// Parse parses one line with a parser that discards diagnostics.
func Parse(line string) (Record, error) {
	return defaultParser.Parse(line)
}

// IsDone reports whether line is the "(gdb)" prompt that ends a response.
func IsDone(line string) bool {
	return finishedRE.MatchString(line)
}

// Parse classifies line and decodes its payload. Malformed values inside a
// payload are logged and degraded; only undecodable strings return an error.
func (p *Parser) Parse(line string) (Record, error) {
	for _, rp := range recordPatterns {
		if m := rp.re.FindStringSubmatchIndex(line); m != nil {
			return rp.parse(p, line, m)
		}
	}
	// Not MI output, so it was printed by the program being debugged.
	payload := String(line)
	return Record{Kind: KindOutput, Payload: &payload}, nil
}

func group(re *regexp.Regexp, line string, m []int, name string) (string, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || m[2*i] < 0 {
		return "", false
	}
	return line[m[2*i]:m[2*i+1]], true
}

func (p *Parser) parseResultLike(kind Kind, re *regexp.Regexp, line string, m []int) (Record, error) {
	msg, _ := group(re, line, m, "message")
	rec := Record{Kind: kind, Message: strings.TrimSpace(msg)}
	if tok, ok := group(re, line, m, "token"); ok {
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			p.log.Warn("ignoring token out of range", "token", tok)
		} else {
			rec.Token = &n
		}
	}
	if _, ok := group(re, line, m, "payload"); ok {
		c := NewCursor(line, p.log)
		c.AdvancePastChars(",")
		results, err := p.parseDict(c)
		if err != nil {
			return Record{}, err
		}
		v := MappingValue(results)
		rec.Payload = &v
	}
	p.log.Debug("parsed record", "kind", kind, "message", rec.Message)
	return rec, nil
}

func streamParser(kind Kind, re *regexp.Regexp) func(*Parser, string, []int) (Record, error) {
	return func(p *Parser, line string, m []int) (Record, error) {
		raw, _ := group(re, line, m, "payload")
		text, err := Unescape(raw)
		if err != nil {
			return Record{}, err
		}
		v := String(text)
		return Record{Kind: kind, Payload: &v}, nil
	}
}

// parseDict parses a tuple. The opening brace is optional: result records
// carry their top-level results without one.
func (p *Parser) parseDict(c *Cursor) (*Mapping, error) {
	obj := NewMapping()
	for {
		ch := c.Read(1)
		switch {
		case ch == "":
			return obj, nil
		case ch == "}":
			return obj, nil
		case strings.Contains(whitespace, ch), ch == "{", ch == ",":
			continue
		}

		c.Seek(-1)
		key, val, err := p.parseKeyVal(c)
		if err != nil {
			return nil, err
		}
		obj.Add(key, val)

		// Skip anything between the value and the next separator, e.g.
		// name="gdb"garbage or a stray newline.
		for ch = c.Read(1); ch != "}" && ch != "," && ch != ""; ch = c.Read(1) {
			p.log.Debug("skipping unexpected character", "char", ch)
		}
		c.Seek(-1)
	}
}

func (p *Parser) parseKeyVal(c *Cursor) (string, Value, error) {
	key := c.AdvancePastChars("=")
	val, err := p.parseVal(c)
	if err != nil {
		return "", Value{}, err
	}
	return key, val, nil
}

func (p *Parser) parseVal(c *Cursor) (Value, error) {
	ch := c.Read(1)
	switch ch {
	case "{":
		m, err := p.parseDict(c)
		if err != nil {
			return Value{}, err
		}
		return MappingValue(m), nil
	case "[":
		return p.parseArray(c)
	case `"`:
		s, err := c.AdvancePastEscapedString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case "":
		p.log.Warn("unexpected end of stream while reading value")
		return String(""), nil
	default:
		// Leave the character for the caller's separator scan.
		p.log.Warn("unexpected character, continuing", "char", ch)
		c.Seek(-1)
		return String(""), nil
	}
}

func (p *Parser) parseArray(c *Cursor) (Value, error) {
	items := []Value{}
	for {
		ch := c.Read(1)
		switch {
		case ch == "{" || ch == "[" || ch == `"`:
			c.Seek(-1)
			v, err := p.parseVal(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		case ch == "]":
			return Array(items...), nil
		case ch == "":
			p.log.Warn("unterminated array", "items", len(items))
			return Array(items...), nil
		default:
			// Separators, whitespace and the keys of result lists
			// (frame={...},frame={...}) are skipped; only values are kept.
		}
	}
}
