// Incremental framing of raw MI output into complete lines.
package gdbmi

import (
	"bytes"
	"errors"
	"strings"
)

// Framer buffers chunks read from one output stream of gdb and parses every
// complete line. A read can end in the middle of a record; the unterminated
// tail is kept and prepended to the next chunk.
//
// A Framer is not safe for concurrent use. Feed all chunks of one stream to
// one Framer, in order; use a separate Framer per stream.
type Framer struct {
	parser  *Parser
	pending []byte
	// KeepDone reports "(gdb)" prompt lines as KindDone records instead of
	// dropping them.
	KeepDone bool
}

// NewFramer returns an empty framer parsing with p. A nil p uses a parser
// that discards diagnostics.
func NewFramer(p *Parser) *Framer {
	if p == nil {
		p = defaultParser
	}
	return &Framer{parser: p}
}

// Ingest adds chunk to the stream and returns the records of every line it
// completed, in order. Lines that fail to decode are reported together in the
// returned error (each a *LineError) while the remaining records are still
// returned.
func (f *Framer) Ingest(chunk []byte) ([]Record, error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	data := chunk
	if len(f.pending) > 0 {
		data = make([]byte, 0, len(f.pending)+len(chunk))
		data = append(data, f.pending...)
		data = append(data, chunk...)
		f.pending = nil
	}

	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		f.pending = append([]byte(nil), data...)
		return nil, nil
	}
	if last < len(data)-1 {
		f.pending = append([]byte(nil), data[last+1:]...)
	}
	return f.parseLines(data[:last+1])
}

// Flush parses a pending unterminated fragment as a final line. Call it once
// the stream has ended.
func (f *Framer) Flush() ([]Record, error) {
	if len(f.pending) == 0 {
		return nil, nil
	}
	data := f.pending
	f.pending = nil
	return f.parseLines(data)
}

// Pending returns a copy of the buffered unterminated fragment.
func (f *Framer) Pending() []byte {
	if len(f.pending) == 0 {
		return nil
	}
	return append([]byte(nil), f.pending...)
}

func (f *Framer) parseLines(data []byte) ([]Record, error) {
	text := strings.ToValidUTF8(string(data), "�")
	var (
		records []Record
		errs    []error
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if IsDone(line) {
			if f.KeepDone {
				records = append(records, Record{Kind: KindDone})
			}
			continue
		}
		rec, err := f.parser.Parse(line)
		if err != nil {
			errs = append(errs, &LineError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}
