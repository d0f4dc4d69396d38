// Parsed MI records.
package gdbmi

import (
	"encoding/json"
)

// Kind identifies the MI output record a line was classified as.
type Kind int

const (
	KindResult  Kind = iota // ^done, ^running, ^connected, ^error, ^exit
	KindNotify              // *exec-async and =notify-async
	KindConsole             // ~"..."
	KindLog                 // &"..."
	KindTarget              // @"..."
	KindDone                // (gdb)
	KindOutput              // anything else, printed by the inferior
)

func (k Kind) String() string {
	switch k {
	case KindResult:
		return "result"
	case KindNotify:
		return "notify"
	case KindConsole:
		return "console"
	case KindLog:
		return "log"
	case KindTarget:
		return "target"
	case KindDone:
		return "done"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Record is the parse of one MI line.
type Record struct {
	Kind Kind
	// Token is the command token echoed by gdb; nil when the line had none.
	// Only result and notify records carry one.
	Token *uint64
	// Message is the result or async class. Empty for stream, done and
	// output records.
	Message string
	// Payload is a mapping for result/notify (nil when the line had no
	// results), a string for stream and output records, and nil for done.
	Payload *Value
}

// HasToken reports whether the record carries a token equal to tok.
func (r Record) HasToken(tok uint64) bool {
	return r.Token != nil && *r.Token == tok
}

// Results returns the payload mapping of a result or notify record, or nil.
func (r Record) Results() *Mapping {
	if r.Payload == nil {
		return nil
	}
	return r.Payload.Mapping()
}

// Text returns the string payload of stream and output records.
func (r Record) Text() string {
	if r.Payload == nil {
		return ""
	}
	return r.Payload.Text()
}

// Equal reports whether two records have the same content.
func (r Record) Equal(o Record) bool {
	if r.Kind != o.Kind || r.Message != o.Message {
		return false
	}
	if (r.Token == nil) != (o.Token == nil) || (r.Token != nil && *r.Token != *o.Token) {
		return false
	}
	if (r.Payload == nil) != (o.Payload == nil) {
		return false
	}
	return r.Payload == nil || r.Payload.Equal(*o.Payload)
}

type recordJSON struct {
	Type    string  `json:"type"`
	Message *string `json:"message"`
	Payload *Value  `json:"payload"`
}

type tokenRecordJSON struct {
	recordJSON
	Token *uint64 `json:"token"`
}

// MarshalJSON encodes the record with the keys type, message, payload and,
// for result and notify records, token. Missing fields encode as null.
func (r Record) MarshalJSON() ([]byte, error) {
	base := recordJSON{Type: r.Kind.String(), Payload: r.Payload}
	if r.Message != "" {
		msg := r.Message
		base.Message = &msg
	}
	if r.Kind == KindResult || r.Kind == KindNotify {
		return json.Marshal(tokenRecordJSON{recordJSON: base, Token: r.Token})
	}
	return json.Marshal(base)
}
