package gdbmi

import (
	"errors"
	"math/rand"
	"testing"
)

const transcript = `=thread-group-added,id="i1"
~"GNU gdb (GDB) 14.2\n"
~"Reading symbols from hello...\n"
(gdb)
1^done,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x0000000000401136",func="main",file="hello.c",fullname="/src/hello.c",line="9",thread-groups=["i1"],times="0",original-location="main"}
(gdb)
2^running
*running,thread-id="all"
(gdb)
hello from the inferior
=breakpoint-modified,bkpt={number="1",times="1"}
*stopped,reason="breakpoint-hit",disp="keep",bkptno="1",frame={addr="0x0000000000401136",func="main",args=[],file="hello.c",fullname="/src/hello.c",line="9"},thread-id="1",stopped-threads="all",core="3"
(gdb)
3^done,locals=[{name="i",value="0"},{name="s",value="0x0"}]
&"warning: \303\251t\303\251\n"
(gdb)
`

func ingestAll(t *testing.T, f *Framer, chunks [][]byte) []Record {
	t.Helper()
	var out []Record
	for _, c := range chunks {
		recs, err := f.Ingest(c)
		if err != nil {
			t.Fatalf("ingest %q: %v", c, err)
		}
		out = append(out, recs...)
	}
	return out
}

func sameRecords(t *testing.T, got, want []Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d: got %s, want %s", i, mustJSON(t, got[i]), mustJSON(t, want[i]))
		}
	}
}

func TestFramerSingleChunk(t *testing.T) {
	f := NewFramer(nil)
	recs := ingestAll(t, f, [][]byte{[]byte(transcript)})
	if len(recs) != 11 {
		t.Fatalf("got %d records, want 11", len(recs))
	}
	if recs[0].Kind != KindNotify || recs[0].Message != "thread-group-added" {
		t.Fatalf("first record = %s", mustJSON(t, recs[0]))
	}
	if recs[6].Kind != KindOutput || recs[6].Text() != "hello from the inferior" {
		t.Fatalf("output record = %s", mustJSON(t, recs[6]))
	}
	if recs[10].Kind != KindLog || recs[10].Text() != "warning: été\n" {
		t.Fatalf("log record = %s", mustJSON(t, recs[10]))
	}
	for _, r := range recs {
		if r.Kind == KindDone {
			t.Fatalf("prompt lines must be dropped, got %s", mustJSON(t, r))
		}
	}
	if p := f.Pending(); p != nil {
		t.Fatalf("pending after complete stream: %q", p)
	}
}

func TestFramerChunkingInvariance(t *testing.T) {
	want := ingestAll(t, NewFramer(nil), [][]byte{[]byte(transcript)})
	data := []byte(transcript)

	// Every single split point.
	for i := 1; i < len(data); i++ {
		f := NewFramer(nil)
		got := ingestAll(t, f, [][]byte{data[:i], data[i:]})
		sameRecords(t, got, want)
		if f.Pending() != nil {
			t.Fatalf("split at %d left pending %q", i, f.Pending())
		}
	}

	// Byte at a time.
	f := NewFramer(nil)
	var chunks [][]byte
	for i := range data {
		chunks = append(chunks, data[i:i+1])
	}
	sameRecords(t, ingestAll(t, f, chunks), want)

	// Random splits.
	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 50; run++ {
		var chunks [][]byte
		for rest := data; len(rest) > 0; {
			n := 1 + rng.Intn(40)
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		sameRecords(t, ingestAll(t, NewFramer(nil), chunks), want)
	}
}

func TestFramerBuffersIncompleteLines(t *testing.T) {
	f := NewFramer(nil)
	recs, err := f.Ingest([]byte(`^done,value="4`))
	if err != nil || len(recs) != 0 {
		t.Fatalf("partial line: %v %v", recs, err)
	}
	if string(f.Pending()) != `^done,value="4` {
		t.Fatalf("pending = %q", f.Pending())
	}
	recs, err = f.Ingest([]byte("2\"\n~\"par"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Results().Text("value") != "42" {
		t.Fatalf("completed line: %s", mustJSON(t, recs))
	}
	if string(f.Pending()) != `~"par` {
		t.Fatalf("pending = %q", f.Pending())
	}
	recs, err = f.Ingest([]byte("tial\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Text() != "partial" {
		t.Fatalf("second line: %s", mustJSON(t, recs))
	}
	if f.Pending() != nil {
		t.Fatalf("pending not cleared: %q", f.Pending())
	}
}

func TestFramerEmptyChunkKeepsPending(t *testing.T) {
	f := NewFramer(nil)
	f.Ingest([]byte("^do"))
	if recs, err := f.Ingest(nil); recs != nil || err != nil {
		t.Fatalf("empty chunk: %v %v", recs, err)
	}
	if string(f.Pending()) != "^do" {
		t.Fatalf("pending = %q", f.Pending())
	}
}

func TestFramerDropsBlankLinesAndCR(t *testing.T) {
	f := NewFramer(nil)
	recs, err := f.Ingest([]byte("\n\r\n^done\r\n(gdb)\r\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	sameRecords(t, recs, []Record{{Kind: KindResult, Message: "done"}})
}

func TestFramerKeepDone(t *testing.T) {
	f := NewFramer(nil)
	f.KeepDone = true
	recs, err := f.Ingest([]byte("^done\n(gdb) \n"))
	if err != nil {
		t.Fatal(err)
	}
	sameRecords(t, recs, []Record{{Kind: KindResult, Message: "done"}, {Kind: KindDone}})
}

func TestFramerFlush(t *testing.T) {
	f := NewFramer(nil)
	f.Ingest([]byte("^done\n~\"no newline\""))
	recs, err := f.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Kind != KindConsole || recs[0].Text() != "no newline" {
		t.Fatalf("flush: %s", mustJSON(t, recs))
	}
	if recs, err := f.Flush(); recs != nil || err != nil {
		t.Fatalf("second flush: %v %v", recs, err)
	}
}

func TestFramerReportsBadLinesAndKeepsGoodOnes(t *testing.T) {
	f := NewFramer(nil)
	recs, err := f.Ingest([]byte("^done\n~\"bad \\q\"\n*stopped\n"))
	if len(recs) != 2 || recs[0].Kind != KindResult || recs[1].Message != "stopped" {
		t.Fatalf("records: %s", mustJSON(t, recs))
	}
	var le *LineError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LineError, got %v", err)
	}
	if le.Line != `~"bad \q"` {
		t.Fatalf("line = %q", le.Line)
	}
	var ee *EscapeError
	if !errors.As(err, &ee) || ee.Kind != EscapeInvalidChar {
		t.Fatalf("expected wrapped escape error, got %v", err)
	}
}

func TestFramerInvalidUTF8IsReplaced(t *testing.T) {
	f := NewFramer(nil)
	recs, err := f.Ingest([]byte("out\xffput\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Text() != "out\uFFFDput" {
		t.Fatalf("records: %s", mustJSON(t, recs))
	}
}
