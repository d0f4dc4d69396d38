//go:build integration

// Package e2e_test builds gdbmi-helper and runs it end to end:
//
//  1. Build the helper into a temporary directory.
//  2. Parse the recorded session transcript in every output format.
//  3. Fold the transcript into debugger state.
//  4. When gdb is installed, drive a real gdb over --interpreter=mi3 and parse
//     what it printed.
//
// Run with:
//
//	go test -v -tags integration -timeout 120s ./e2e/
package e2e_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// ── helpers ───────────────────────────────────────────────────────────────────

// projectRoot walks upward from the test's working directory until it finds
// the directory containing go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("project root not found: no go.mod ancestor")
		}
		dir = parent
	}
}

// run executes a command in dir, fails the test on non-zero exit, and returns
// the combined stdout+stderr output.
func run(t *testing.T, dir string, stdin []byte, name string, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	c := exec.Command(name, args...)
	c.Dir = dir
	c.Stdin = bytes.NewReader(stdin)
	c.Stdout = &buf
	c.Stderr = &buf
	if err := c.Run(); err != nil {
		t.Fatalf("FAIL: %s %v (dir=%s)\n%s\n%v", name, args, dir, buf.String(), err)
	}
	return buf.String()
}

// buildHelper compiles cmd/gdbmi-helper and returns the binary path.
func buildHelper(t *testing.T, root string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "gdbmi-helper")
	run(t, root, nil, "go", "build", "-o", bin, "./cmd/gdbmi-helper")
	return bin
}

func assertContains(t *testing.T, out string, checks []string) {
	t.Helper()
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output missing expected content: %q\n%s", want, out)
		}
	}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestTranscriptE2E(t *testing.T) {
	root := projectRoot(t)
	helper := buildHelper(t, root)
	transcript := filepath.Join(root, "internal", "gdbhelper", "testdata", "session.mi")

	t.Log("1. parse as text")
	out := run(t, root, nil, helper, "parse", transcript)
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 14 {
		t.Fatalf("FAIL: expected 14 records, got %d:\n%s", n, out)
	}

	t.Log("2. parse as json with a path")
	out = run(t, root, nil, helper, "parse", "--format", "json", "--get", "payload.bkpt.fullname", transcript)
	assertContains(t, out, []string{`"/src/hello.c"`})

	t.Log("3. parse as yaml")
	out = run(t, root, nil, helper, "parse", "--format", "yaml", transcript)
	assertContains(t, out, []string{"type: notify", "message: stopped", "reason: breakpoint-hit"})

	t.Log("4. fold into state")
	out = run(t, root, nil, helper, "state", transcript)
	assertContains(t, out, []string{
		"thread 1 at /src/hello.c:9 (main)",
		"1: /src/hello.c:9 hits=1",
		"#0 main /src/hello.c:9",
		`greeting = 0x402010 "héllo"`,
	})

	t.Log("5. escape round trip")
	enc := strings.TrimSpace(run(t, root, nil, helper, "escape", "tab\there \"quoted\" é"))
	dec := run(t, root, nil, helper, "unescape", enc)
	if dec != "tab\there \"quoted\" é\n" {
		t.Fatalf("FAIL: round trip gave %q (escaped %q)", dec, enc)
	}
}

func TestRealGDBE2E(t *testing.T) {
	gdb, err := exec.LookPath("gdb")
	if err != nil {
		t.Skip("gdb not installed")
	}
	root := projectRoot(t)
	helper := buildHelper(t, root)

	t.Log("1. run gdb over MI")
	var mi bytes.Buffer
	c := exec.Command(gdb, "--interpreter=mi3", "-nx", "-q")
	c.Stdin = strings.NewReader("1-gdb-version\n2-list-features\n3-gdb-exit\n")
	c.Stdout = &mi
	if err := c.Run(); err != nil {
		t.Fatalf("FAIL: gdb: %v\n%s", err, mi.String())
	}

	t.Log("2. parse its output")
	out := run(t, root, mi.Bytes(), helper, "parse", "--format", "json")
	assertContains(t, out, []string{
		`"type":"console"`,
		`"type":"result","message":"done","payload":null,"token":1`,
		`"message":"done","payload":{"features":[`,
		`"message":"exit","payload":null,"token":3`,
	})

	t.Log("3. select the feature list")
	out = run(t, root, mi.Bytes(), helper, "parse", "--get", "payload.features")
	if !strings.HasPrefix(strings.TrimSpace(out), "[") {
		t.Fatalf("FAIL: expected a JSON array, got %q", out)
	}
}
