package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gdbmi.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Format != "text" || cfg.ChunkSize != 4096 || cfg.KeepDone {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IO.Timeout != time.Second || cfg.IO.AdditionalOutputWindow != 200*time.Millisecond || cfg.IO.ReadSize != 4096 {
		t.Fatalf("unexpected io defaults: %+v", cfg.IO)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
format = "json"
keep_done = true

[io]
timeout = "3s"
read_size = 128

[log]
level = "warn"
file = "/tmp/gdbmi.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Format != "json" || !cfg.KeepDone {
		t.Fatalf("unexpected top level: %+v", cfg)
	}
	if cfg.ChunkSize != 4096 {
		t.Fatalf("chunk_size should keep its default, got %d", cfg.ChunkSize)
	}
	if cfg.IO.Timeout != 3*time.Second || cfg.IO.ReadSize != 128 {
		t.Fatalf("unexpected io: %+v", cfg.IO)
	}
	if cfg.IO.AdditionalOutputWindow != 200*time.Millisecond {
		t.Fatalf("additional_output should keep its default, got %v", cfg.IO.AdditionalOutputWindow)
	}
	if cfg.Log.Level != "warn" || cfg.Log.File != "/tmp/gdbmi.log" {
		t.Fatalf("unexpected log: %+v", cfg.Log)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvConfig, writeConfig(t, `chunk_size = 7`))
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ChunkSize != 7 {
		t.Fatalf("unexpected chunk size: %d", cfg.ChunkSize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`format = "xml"`, "format"},
		{`chunk_size = 0`, "chunk_size"},
		{"[io]\ntimeout = \"soon\"", "io.timeout"},
		{"[io]\nread_size = -1", "io.read_size"},
		{`colour = true`, "unknown key"},
		{`format = `, "load config"},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Load(%q) = %v, want error containing %q", tt.body, err, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
