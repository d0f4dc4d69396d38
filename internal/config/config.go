// Helper configuration loaded from a TOML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/glthr/go-gdbmi/internal/gdbio"
)

// EnvConfig names a config file used when no --config flag is given.
const EnvConfig = "GDBMI_CONFIG"

type Config struct {
	// Format is the parse output format: text, json or yaml.
	Format string
	// ChunkSize is how many bytes of input are fed to the framer at a time.
	ChunkSize int
	KeepDone  bool
	IO        gdbio.Config
	Log       Log
}

type Log struct {
	// Level is debug, info, warn or error. Empty keeps the logging default.
	Level string
	// File is "" (discard), "1"/"true" (stderr) or a path.
	File string
}

func Default() Config {
	return Config{
		Format:    "text",
		ChunkSize: 4096,
		IO:        gdbio.DefaultConfig(),
	}
}

type fileConfig struct {
	Format    string `toml:"format"`
	ChunkSize int    `toml:"chunk_size"`
	KeepDone  bool   `toml:"keep_done"`
	IO        struct {
		Timeout          string `toml:"timeout"`
		AdditionalOutput string `toml:"additional_output"`
		ReadSize         int    `toml:"read_size"`
	} `toml:"io"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values. An empty path falls back to $GDBMI_CONFIG, and to the
// defaults when that is unset too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("format") {
		f := strings.ToLower(strings.TrimSpace(raw.Format))
		switch f {
		case "text", "json", "yaml":
			cfg.Format = f
		default:
			return Config{}, fmt.Errorf("parse format: unknown format %q", raw.Format)
		}
	}
	if meta.IsDefined("chunk_size") {
		if raw.ChunkSize <= 0 {
			return Config{}, fmt.Errorf("parse chunk_size: must be positive, got %d", raw.ChunkSize)
		}
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("keep_done") {
		cfg.KeepDone = raw.KeepDone
	}
	if meta.IsDefined("io", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IO.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse io.timeout: %w", err)
		}
		cfg.IO.Timeout = d
	}
	if meta.IsDefined("io", "additional_output") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IO.AdditionalOutput))
		if err != nil {
			return Config{}, fmt.Errorf("parse io.additional_output: %w", err)
		}
		cfg.IO.AdditionalOutputWindow = d
	}
	if meta.IsDefined("io", "read_size") {
		if raw.IO.ReadSize <= 0 {
			return Config{}, fmt.Errorf("parse io.read_size: must be positive, got %d", raw.IO.ReadSize)
		}
		cfg.IO.ReadSize = raw.IO.ReadSize
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	return cfg, nil
}
