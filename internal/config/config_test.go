package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("listen default: %q", cfg.Listen)
	}
	if cfg.Divisibility != 18 {
		t.Fatalf("divisibility default: %d", cfg.Divisibility)
	}
	if cfg.Journal != "./data/journal.jsonl" {
		t.Fatalf("journal default: %q", cfg.Journal)
	}
	if cfg.SnapshotRetries != 3 || cfg.SnapshotRetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry defaults: %d / %s", cfg.SnapshotRetries, cfg.SnapshotRetryBackoff)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode default: %q", cfg.GinMode)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("POOLD_LISTEN", ":9090")
	t.Setenv("POOLD_API_KEY", "sekrit")
	t.Setenv("POOLD_SNAPSHOT_RETRY_BACKOFF", "2s")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("listen from env: %q", cfg.Listen)
	}
	if cfg.APIKey != "sekrit" {
		t.Fatalf("api key from env: %q", cfg.APIKey)
	}
	if cfg.SnapshotRetryBackoff != 2*time.Second {
		t.Fatalf("backoff from env: %s", cfg.SnapshotRetryBackoff)
	}
}

func TestLoadFlagsBeatEnv(t *testing.T) {
	t.Setenv("POOLD_LISTEN", ":9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", ":8080", "")
	flags.Uint("divisibility", 18, "")
	if err := flags.Parse([]string{"--listen", ":7070", "--divisibility", "6"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Fatalf("listen from flag: %q", cfg.Listen)
	}
	if cfg.Divisibility != 6 {
		t.Fatalf("divisibility from flag: %d", cfg.Divisibility)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poold.yaml")
	body := "listen: \":6060\"\nsymbol: WXRD\npg-dsn: postgres://pool:pw@localhost/pool\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":6060" {
		t.Fatalf("listen from file: %q", cfg.Listen)
	}
	if cfg.Symbol != "WXRD" {
		t.Fatalf("symbol from file: %q", cfg.Symbol)
	}
	if cfg.PGDSN != "postgres://pool:pw@localhost/pool" {
		t.Fatalf("pg dsn from file: %q", cfg.PGDSN)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestLoadReplayDefaults(t *testing.T) {
	cfg, err := LoadReplay("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Journal != "./data/journal.jsonl" {
		t.Fatalf("journal default: %q", cfg.Journal)
	}
	if cfg.BatchSize != 1000 {
		t.Fatalf("batch size default: %d", cfg.BatchSize)
	}
	if cfg.Divisibility != 18 {
		t.Fatalf("divisibility default: %d", cfg.Divisibility)
	}
}
