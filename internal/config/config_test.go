package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Flip.HistorySize != nil {
		t.Fatalf("expected unset history size")
	}
}

func TestLoadConfigDecodesFlipSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[flip]
history-size = 5
flip-delay = "800ms"
settle-delay = "1.5s"
store = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Flip.HistorySize == nil || *cfg.Flip.HistorySize != 5 {
		t.Fatalf("unexpected history size: %v", cfg.Flip.HistorySize)
	}
	if cfg.Flip.FlipDelay == nil || cfg.Flip.FlipDelay.Duration != 800*time.Millisecond {
		t.Fatalf("unexpected flip delay: %v", cfg.Flip.FlipDelay)
	}
	if cfg.Flip.SettleDelay == nil || cfg.Flip.SettleDelay.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected settle delay: %v", cfg.Flip.SettleDelay)
	}
	if cfg.Flip.Store == nil || *cfg.Flip.Store {
		t.Fatalf("expected store=false")
	}
	if cfg.Flip.Seed != nil {
		t.Fatalf("expected unset seed")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[flip]\nflip-delay = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	size := 3
	file := FileConfig{Flip: FlipConfig{HistorySize: &size}}
	envCfg, err := LoadEnvFrom(map[string]string{
		"QFLIP_HISTORY_SIZE": "7",
		"QFLIP_FLIP_DELAY":   "250ms",
		"QFLIP_DB_PATH":      "/tmp/q.db",
	})
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	merged := file.Merge(envCfg)
	if *merged.Flip.HistorySize != 7 {
		t.Fatalf("expected env history size, got %d", *merged.Flip.HistorySize)
	}
	if merged.Flip.FlipDelay.Duration != 250*time.Millisecond {
		t.Fatalf("unexpected flip delay: %v", merged.Flip.FlipDelay)
	}
	if merged.Flip.SettleDelay != nil || merged.Flip.Seed != nil {
		t.Fatalf("expected unset values to stay unset")
	}
	if ResolveDBPath(envCfg.DBPath) != "/tmp/q.db" {
		t.Fatalf("expected db path override")
	}
	if size != 3 {
		t.Fatalf("merge mutated the file config")
	}
}

func TestEnvRejectsBadValue(t *testing.T) {
	if _, err := LoadEnvFrom(map[string]string{"QFLIP_HISTORY_SIZE": "many"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "qflip", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := ResolveDBPath(""); got != filepath.Join("/data", "qflip", "qflip.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}

func TestLoadEnvReadsProcessEnvironment(t *testing.T) {
	t.Setenv("QFLIP_HISTORY_SIZE", "4")
	t.Setenv("QFLIP_STORE", "false")
	t.Setenv("QFLIP_SEED", "")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if !envCfg.IsSet("HISTORY_SIZE") || envCfg.HistorySize != 4 {
		t.Fatalf("expected history size 4, got %d (set=%v)", envCfg.HistorySize, envCfg.IsSet("HISTORY_SIZE"))
	}
	if !envCfg.IsSet("STORE") || envCfg.Store {
		t.Fatalf("expected explicit store=false to count as set")
	}
	for _, name := range []string{"SEED", "FLIP_DELAY", "SETTLE_DELAY", "LOG_LEVEL"} {
		if envCfg.IsSet(name) {
			t.Fatalf("expected %s to be unset", name)
		}
	}

	size := 9
	delay := Duration{Duration: time.Second}
	merged := FileConfig{Flip: FlipConfig{HistorySize: &size, SettleDelay: &delay}}.Merge(envCfg)
	if *merged.Flip.HistorySize != 4 {
		t.Fatalf("expected env to override file history size, got %d", *merged.Flip.HistorySize)
	}
	if merged.Flip.SettleDelay == nil || merged.Flip.SettleDelay.Duration != time.Second {
		t.Fatalf("expected file settle delay to survive, got %v", merged.Flip.SettleDelay)
	}
	if merged.Flip.Store == nil || *merged.Flip.Store {
		t.Fatalf("expected store=false from env")
	}
	if merged.Flip.FlipDelay != nil || merged.Flip.Seed != nil || merged.Log.Level != nil {
		t.Fatalf("expected absent variables to leave file values unset")
	}
}

func TestLoadEnvFromEmptyMapSetsNothing(t *testing.T) {
	envCfg, err := LoadEnvFrom(map[string]string{"QFLIP_DB_PATH": "/x"})
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	for _, name := range []string{"HISTORY_SIZE", "FLIP_DELAY", "SETTLE_DELAY", "SEED", "STORE", "LOG_LEVEL"} {
		if envCfg.IsSet(name) {
			t.Fatalf("expected %s to be unset", name)
		}
	}
	if !envCfg.IsSet("DB_PATH") {
		t.Fatalf("expected DB_PATH to be set")
	}
	if merged := (FileConfig{}).Merge(envCfg); merged.Flip != (FlipConfig{}) {
		t.Fatalf("expected merge to leave flip config empty, got %+v", merged.Flip)
	}
}
