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
	p := filepath.Join(t.TempDir(), "buffstack.toml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := writeConfig(t, `
[network]
bind_address = "127.0.0.1:9000"

[negotiation]
song_window = false

[storage]
driver = "none"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.BindAddress != "127.0.0.1:9000" {
		t.Errorf("bind_address = %q", cfg.Network.BindAddress)
	}
	if cfg.Negotiation.SongWindow {
		t.Error("song_window not overridden")
	}
	if cfg.Network.TickRate != 200*time.Millisecond {
		t.Errorf("tick_rate default lost: %s", cfg.Network.TickRate)
	}
	if cfg.Data.Spells != "data/yaml/spells.yaml" {
		t.Errorf("spells default lost: %q", cfg.Data.Spells)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("StartTime not set")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	p := writeConfig(t, `
[logging]
level = "info"
`)
	t.Setenv("BUFFSTACK_LOG_LEVEL", "debug")
	t.Setenv("BUFFSTACK_STORAGE_DRIVER", "postgres")
	t.Setenv("BUFFSTACK_STORAGE_DSN", "postgres://eq@localhost/buffs")
	t.Setenv("BUFFSTACK_BUFF_TICK", "3s")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://eq@localhost/buffs" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Buffs.TickInterval != 3*time.Second {
		t.Errorf("tick_interval = %s", cfg.Buffs.TickInterval)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", "[network", "parse config"},
		{"unknown driver", "[storage]\ndriver = \"mysql\"", "storage.driver"},
		{"missing dsn", "[storage]\ndriver = \"sqlite\"\ndsn = \"\"", "storage.dsn"},
		{"bad format", "[logging]\nformat = \"xml\"", "logging.format"},
		{"tick too short", "[buffs]\ntick_interval = \"10ms\"", "buffs.tick_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected read error")
	}
}

func TestPath(t *testing.T) {
	t.Setenv(PathEnv, "")
	if Path() != DefaultPath {
		t.Errorf("Path() = %q", Path())
	}
	t.Setenv(PathEnv, "/etc/buffstack.toml")
	if Path() != "/etc/buffstack.toml" {
		t.Errorf("Path() = %q", Path())
	}
}
