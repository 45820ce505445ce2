package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/config"
	"github.com/sweeney/diy-hub/internal/gpio"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker: got %q, want tcp://localhost:1883", cfg.MQTT.Broker)
	}
	if cfg.Actuator.SafeMode {
		t.Error("expected safe mode off by default")
	}
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.yaml")
	data := []byte("mqtt:\n  broker: tcp://file:1883\nschedule:\n  night_hour: 22\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig([]string{"-config", path, "-broker", "tcp://flag:1883", "-safe-mode"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://flag:1883" {
		t.Errorf("Broker: got %q, flag should win over file", cfg.MQTT.Broker)
	}
	if cfg.Schedule.NightHour != 22 {
		t.Errorf("NightHour: got %d, want 22", cfg.Schedule.NightHour)
	}
	if !cfg.Actuator.SafeMode {
		t.Error("expected safe mode from flag")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.yaml")
	if err := os.WriteFile(path, []byte("schedule:\n  day_hour: 23\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := loadConfig([]string{"-config", path})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigUnknownFlag(t *testing.T) {
	if _, err := loadConfig([]string{"-poll", "1s"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestNewWriterSafeMode(t *testing.T) {
	cfg := config.Default()
	cfg.Actuator.SafeMode = true

	w, err := newWriter(cfg)
	if err != nil {
		t.Fatalf("newWriter: %v", err)
	}
	if _, ok := w.(gpio.NullWriter); !ok {
		t.Errorf("got %T, want gpio.NullWriter", w)
	}
	if err := w.Write(true); err != nil {
		t.Errorf("Write: %v", err)
	}
}

func TestNewNotifierDisabled(t *testing.T) {
	n, err := newNotifier(config.Default())
	if err != nil {
		t.Fatalf("newNotifier: %v", err)
	}
	if _, ok := n.(alert.Disabled); !ok {
		t.Errorf("got %T, want alert.Disabled", n)
	}
}

func TestNewNotifierMailer(t *testing.T) {
	cfg := config.Default()
	cfg.Alert.Enabled = true
	cfg.Alert.Host = "smtp.example.com"
	cfg.Alert.From = "hub@example.com"
	cfg.Alert.To = []string{"a@example.com"}

	n, err := newNotifier(cfg)
	if err != nil {
		t.Fatalf("newNotifier: %v", err)
	}
	if _, ok := n.(*alert.Mailer); !ok {
		t.Errorf("got %T, want *alert.Mailer", n)
	}
}

func TestStatusConfig(t *testing.T) {
	cfg := config.Default()
	sc := statusConfig(cfg)

	if sc.Steps != 18 {
		t.Errorf("Steps: got %d, want 18", sc.Steps)
	}
	if sc.Period != 9600*time.Millisecond {
		t.Errorf("Period: got %v, want 9.6s", sc.Period)
	}
	if sc.Peers != len(cfg.Peers) {
		t.Errorf("Peers: got %d, want %d", sc.Peers, len(cfg.Peers))
	}
	if sc.Policy != "republish" {
		t.Errorf("Policy: got %q, want republish", sc.Policy)
	}
}

func TestRunMainBadFlag(t *testing.T) {
	if code := runMain([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
}

func TestRunMainFailureFlushesLog(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	dir := t.TempDir()
	logPath := filepath.Join(dir, "hub.log")
	cfgPath := filepath.Join(dir, "hub.yaml")
	data := []byte("actuator:\n  chip: no-such-chip\nlogging:\n  file: " + logPath + "\n")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if code := runMain([]string{"-config", cfgPath, "-http", "off"}); code != 1 {
		t.Fatalf("exit code: got %d, want 1", code)
	}

	got, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(got), "init gpio") {
		t.Errorf("log file missing the failure, got %q", got)
	}
}
