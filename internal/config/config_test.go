package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/topics"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "diy", cfg.Topics.Root)
	assert.Equal(t, 18, cfg.Actuator.Pin)
	assert.Equal(t, 6, cfg.Schedule.DayHour)
	assert.Equal(t, 21, cfg.Schedule.NightHour)
	assert.Equal(t, "republish", cfg.Schedule.Policy)
	assert.Len(t, cfg.Peers, len(topics.DefaultPeers))
	assert.Equal(t, actuator.DefaultWaveform, cfg.Waveform())
}

func TestDefaultPeersAreCopied(t *testing.T) {
	cfg := Default()
	cfg.Peers[0].Name = "changed"
	assert.NotEqual(t, "changed", topics.DefaultPeers[0].Name)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
location: diy/upstairs/den
mqtt:
  broker: tcp://broker.lan:1883
actuator:
  pin: 23
  flash_duration: 300ms
  waveform:
    - {level: true, duration: 500ms}
    - {level: false, duration: 1s}
schedule:
  day_hour: 7
  policy: direct
peers:
  - {name: lamp, kind: light, location: diy/upstairs/den}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "diy/upstairs/den", cfg.Location)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, "diy-hub", cfg.MQTT.ClientID, "unset keys keep their default")
	assert.Equal(t, 23, cfg.Actuator.Pin)
	assert.Equal(t, 300*time.Millisecond, cfg.Actuator.FlashDuration)
	assert.Equal(t, 7, cfg.Schedule.DayHour)
	assert.Equal(t, 21, cfg.Schedule.NightHour)
	assert.Equal(t, "direct", cfg.Schedule.Policy)

	wf := cfg.Waveform()
	require.Len(t, wf, 2)
	assert.Equal(t, actuator.Step{Level: true, Duration: 500 * time.Millisecond}, wf[0])
	assert.Equal(t, 1500*time.Millisecond, wf.Period())

	require.Len(t, cfg.Peers, 1)
	assert.Equal(t, topics.KindLight, cfg.Peers[0].Kind)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "mqtt: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.MQTT.Broker = "" }},
		{"negative pin", func(c *Config) { c.Actuator.Pin = -1 }},
		{"empty chip", func(c *Config) { c.Actuator.Chip = "" }},
		{"zero step", func(c *Config) {
			c.Actuator.Waveform = actuator.Waveform{{Level: true}}
		}},
		{"day after night", func(c *Config) { c.Schedule.DayHour = 22 }},
		{"night out of range", func(c *Config) { c.Schedule.NightHour = 24 }},
		{"unknown policy", func(c *Config) { c.Schedule.Policy = "sometimes" }},
		{"zero tick", func(c *Config) { c.Schedule.Tick = 0 }},
		{"mail enabled without host", func(c *Config) {
			c.Alert.Enabled = true
			c.Alert.From = "hub@example.com"
			c.Alert.To = []string{"a@example.com"}
		}},
		{"unnamed peer", func(c *Config) {
			c.Peers = append(c.Peers, topics.Peer{Kind: topics.KindLight})
		}},
		{"duplicate peer", func(c *Config) {
			c.Peers = append(c.Peers, c.Peers[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateSafeModeAllowsEmptyChip(t *testing.T) {
	cfg := Default()
	cfg.Actuator.Chip = ""
	cfg.Actuator.SafeMode = true
	assert.NoError(t, cfg.Validate())
}

func TestValidateMailWrapsMailError(t *testing.T) {
	cfg := Default()
	cfg.Alert.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, alert.ErrMailConfig)
}

func TestClientID(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "diy-hub", cfg.ClientID())

	cfg.MQTT.ClientID = ""
	require.NoError(t, cfg.Validate())
	a, b := cfg.ClientID(), cfg.ClientID()
	assert.True(t, strings.HasPrefix(a, "diy-hub-"))
	assert.Len(t, a, len("diy-hub-")+8)
	assert.NotEqual(t, a, b)
}

func TestMailConfig(t *testing.T) {
	cfg := Default()
	cfg.Alert.Host = "smtp.example.com"
	cfg.Alert.From = "hub@example.com"
	cfg.Alert.To = []string{"a@example.com", "b@example.com"}

	mc := cfg.MailConfig()
	assert.Equal(t, "smtp.example.com", mc.Host)
	assert.Equal(t, alert.DefaultMailPort, mc.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mc.To)
}

func TestOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-config", "/etc/diy-hub.yaml",
		"-broker", "tcp://10.0.0.2:1883",
		"-location", "diy/garage",
		"-log-level", "debug",
		"-http", ":9090",
		"-safe-mode",
	}))
	assert.Equal(t, "/etc/diy-hub.yaml", o.ConfigFile)

	cfg := Default()
	o.Apply(&cfg)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.MQTT.Broker)
	assert.Equal(t, "diy/garage", cfg.Location)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Actuator.SafeMode)
}

func TestOverridesUnsetLeaveFileValues(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Broker = "tcp://from-file:1883"
	Overrides{}.Apply(&cfg)
	assert.Equal(t, "tcp://from-file:1883", cfg.MQTT.Broker)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.Actuator.SafeMode)
}

func TestOverridesHTTPOff(t *testing.T) {
	cfg := Default()
	Overrides{HTTPAddr: "off"}.Apply(&cfg)
	assert.Empty(t, cfg.HTTP.Addr)
}
