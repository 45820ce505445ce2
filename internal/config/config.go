// Package config loads the hub configuration from a YAML file, applies
// command-line overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/gpio"
	"github.com/sweeney/diy-hub/internal/mqtt"
	"github.com/sweeney/diy-hub/internal/schedule"
	"github.com/sweeney/diy-hub/internal/topics"
)

// Config is the root configuration.
type Config struct {
	// Location is the hub's own location, given to peers without one.
	Location string `yaml:"location"`

	MQTT     MQTTConfig     `yaml:"mqtt"`
	Topics   TopicsConfig   `yaml:"topics"`
	Actuator ActuatorConfig `yaml:"actuator"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alert    AlertConfig    `yaml:"alert"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Peers    []topics.Peer  `yaml:"peers"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Buffer         int           `yaml:"buffer"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
}

// TopicsConfig contains the topic namespace root.
type TopicsConfig struct {
	Root string `yaml:"root"`
}

// ActuatorConfig contains the output line and pulse timing.
type ActuatorConfig struct {
	Chip          string            `yaml:"chip"`
	Pin           int               `yaml:"pin"`
	SafeMode      bool              `yaml:"safe_mode"`
	IdlePoll      time.Duration     `yaml:"idle_poll"`
	FlashDuration time.Duration     `yaml:"flash_duration"`
	Waveform      actuator.Waveform `yaml:"waveform"`
}

// ScheduleConfig contains the day/night boundaries and policy.
type ScheduleConfig struct {
	DayHour   int           `yaml:"day_hour"`
	NightHour int           `yaml:"night_hour"`
	Policy    string        `yaml:"policy"`
	Tick      time.Duration `yaml:"tick"`
}

// AlertConfig contains the mail relay settings.
type AlertConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	To       []string      `yaml:"to"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HTTPConfig contains the status server settings. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig contains logging settings. Empty File logs to stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Default returns the configuration used when no file is given.
func Default() Config {
	peers := make([]topics.Peer, len(topics.DefaultPeers))
	copy(peers, topics.DefaultPeers)

	return Config{
		Location: "diy/main/office",
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "diy-hub",
			Buffer:         mqtt.DefaultBuffer,
			ConnectTimeout: mqtt.DefaultConnectTimeout,
			RetryInterval:  mqtt.DefaultRetryInterval,
		},
		Topics: TopicsConfig{Root: topics.DefaultRoot},
		Actuator: ActuatorConfig{
			Chip:          gpio.DefaultChip,
			Pin:           gpio.DefaultPin,
			IdlePoll:      actuator.DefaultIdlePoll,
			FlashDuration: actuator.DefaultFlashDuration,
		},
		Schedule: ScheduleConfig{
			DayHour:   schedule.DefaultDayHour,
			NightHour: schedule.DefaultNightHour,
			Policy:    string(schedule.PolicyRepublish),
			Tick:      time.Second,
		},
		Alert: AlertConfig{
			Port:    alert.DefaultMailPort,
			Timeout: alert.DefaultMailTimeout,
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Peers:   peers,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// The result is not validated; call Validate after applying overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ClientID returns the configured MQTT client ID. An empty ID is replaced
// by a random one so two hubs never take over each other's session.
func (c Config) ClientID() string {
	if c.MQTT.ClientID != "" {
		return c.MQTT.ClientID
	}
	return "diy-hub-" + uuid.NewString()[:8]
}

// Waveform returns the configured waveform, or the default when unset.
func (c Config) Waveform() actuator.Waveform {
	if len(c.Actuator.Waveform) == 0 {
		return actuator.DefaultWaveform
	}
	return c.Actuator.Waveform
}

// MailConfig converts the alert section for the mailer.
func (c Config) MailConfig() alert.MailConfig {
	return alert.MailConfig{
		Host:     c.Alert.Host,
		Port:     c.Alert.Port,
		Username: c.Alert.Username,
		Password: c.Alert.Password,
		From:     c.Alert.From,
		To:       c.Alert.To,
		Timeout:  c.Alert.Timeout,
	}
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required", ErrInvalidConfig)
	}
	if c.Actuator.Pin < 0 {
		return fmt.Errorf("%w: actuator.pin must not be negative", ErrInvalidConfig)
	}
	if !c.Actuator.SafeMode && c.Actuator.Chip == "" {
		return fmt.Errorf("%w: actuator.chip is required", ErrInvalidConfig)
	}
	if err := c.Waveform().Validate(); err != nil {
		return fmt.Errorf("%w: actuator.waveform: %w", ErrInvalidConfig, err)
	}
	if err := schedule.ValidateHours(c.Schedule.DayHour, c.Schedule.NightHour); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := schedule.ParsePolicy(c.Schedule.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Schedule.Tick <= 0 {
		return fmt.Errorf("%w: schedule.tick must be positive", ErrInvalidConfig)
	}
	if c.Alert.Enabled {
		if err := c.MailConfig().Validate(); err != nil {
			return fmt.Errorf("%w: alert: %w", ErrInvalidConfig, err)
		}
	}
	seen := make(map[string]bool, len(c.Peers))
	for _, p := range c.Peers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: peers: %w", ErrInvalidConfig, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: peers: duplicate name %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
