package config

import (
	"flag"
)

// Overrides are the command-line values that take precedence over the file.
// Empty strings and false leave the file value alone.
type Overrides struct {
	ConfigFile string
	Broker     string
	Location   string
	LogLevel   string
	HTTPAddr   string
	SafeMode   bool
}

// RegisterFlags binds the override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.ConfigFile, "config", "", "Path to YAML config file")
	fs.StringVar(&o.Broker, "broker", "", "MQTT broker address (overrides mqtt.broker)")
	fs.StringVar(&o.Location, "location", "", "Hub location topic (overrides location)")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides logging.level)")
	fs.StringVar(&o.HTTPAddr, "http", "", `HTTP status address (overrides http.addr, "off" disables)`)
	fs.BoolVar(&o.SafeMode, "safe-mode", false, "Never touch GPIO (overrides actuator.safe_mode)")
	return o
}

// Apply writes the set overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Broker != "" {
		cfg.MQTT.Broker = o.Broker
	}
	if o.Location != "" {
		cfg.Location = o.Location
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	switch o.HTTPAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = o.HTTPAddr
	}
	if o.SafeMode {
		cfg.Actuator.SafeMode = true
	}
}
