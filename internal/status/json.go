package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Actuator      ActuatorJSON `json:"actuator"`
	DayNight      string       `json:"day_night"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Last          *LastJSON    `json:"last_message,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ActuatorJSON reports the pulse state machine.
type ActuatorJSON struct {
	Mode      string `json:"mode"`
	Silent    bool   `json:"silent"`
	Condition string `json:"condition"`
	Phase     int    `json:"phase"`
	Faults    int64  `json:"faults"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of running totals.
type CountsJSON struct {
	Messages      int `json:"messages"`
	Flashes       int `json:"flashes"`
	Alerts        int `json:"alerts"`
	AlertFailures int `json:"alert_failures"`
	Announcements int `json:"announcements"`
	Transitions   int `json:"transitions"`
}

// LastJSON is the JSON representation of the last routed message.
type LastJSON struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
	Action  string `json:"action"`
	At      string `json:"at"`
}

// ConfigJSON is the JSON representation of hub config.
type ConfigJSON struct {
	Broker    string `json:"broker"`
	Root      string `json:"root"`
	Location  string `json:"location"`
	Pin       int    `json:"pin"`
	SafeMode  bool   `json:"safe_mode"`
	Policy    string `json:"policy"`
	DayHour   int    `json:"day_hour"`
	NightHour int    `json:"night_hour"`
	HTTPAddr  string `json:"http_addr"`
	Peers     int    `json:"peers"`
	Steps     int    `json:"waveform_steps"`
	PeriodMs  int64  `json:"waveform_period_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Actuator: ActuatorJSON{
			Mode:      snap.Actuator.Mode.String(),
			Silent:    snap.Actuator.Silent,
			Condition: string(snap.Actuator.Condition()),
			Phase:     snap.Actuator.Phase,
			Faults:    snap.Actuator.Faults,
		},
		DayNight:      snap.DayNight.String(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Messages:      snap.Counts.Messages,
			Flashes:       snap.Counts.Flashes,
			Alerts:        snap.Counts.Alerts,
			AlertFailures: snap.Counts.AlertFailures,
			Announcements: snap.Counts.Announcements,
			Transitions:   snap.Counts.Transitions,
		},
		Config: ConfigJSON{
			Broker:    snap.Config.Broker,
			Root:      snap.Config.Root,
			Location:  snap.Config.Location,
			Pin:       snap.Config.Pin,
			SafeMode:  snap.Config.SafeMode,
			Policy:    snap.Config.Policy,
			DayHour:   snap.Config.DayHour,
			NightHour: snap.Config.NightHour,
			HTTPAddr:  snap.Config.HTTPAddr,
			Peers:     snap.Config.Peers,
			Steps:     snap.Config.Steps,
			PeriodMs:  snap.Config.Period.Milliseconds(),
		},
	}
	if snap.Last != nil {
		inner.Last = &LastJSON{
			Topic:   snap.Last.Topic,
			Payload: snap.Last.Payload,
			Action:  string(snap.Last.Action),
			At:      snap.Last.At.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
