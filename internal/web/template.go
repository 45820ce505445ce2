package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/diy-hub/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"conditionClass": func(c string) string {
		switch c {
		case "ACTIVE":
			return "on"
		case "SILENCED":
			return "silenced"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>DIY Hub</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: red; font-weight: bold; }
.off { color: #888; }
.silenced { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DIY Hub</h1>

<h2>Actuator</h2>
<table>
<tr><th>Condition</th><td id="condition" class="{{conditionClass (printf "%s" .Actuator.Condition)}}">{{.Actuator.Condition}}</td></tr>
<tr><th>Mode</th><td>{{.Actuator.Mode}}</td></tr>
<tr><th>Silent</th><td>{{if .Actuator.Silent}}yes{{else}}no{{end}}</td></tr>
<tr><th>Phase</th><td>{{.Actuator.Phase}} / {{.Config.Steps}}</td></tr>
<tr><th>Faults</th><td>{{.Actuator.Faults}}</td></tr>
<tr><th>Day/Night</th><td id="day-night">{{.DayNight}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Location</th><td>{{.Config.Location}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Messages</th><td>{{.Counts.Messages}}</td></tr>
<tr><th>Flashes</th><td>{{.Counts.Flashes}}</td></tr>
<tr><th>Alerts</th><td>{{.Counts.Alerts}}</td></tr>
<tr><th>Alert failures</th><td>{{.Counts.AlertFailures}}</td></tr>
<tr><th>Announcements</th><td>{{.Counts.Announcements}}</td></tr>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
</table>
{{with .Last}}
<h2>Last Message</h2>
<table>
<tr><th>Topic</th><td id="last-topic">{{.Topic}}</td></tr>
<tr><th>Payload</th><td>{{.Payload}}</td></tr>
<tr><th>Action</th><td>{{.Action}}</td></tr>
<tr><th>At</th><td>{{.At.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>
{{end}}
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Topic root</th><td>{{.Config.Root}}</td></tr>
<tr><th>GPIO pin</th><td>{{.Config.Pin}}{{if .Config.SafeMode}} (safe mode){{end}}</td></tr>
<tr><th>Waveform</th><td>{{.Config.Steps}} steps, {{.Config.Period}}</td></tr>
<tr><th>Schedule</th><td>day {{.Config.DayHour}}:00, night {{.Config.NightHour}}:00, {{.Config.Policy}}</td></tr>
<tr><th>Peers</th><td>{{.Config.Peers}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
