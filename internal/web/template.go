package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/beep-relay/internal/status"
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
	"verdictClass": func(v string) string {
		if v == "VALID" {
			return "valid"
		}
		return "ignored"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Beep Relay</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.listening, .valid, .connected { color: green; font-weight: bold; }
.gated, .ignored { color: orange; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Beep Relay</h1>

<h2>State</h2>
<table>
<tr><th>Microphone</th>{{if .Gate.Closed}}<td class="gated">gated until {{.Gate.ReopenAtMs}}ms</td>{{else}}<td class="listening">listening</td>{{end}}</tr>
<tr><th>In beep</th><td>{{if .Event.InEvent}}yes (since {{.Event.StartMs}}ms){{else}}no{{end}}</td></tr>
{{with .LastBeep}}<tr><th>Last beep</th><td class="{{verdictClass (printf "%s" .Beep.Verdict)}}">{{.Beep.Verdict}} {{.Beep.DurationMs}}ms peak {{.Beep.Peak}} at {{.At.UTC.Format "15:04:05"}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Beep Counts</h2>
<table>
<tr><th>Detected</th><td>{{.Counts.Detected}}</td></tr>
<tr><th>Replayed</th><td>{{.Counts.Replayed}}</td></tr>
<tr><th>Too short</th><td>{{.Counts.TooShort}}</td></tr>
<tr><th>Too long</th><td>{{.Counts.TooLong}}</td></tr>
<tr><th>Mic re-enabled</th><td>{{.Counts.GateReopened}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if .BootID}}<tr><th>Boot ID</th><td>{{.BootID}}</td></tr>{{end}}
<tr><th>Backends</th><td>{{.Config.Input}} &rarr; {{.Config.Output}}</td></tr>
<tr><th>Sample interval</th><td>{{.Config.SampleIntervalMs}}ms</td></tr>
<tr><th>Threshold</th><td>{{.Config.Threshold}}</td></tr>
<tr><th>Valid length</th><td>{{.Config.MinBeepMs}}&ndash;{{.Config.MaxBeepMs}}ms</td></tr>
<tr><th>Replay tone</th><td>{{.Config.ReplayFreqHz}}Hz</td></tr>
<tr><th>Mic disable delay</th><td>{{.Config.MicDisableDelayMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
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
