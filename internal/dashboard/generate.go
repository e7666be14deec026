// Package dashboard renders a Grafana dashboard over the metrics groundctl
// exports on its admin listener.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

// DatasourceEnv names the environment variable consulted when no
// datasource UID is given.
const DatasourceEnv = "GROUNDCTL_PROM_DATASOURCE_UID"

// FileName is the name of the rendered dashboard.
const FileName = "grafana-dashboard.json"

//go:embed templates/grafana-dashboard.json.tmpl
var templateFS embed.FS

// Options parameterise the rendered dashboard.
type Options struct {
	DatasourceUID string
	Title         string
	Refresh       string
	// Job restricts every query to one scrape job when set.
	Job string
}

type panel struct {
	Type   string
	Title  string
	Unit   string
	Expr   string
	Legend string
}

type data struct {
	Options
	Panels []panel
}

func (o Options) selector(extra string) string {
	sel := extra
	if o.Job != "" {
		if sel != "" {
			sel += ","
		}
		sel += fmt.Sprintf("job=%q", o.Job)
	}
	if sel == "" {
		return ""
	}
	return "{" + sel + "}"
}

func (o Options) panels() []panel {
	return []panel{
		{"timeseries", "Requests by outcome", "reqps",
			"sum by (outcome) (rate(groundctl_api_requests_total" + o.selector("") + "[1m]))", "{{outcome}}"},
		{"timeseries", "Request latency p95", "s",
			"histogram_quantile(0.95, sum by (le, endpoint) (rate(groundctl_api_request_duration_seconds_bucket" + o.selector("") + "[5m])))", "{{endpoint}}"},
		{"timeseries", "Absent fetches", "short",
			"sum by (endpoint) (increase(groundctl_api_absent_total" + o.selector("") + "[5m]))", "{{endpoint}}"},
		{"stat", "Circuit breaker", "short",
			"max(groundctl_api_breaker_state" + o.selector("") + ")", "state"},
		{"timeseries", "Failed attempts", "short",
			"sum by (endpoint) (increase(groundctl_api_requests_total" + o.selector(`outcome!="ok"`) + "[5m]))", "{{endpoint}}"},
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.DatasourceUID == "" {
		o.DatasourceUID = os.Getenv(DatasourceEnv)
	}
	if o.DatasourceUID == "" {
		return o, fmt.Errorf("no datasource uid given and environment variable %s not set", DatasourceEnv)
	}
	if o.Title == "" {
		o.Title = "Ground Control fetcher"
	}
	if o.Refresh == "" {
		o.Refresh = "10s"
	}
	return o, nil
}

// Render writes the dashboard JSON to w.
func Render(w io.Writer, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	funcMap := template.FuncMap{
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"inc": func(i int) int { return i + 1 },
		"col": func(i int) int { return (i % 2) * 12 },
		"row": func(i int) int { return (i / 2) * 8 },
	}
	t, err := template.New("grafana-dashboard.json.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/grafana-dashboard.json.tmpl")
	if err != nil {
		return err
	}
	return t.Execute(w, data{Options: opts, Panels: opts.panels()})
}

// RenderFile writes the dashboard into outDir and returns its path.
func RenderFile(outDir string, opts Options) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, FileName)
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := Render(f, opts); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return outPath, nil
}
