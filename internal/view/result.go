// Package view turns fetched payloads into display results and formats them
// for the terminal.
package view

import (
	"time"

	"groundctl/internal/telemetry"
)

// State describes what a category view was able to show.
type State int

const (
	// Waiting means the payload was absent or lacked the category key.
	Waiting State = iota
	// Empty means the key was present but held no records.
	Empty
	// Ready means at least one record was rendered.
	Ready
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// MarshalText lets results be served as JSON with readable states.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Tone is the presentation class of a cell. Formatters map tones to colours.
type Tone int

const (
	ToneDefault Tone = iota
	ToneGood
	ToneWarn
	ToneAlert
	ToneIdle
	ToneInfo
)

// Cell is one table cell.
type Cell struct {
	Text string `json:"text"`
	Tone Tone   `json:"-"`
}

// Result is the outcome of rendering one category.
type Result struct {
	Category telemetry.Category `json:"category"`
	State    State              `json:"state"`
	Title    string             `json:"title,omitempty"`
	// Headers is nil for key/value listings.
	Headers []string `json:"headers,omitempty"`
	Rows    [][]Cell `json:"rows,omitempty"`
	Skipped int      `json:"skipped,omitempty"`
	Notice  string   `json:"notice,omitempty"`
}

// OK reports whether the view showed real data.
func (r Result) OK() bool {
	return r.State == Ready
}

// Texts returns the cell texts without presentation tones.
func (r Result) Texts() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		texts := make([]string, len(row))
		for j, c := range row {
			texts[j] = c.Text
		}
		out[i] = texts
	}
	return out
}

// Frame is everything drawn for one refresh cycle.
type Frame struct {
	Cycle     string    `json:"cycle"`
	Time      time.Time `json:"time"`
	Progress  string    `json:"progress,omitempty"`
	Results   []Result  `json:"results"`
	Available bool      `json:"available"`
}

// Banner texts shared by every display.
const (
	AwaitingBanner = "Awaiting data from mothership..."
	StoppedNotice  = "Live refresh stopped"
	EndedNotice    = "Monitoring ended"
)
