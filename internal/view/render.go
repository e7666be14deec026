package view

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"groundctl/internal/telemetry"
)

const timestampLayout = "2006-01-02 15:04:05"

// Notices shown instead of a table.
const (
	NoticeNoStatus         = "No system data"
	NoticeWaitingRovers    = "Waiting for rover data..."
	NoticeNoRovers         = "No rovers connected"
	NoticeWaitingMissions  = "Waiting for mission data..."
	NoticeNoMissions       = "No missions created"
	NoticeWaitingTelemetry = "Waiting for telemetry data..."
	NoticeNoTelemetry      = "No telemetry received"
)

// Render dispatches payload to the renderer of cat.
func Render(cat telemetry.Category, payload json.RawMessage) Result {
	switch cat {
	case telemetry.CategoryStatus:
		return RenderStatus(payload)
	case telemetry.CategoryRovers:
		return RenderRovers(payload)
	case telemetry.CategoryMissions:
		return RenderMissions(payload)
	case telemetry.CategoryTelemetry:
		return RenderTelemetry(payload)
	}
	return Result{Category: cat, State: Waiting, Notice: fmt.Sprintf("Unknown category %s", cat)}
}

// RenderStatus renders the "system" summary as a key/value listing.
func RenderStatus(payload json.RawMessage) Result {
	res := Result{Category: telemetry.CategoryStatus, State: Waiting, Notice: NoticeNoStatus}
	raw, err := telemetry.Section(payload, telemetry.CategoryStatus.Key())
	if err != nil {
		return res
	}
	s, err := telemetry.DecodeStatus(raw)
	if err != nil {
		res.Skipped = 1
		return res
	}
	return Result{
		Category: telemetry.CategoryStatus,
		State:    Ready,
		Title:    "SYSTEM STATUS",
		Rows: [][]Cell{
			{{Text: "Timestamp"}, {Text: time.Unix(s.Timestamp, 0).Format(timestampLayout)}},
			{{Text: "Rovers"}, {Text: fmt.Sprintf("%d/%d active", s.Rovers.Active, s.Rovers.Total)}},
			{{Text: "Missions"}, {Text: fmt.Sprintf("%d in progress, %d completed", s.Missions.InProgress, s.Missions.Completed)}},
			{{Text: "Telemetry"}, {Text: fmt.Sprintf("%d/%d sessions active", s.Telemetry.Active, s.Telemetry.Sessions)}},
		},
	}
}

// RenderRovers renders the rover list.
func RenderRovers(payload json.RawMessage) Result {
	return renderList(payload, listSpec[telemetry.Rover]{
		category: telemetry.CategoryRovers,
		headers:  []string{"ID", "Status", "Battery", "Progress", "Mission"},
		title:    func(n int) string { return fmt.Sprintf("CONNECTED ROVERS (%d)", n) },
		waiting:  NoticeWaitingRovers,
		empty:    NoticeNoRovers,
		decode:   telemetry.DecodeRover,
		row: func(r telemetry.Rover) []Cell {
			mission := "-"
			if r.MissionID != nil && *r.MissionID != "" {
				mission = *r.MissionID
			}
			return []Cell{
				{Text: r.ID},
				{Text: string(r.Status), Tone: roverStatusTone(r.Status)},
				{Text: Percent(r.Battery), Tone: BatteryTone(r.Battery)},
				{Text: Percent(r.Progress)},
				{Text: mission},
			}
		},
	})
}

// RenderMissions renders the mission list.
func RenderMissions(payload json.RawMessage) Result {
	return renderList(payload, listSpec[telemetry.Mission]{
		category: telemetry.CategoryMissions,
		headers:  []string{"ID", "Rover", "Task", "Progress", "Status"},
		title:    func(n int) string { return fmt.Sprintf("MISSIONS (Total: %d)", n) },
		waiting:  NoticeWaitingMissions,
		empty:    NoticeNoMissions,
		decode:   telemetry.DecodeMission,
		row: func(m telemetry.Mission) []Cell {
			return []Cell{
				{Text: m.ID},
				{Text: m.RoverID},
				{Text: m.TaskType},
				{Text: Percent(m.Progress)},
				missionStatusCell(m.Status),
			}
		},
	})
}

// RenderTelemetry renders the latest telemetry sample of every rover.
func RenderTelemetry(payload json.RawMessage) Result {
	return renderList(payload, listSpec[telemetry.Sample]{
		category: telemetry.CategoryTelemetry,
		headers:  []string{"Rover", "Position", "Battery", "Temp", "Signal", "State"},
		title:    func(n int) string { return fmt.Sprintf("TELEMETRY (Total: %d rovers)", n) },
		waiting:  NoticeWaitingTelemetry,
		empty:    NoticeNoTelemetry,
		decode:   telemetry.DecodeSample,
		row: func(s telemetry.Sample) []Cell {
			return []Cell{
				{Text: s.RoverID},
				{Text: FormatPosition(s.Position)},
				{Text: Percent(s.Battery), Tone: BatteryTone(s.Battery)},
				{Text: fmt.Sprintf("%.1f°C", s.Temperature)},
				{Text: Percent(s.SignalStrength)},
				{Text: string(s.State), Tone: StateTone(s.State)},
			}
		},
	})
}

type listSpec[T any] struct {
	category telemetry.Category
	headers  []string
	title    func(n int) string
	waiting  string
	empty    string
	decode   func(json.RawMessage) (T, error)
	row      func(T) []Cell
}

// renderList applies the shared list contract: a missing key or non-list
// value is Waiting, an empty list is Empty, and records that fail to decode
// are skipped and counted.
func renderList[T any](payload json.RawMessage, spec listSpec[T]) Result {
	res := Result{Category: spec.category, State: Waiting, Notice: spec.waiting}
	raw, err := telemetry.Section(payload, spec.category.Key())
	if err != nil {
		return res
	}
	items, err := telemetry.Items(raw)
	if err != nil {
		return res
	}
	if len(items) == 0 {
		res.State = Empty
		res.Notice = spec.empty
		return res
	}

	rows := make([][]Cell, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, err := spec.decode(item)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, spec.row(rec))
	}
	if len(rows) == 0 {
		res.Skipped = skipped
		return res
	}
	return Result{
		Category: spec.category,
		State:    Ready,
		Title:    spec.title(len(rows)),
		Headers:  spec.headers,
		Rows:     rows,
		Skipped:  skipped,
	}
}

// Percent formats v with the shortest exact representation and a % suffix.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatPosition formats a planar coordinate with one decimal.
func FormatPosition(p telemetry.Position) string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// BatteryTone highlights batteries at or below the low threshold.
func BatteryTone(b float64) Tone {
	if b <= telemetry.LowBatteryThreshold {
		return ToneAlert
	}
	return ToneGood
}

// StateTone colour-codes a rover's operational state.
func StateTone(s telemetry.RoverState) Tone {
	switch s {
	case telemetry.StateIdle:
		return ToneIdle
	case telemetry.StateInMission:
		return ToneWarn
	case telemetry.StateReturning:
		return ToneInfo
	case telemetry.StateCharging:
		return ToneGood
	case telemetry.StateError:
		return ToneAlert
	}
	return ToneDefault
}

func roverStatusTone(s telemetry.RoverStatus) Tone {
	switch s {
	case telemetry.RoverActive:
		return ToneGood
	case telemetry.RoverInactive:
		return ToneAlert
	}
	return ToneDefault
}

func missionStatusCell(s telemetry.MissionStatus) Cell {
	switch s {
	case telemetry.MissionCompleted:
		return Cell{Text: "completed", Tone: ToneGood}
	case telemetry.MissionInProgress:
		return Cell{Text: "in progress", Tone: ToneWarn}
	}
	return Cell{Text: string(s)}
}
