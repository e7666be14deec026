package view

import (
	"fmt"
	"strconv"

	"groundctl/internal/telemetry"
)

// DescribeRover renders the per-rover endpoint as a key/value listing.
func DescribeRover(d telemetry.RoverDetail) Result {
	return Result{
		Category: telemetry.CategoryRovers,
		State:    Ready,
		Title:    "ROVER " + d.ID,
		Rows: [][]Cell{
			{{Text: "Status"}, {Text: string(d.Status), Tone: roverStatusTone(d.Status)}},
			{{Text: "Battery"}, {Text: Percent(d.Battery), Tone: BatteryTone(d.Battery)}},
			{{Text: "Progress"}, {Text: Percent(d.Progress)}},
			{{Text: "Mission"}, {Text: orDash(d.CurrentMission)}},
			{{Text: "Task"}, {Text: orDash(d.CurrentTask)}},
			{{Text: "Last sequence"}, {Text: strconv.FormatInt(d.LastSequence, 10)}},
			{{Text: "Last update"}, {Text: fmt.Sprintf("%ds ago", d.LastUpdateAgo)}},
			{{Text: "Address"}, {Text: orDash(d.Address)}},
		},
	}
}

// DescribeMission renders the per-mission endpoint as a key/value listing.
func DescribeMission(d telemetry.MissionDetail) Result {
	a := d.Area
	return Result{
		Category: telemetry.CategoryMissions,
		State:    Ready,
		Title:    "MISSION " + d.ID,
		Rows: [][]Cell{
			{{Text: "Rover"}, {Text: d.RoverID}},
			{{Text: "Task"}, {Text: d.TaskType}},
			{{Text: "Status"}, missionStatusCell(d.Status)},
			{{Text: "Progress"}, {Text: Percent(d.Progress)}},
			{{Text: "Battery"}, {Text: Percent(d.Battery), Tone: BatteryTone(d.Battery)}},
			{{Text: "Area"}, {Text: fmt.Sprintf("(%.1f, %.1f) - (%.1f, %.1f)", a.X1, a.Y1, a.X2, a.Y2)}},
			{{Text: "Max duration"}, {Text: fmt.Sprintf("%ds", d.DurationMaxSeconds)}},
			{{Text: "Started"}, {Text: orDash(d.StartTime)}},
			{{Text: "Updates"}, {Text: strconv.Itoa(d.UpdatesReceived)}},
		},
	}
}

// DescribeSample renders one rover's latest telemetry as a key/value listing.
func DescribeSample(s telemetry.Sample) Result {
	rows := [][]Cell{
		{{Text: "Position"}, {Text: FormatPosition(s.Position)}},
		{{Text: "Battery"}, {Text: Percent(s.Battery), Tone: BatteryTone(s.Battery)}},
		{{Text: "Temperature"}, {Text: fmt.Sprintf("%.1f°C", s.Temperature)}},
		{{Text: "Signal"}, {Text: Percent(s.SignalStrength)}},
		{{Text: "State"}, {Text: string(s.State), Tone: StateTone(s.State)}},
	}
	if s.LastUpdateAgo != nil {
		rows = append(rows, []Cell{{Text: "Last update"}, {Text: fmt.Sprintf("%ds ago", *s.LastUpdateAgo)}})
	}
	return Result{
		Category: telemetry.CategoryTelemetry,
		State:    Ready,
		Title:    "TELEMETRY " + s.RoverID,
		Rows:     rows,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
