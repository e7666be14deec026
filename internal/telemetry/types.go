// Record types published by the observation API
package telemetry

// RoverStatus is the connection state reported for a rover.
type RoverStatus string

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

// RoverState is the operational state carried in telemetry samples.
type RoverState string

// Rover status constants.
const (
	RoverActive   RoverStatus = "active"
	RoverInactive RoverStatus = "inactive"
)

// Mission status constants.
const (
	MissionInProgress MissionStatus = "in_progress"
	MissionCompleted  MissionStatus = "completed"
)

// Rover operational state constants.
const (
	StateIdle      RoverState = "idle"
	StateInMission RoverState = "in_mission"
	StateReturning RoverState = "returning"
	StateCharging  RoverState = "charging"
	StateError     RoverState = "error"
)

// StatusSnapshot is the fleet summary returned under the "system" key.
type StatusSnapshot struct {
	Timestamp int64          `json:"timestamp"`
	Rovers    RoverCounts    `json:"rovers"`
	Missions  MissionCounts  `json:"missions"`
	Telemetry TelemetryCount `json:"telemetry"`
}

// RoverCounts holds connected rover totals.
type RoverCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// MissionCounts holds mission totals by state.
type MissionCounts struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// TelemetryCount holds telemetry session totals.
type TelemetryCount struct {
	Sessions int `json:"sessions"`
	Active   int `json:"active"`
}

// Rover is one entry of the rover list. Fields the list view does not show
// are left to RoverDetail.
type Rover struct {
	ID        string      `json:"id"`
	Status    RoverStatus `json:"status"`
	Battery   float64     `json:"battery"`
	Progress  float64     `json:"progress"`
	MissionID *string     `json:"mission_id"`
}

// Mission is one entry of the mission list.
type Mission struct {
	ID       string        `json:"id"`
	RoverID  string        `json:"rover_id"`
	TaskType string        `json:"task_type"`
	Progress float64       `json:"progress"`
	Status   MissionStatus `json:"status"`
}

// Area is the rectangular work zone assigned to a mission.
type Area struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Position is a rover's planar coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sample is the latest telemetry reported by one rover.
type Sample struct {
	RoverID        string     `json:"rover_id"`
	Position       Position   `json:"position"`
	Battery        float64    `json:"battery"`
	Temperature    float64    `json:"temperature"`
	SignalStrength float64    `json:"signal_strength"`
	State          RoverState `json:"state"`
	LastUpdateAgo  *int64     `json:"last_update_ago,omitempty"`
}

// RoverDetail is returned by /rovers/{id}.
type RoverDetail struct {
	ID             string      `json:"id"`
	Status         RoverStatus `json:"status"`
	Battery        float64     `json:"battery"`
	Progress       float64     `json:"progress"`
	CurrentMission string      `json:"current_mission"`
	CurrentTask    string      `json:"current_task"`
	LastSequence   int64       `json:"last_sequence"`
	LastUpdateAgo  int64       `json:"last_update_ago"`
	Address        string      `json:"address"`
}

// MissionDetail is returned by /missions/{id}.
type MissionDetail struct {
	ID                 string        `json:"id"`
	RoverID            string        `json:"rover_id"`
	TaskType           string        `json:"task_type"`
	Progress           float64       `json:"progress"`
	Battery            float64       `json:"battery"`
	Status             MissionStatus `json:"status"`
	Area               Area          `json:"area"`
	DurationMaxSeconds int64         `json:"duration_max_seconds"`
	StartTime          string        `json:"start_time"`
	UpdatesReceived    int           `json:"updates_received"`
}

// LowBatteryThreshold is the highest battery percentage still shown as low.
const LowBatteryThreshold = 30
