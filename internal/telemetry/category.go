package telemetry

import (
	"fmt"
	"net/url"
	"strings"
)

// Category is an independently fetched and rendered data group.
type Category int

// Categories in display order.
const (
	CategoryStatus Category = iota
	CategoryRovers
	CategoryMissions
	CategoryTelemetry
)

// Categories lists every category in the fixed cycle order.
var Categories = []Category{CategoryStatus, CategoryRovers, CategoryMissions, CategoryTelemetry}

// Endpoint is an API path relative to the base URL.
type Endpoint string

// List endpoints polled by the dashboard.
const (
	EndpointStatus    Endpoint = "/system/status"
	EndpointRovers    Endpoint = "/rovers"
	EndpointMissions  Endpoint = "/missions"
	EndpointTelemetry Endpoint = "/telemetry/latest"
)

var categoryInfo = [...]struct {
	name     string
	endpoint Endpoint
	key      string
}{
	CategoryStatus:    {"status", EndpointStatus, "system"},
	CategoryRovers:    {"rovers", EndpointRovers, "rovers"},
	CategoryMissions:  {"missions", EndpointMissions, "missions"},
	CategoryTelemetry: {"telemetry", EndpointTelemetry, "telemetry"},
}

func (c Category) valid() bool { return c >= 0 && int(c) < len(categoryInfo) }

// String returns the lower-case category name.
func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryInfo[c].name
}

// Endpoint returns the list endpoint polled for the category.
func (c Category) Endpoint() Endpoint {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].endpoint
}

// Key returns the top-level JSON key that carries the category's data.
func (c Category) Key() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].key
}

// ParseCategory resolves a category by name.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, info := range categoryInfo {
		if info.name == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// RoverEndpoint returns the per-rover status endpoint.
func RoverEndpoint(id string) Endpoint {
	return Endpoint("/rovers/" + url.PathEscape(id))
}

// MissionEndpoint returns the per-mission status endpoint.
func MissionEndpoint(id string) Endpoint {
	return Endpoint("/missions/" + url.PathEscape(id))
}

// RoverTelemetryEndpoint returns the per-rover telemetry endpoint.
func RoverTelemetryEndpoint(roverID string) Endpoint {
	return Endpoint("/telemetry/" + url.PathEscape(roverID))
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
