package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingKey reports a payload without the expected top-level key.
	ErrMissingKey = errors.New("missing top-level key")
	// ErrNotList reports a category key that does not hold an array.
	ErrNotList = errors.New("category is not a list")
	// ErrMalformedRecord reports a record that cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrMissingField reports a record without one of its required fields.
	ErrMissingField = errors.New("missing field")
)

var nullLiteral = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}

// Section extracts the value stored under key in a top-level JSON object.
// A nil payload, a non-object payload and a null value all yield ErrMissingKey.
func Section(payload json.RawMessage, key string) (json.RawMessage, error) {
	if isNull(payload) {
		return nil, ErrMissingKey
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingKey, err)
	}
	v, ok := doc[key]
	if !ok || isNull(v) {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

// Items splits a JSON array into its raw elements, preserving order.
func Items(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotList, err)
	}
	return items, nil
}

// decodeRecord unmarshals raw into dst after checking that every required
// field is present and not null.
func decodeRecord(raw json.RawMessage, dst any, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: null record", ErrMalformedRecord)
	}
	for _, name := range required {
		if v, ok := fields[name]; !ok || isNull(v) {
			return fmt.Errorf("%w: %w %q", ErrMalformedRecord, ErrMissingField, name)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return nil
}

// UnmarshalJSON requires both coordinates.
func (p *Position) UnmarshalJSON(b []byte) error {
	type plain Position
	var v plain
	if err := decodeRecord(b, &v, "x", "y"); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	*p = Position(v)
	return nil
}

// DecodeStatus decodes the value of the "system" key.
func DecodeStatus(raw json.RawMessage) (StatusSnapshot, error) {
	var s StatusSnapshot
	err := decodeRecord(raw, &s, "timestamp", "rovers", "missions", "telemetry")
	return s, err
}

// DecodeRover decodes one rover list entry.
func DecodeRover(raw json.RawMessage) (Rover, error) {
	var r Rover
	err := decodeRecord(raw, &r, "id", "status", "battery", "progress")
	return r, err
}

// DecodeMission decodes one mission list entry.
func DecodeMission(raw json.RawMessage) (Mission, error) {
	var m Mission
	err := decodeRecord(raw, &m, "id", "rover_id", "task_type", "progress", "status")
	return m, err
}

// DecodeSample decodes one telemetry sample.
func DecodeSample(raw json.RawMessage) (Sample, error) {
	var s Sample
	err := decodeRecord(raw, &s, "rover_id", "position", "battery", "temperature", "signal_strength", "state")
	return s, err
}

// DecodeRoverDetail decodes the value of the "rover" key.
func DecodeRoverDetail(raw json.RawMessage) (RoverDetail, error) {
	var r RoverDetail
	err := decodeRecord(raw, &r, "id", "status", "battery", "progress")
	return r, err
}

// DecodeMissionDetail decodes the value of the "mission" key.
func DecodeMissionDetail(raw json.RawMessage) (MissionDetail, error) {
	var m MissionDetail
	err := decodeRecord(raw, &m, "id", "rover_id", "task_type", "progress", "status")
	return m, err
}
