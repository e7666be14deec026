package api

import (
	"context"
	"encoding/json"
	"fmt"

	"groundctl/internal/telemetry"
)

// Rover fetches /rovers/{id}. A missing rover yields ErrNotFound.
func (c *Client) Rover(ctx context.Context, id string) (telemetry.RoverDetail, error) {
	raw, err := c.section(ctx, telemetry.RoverEndpoint(id), "rover")
	if err != nil {
		return telemetry.RoverDetail{}, err
	}
	r, err := telemetry.DecodeRoverDetail(raw)
	if err != nil {
		return telemetry.RoverDetail{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return r, nil
}

// Mission fetches /missions/{id}.
func (c *Client) Mission(ctx context.Context, id string) (telemetry.MissionDetail, error) {
	raw, err := c.section(ctx, telemetry.MissionEndpoint(id), "mission")
	if err != nil {
		return telemetry.MissionDetail{}, err
	}
	m, err := telemetry.DecodeMissionDetail(raw)
	if err != nil {
		return telemetry.MissionDetail{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return m, nil
}

// RoverTelemetry fetches /telemetry/{roverID}.
func (c *Client) RoverTelemetry(ctx context.Context, roverID string) (telemetry.Sample, error) {
	raw, err := c.section(ctx, telemetry.RoverTelemetryEndpoint(roverID), "telemetry")
	if err != nil {
		return telemetry.Sample{}, err
	}
	s, err := telemetry.DecodeSample(raw)
	if err != nil {
		return telemetry.Sample{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return s, nil
}

func (c *Client) section(ctx context.Context, ep telemetry.Endpoint, key string) (json.RawMessage, error) {
	body, err := c.Get(ctx, ep)
	if err != nil {
		return nil, err
	}
	raw, err := telemetry.Section(body, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return raw, nil
}
