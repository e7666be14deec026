// Package ui hosts the interactive menu.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"groundctl/internal/poller"
	"groundctl/internal/telemetry"
	"groundctl/internal/view"
)

// Action is a menu entry.
type Action int

const (
	ActionQuit Action = iota
	ActionStatus
	ActionRovers
	ActionMissions
	ActionTelemetry
	ActionAll
	ActionLive
)

// ErrInvalidAction is returned for keys outside the menu.
var ErrInvalidAction = errors.New("invalid option")

var actionInfo = [...]struct {
	key   string
	label string
}{
	ActionQuit:      {"0", "Quit"},
	ActionStatus:    {"1", "View system status"},
	ActionRovers:    {"2", "View rovers"},
	ActionMissions:  {"3", "View missions"},
	ActionTelemetry: {"4", "View telemetry"},
	ActionAll:       {"5", "View everything (dashboard)"},
	ActionLive:      {"6", "Live refresh"},
}

// Actions returns the menu in display order.
func Actions() []Action {
	return []Action{ActionStatus, ActionRovers, ActionMissions, ActionTelemetry, ActionAll, ActionLive, ActionQuit}
}

// ParseAction maps a menu key to its action.
func ParseAction(key string) (Action, error) {
	key = strings.TrimSpace(key)
	for i, info := range actionInfo {
		if info.key == key {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, key)
}

func (a Action) valid() bool { return a >= 0 && int(a) < len(actionInfo) }

// Key returns the key that selects a.
func (a Action) Key() string {
	if !a.valid() {
		return ""
	}
	return actionInfo[a].key
}

// Label returns the menu text of a.
func (a Action) Label() string {
	if !a.valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionInfo[a].label
}

func (a Action) String() string { return a.Label() }

// Categories returns the categories shown by a one-shot action, or nil.
func (a Action) Categories() []telemetry.Category {
	switch a {
	case ActionStatus:
		return []telemetry.Category{telemetry.CategoryStatus}
	case ActionRovers:
		return []telemetry.Category{telemetry.CategoryRovers}
	case ActionMissions:
		return []telemetry.Category{telemetry.CategoryMissions}
	case ActionTelemetry:
		return []telemetry.Category{telemetry.CategoryTelemetry}
	case ActionAll:
		return telemetry.Categories
	}
	return nil
}

// Runner is the part of the poller the menu drives.
type Runner interface {
	Once(ctx context.Context, cats ...telemetry.Category) (view.Frame, error)
	RunBounded(ctx context.Context, budget, interval time.Duration) (poller.RunStats, error)
}

// Dispatcher executes menu actions.
type Dispatcher struct {
	runner   Runner
	budget   time.Duration
	interval time.Duration
}

// NewDispatcher creates a dispatcher whose live action runs for budget,
// refreshing every interval.
func NewDispatcher(r Runner, budget, interval time.Duration) *Dispatcher {
	return &Dispatcher{runner: r, budget: budget, interval: interval}
}

// LiveLabel describes the live action with its budget.
func (d *Dispatcher) LiveLabel() string {
	return fmt.Sprintf("%s (%s)", ActionLive.Label(), d.budget)
}

// Dispatch performs a. It reports done for ActionQuit.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (done bool, err error) {
	switch a {
	case ActionQuit:
		return true, nil
	case ActionStatus, ActionRovers, ActionMissions, ActionTelemetry, ActionAll:
		_, err := d.runner.Once(ctx, a.Categories()...)
		return false, err
	case ActionLive:
		_, err := d.runner.RunBounded(ctx, d.budget, d.interval)
		return false, err
	}
	return false, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
}
