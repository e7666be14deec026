// Package poller runs fetch-render cycles over the dashboard categories.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"groundctl/internal/api"
	"groundctl/internal/logging"
	"groundctl/internal/telemetry"
	"groundctl/internal/view"
)

// Clock abstracts time for the refresh loops.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Display receives rendered cycles.
type Display interface {
	Frame(view.Frame) error
	Notice(msg string) error
}

// RunStats summarises a live-mode run.
type RunStats struct {
	Cycles      int
	Interrupted bool
}

// Poller fetches and renders categories.
type Poller struct {
	fetcher  api.Fetcher
	display  Display
	logger   *slog.Logger
	clock    Clock
	parallel bool

	mu   sync.RWMutex
	last *view.Frame
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(p *Poller) { p.clock = c } }

// WithParallel toggles concurrent fetching within a cycle.
func WithParallel(on bool) Option { return func(p *Poller) { p.parallel = on } }

// WithLogger sets the poller logger.
func WithLogger(l *slog.Logger) Option { return func(p *Poller) { p.logger = l } }

// New creates a poller drawing to d.
func New(f api.Fetcher, d Display, opts ...Option) *Poller {
	p := &Poller{
		fetcher: f,
		display: d,
		logger:  slog.Default(),
		clock:   RealClock(),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With("component", "poller")
	return p
}

// Cycle fetches and renders cats, all categories when none are given. The
// frame is not displayed. A cancelled cycle returns the context error.
func (p *Poller) Cycle(ctx context.Context, cats ...telemetry.Category) (view.Frame, error) {
	if len(cats) == 0 {
		cats = telemetry.Categories
	}
	id := uuid.NewString()
	log := p.logger.With("cycle", id)
	cctx := logging.NewContext(api.WithRequestID(ctx, id), log)
	start := p.clock.Now()

	payloads := make([]json.RawMessage, len(cats))
	fetch := func(i int) {
		if body, ok := p.fetcher.Fetch(cctx, cats[i].Endpoint()); ok {
			payloads[i] = body
		}
	}
	if p.parallel && len(cats) > 1 {
		var g errgroup.Group
		for i := range cats {
			g.Go(func() error {
				fetch(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range cats {
			if ctx.Err() != nil {
				break
			}
			fetch(i)
		}
	}
	if err := ctx.Err(); err != nil {
		log.Debug("cycle cancelled")
		return view.Frame{}, err
	}

	frame := view.Frame{Cycle: id, Time: p.clock.Now(), Results: make([]view.Result, 0, len(cats))}
	for i, cat := range cats {
		r := view.Render(cat, payloads[i])
		frame.Results = append(frame.Results, r)
		frame.Available = frame.Available || r.OK()
	}
	log.Debug("cycle complete", "available", frame.Available, "took", frame.Time.Sub(start))

	p.mu.Lock()
	p.last = &frame
	p.mu.Unlock()
	return frame, nil
}

// Last returns the most recent completed cycle.
func (p *Poller) Last() (view.Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return view.Frame{}, false
	}
	return *p.last, true
}

// Once runs a single cycle and displays it.
func (p *Poller) Once(ctx context.Context, cats ...telemetry.Category) (view.Frame, error) {
	frame, err := p.Cycle(ctx, cats...)
	if err != nil {
		return frame, err
	}
	return frame, p.display.Frame(frame)
}

// RunBounded repeats cycles spaced by interval until budget, measured from
// the loop start, is spent. Cancellation stops the loop and shows a closing
// notice; it is not an error.
func (p *Poller) RunBounded(ctx context.Context, budget, interval time.Duration) (RunStats, error) {
	log := logging.FromContext(ctx)
	log.Info("starting bounded live mode", "budget", budget, "interval", interval)
	start := p.clock.Now()
	var stats RunStats
	for {
		elapsed := p.clock.Now().Sub(start)
		if elapsed >= budget {
			log.Info("live budget spent", "cycles", stats.Cycles)
			return stats, nil
		}
		frame, err := p.Cycle(ctx)
		if err != nil {
			return p.interrupted(stats, view.StoppedNotice)
		}
		frame.Progress = fmt.Sprintf("Live mode: %d/%ds", int(elapsed.Seconds()), int(budget.Seconds()))
		if err := p.display.Frame(frame); err != nil {
			return stats, err
		}
		stats.Cycles++

		select {
		case <-ctx.Done():
			return p.interrupted(stats, view.StoppedNotice)
		case <-p.clock.After(interval):
		}
	}
}

// RunForever repeats cycles spaced by interval until ctx is cancelled.
func (p *Poller) RunForever(ctx context.Context, interval time.Duration) (RunStats, error) {
	logging.FromContext(ctx).Info("starting continuous monitoring", "interval", interval)
	var stats RunStats
	for {
		frame, err := p.Cycle(ctx)
		if err != nil {
			return p.interrupted(stats, view.EndedNotice)
		}
		frame.Progress = "Continuous monitoring"
		if err := p.display.Frame(frame); err != nil {
			return stats, err
		}
		stats.Cycles++

		select {
		case <-ctx.Done():
			return p.interrupted(stats, view.EndedNotice)
		case <-p.clock.After(interval):
		}
	}
}

func (p *Poller) interrupted(stats RunStats, notice string) (RunStats, error) {
	stats.Interrupted = true
	p.logger.Info("live mode interrupted", "cycles", stats.Cycles)
	return stats, p.display.Notice(notice)
}
