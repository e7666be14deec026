package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLiveCmd(o *options) *cobra.Command {
	var (
		duration time.Duration
		interval time.Duration
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Refresh every view on stdout for a fixed duration",
		Long: "live refreshes all four views at a fixed interval. It stops when the duration is " +
			"spent or on Ctrl+C; --duration 0 runs until interrupted. It does not wait for the " +
			"API: views show awaiting data until it answers.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.context(cmd.Context())

			budget := a.cfg.Live.Budget
			if cmd.Flags().Changed("duration") {
				budget = duration
			}
			every := a.cfg.Live.Interval
			if budget == 0 {
				every = a.cfg.Live.ContinuousInterval
			}
			if cmd.Flags().Changed("interval") {
				every = interval
			}
			if every <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", every)
			}
			if budget < 0 {
				return fmt.Errorf("--duration must not be negative, got %s", budget)
			}

			p := a.newPoller(a.display(asJSON))
			a.serveAdmin(ctx, p)
			if budget == 0 {
				_, err = p.RunForever(ctx, every)
				return err
			}
			_, err = p.RunBounded(ctx, budget, every)
			return err
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to refresh; 0 means until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Time between refresh cycles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print each cycle as a JSON line")
	return cmd
}
