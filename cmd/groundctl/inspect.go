package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"groundctl/internal/api"
	"groundctl/internal/poller"
	"groundctl/internal/view"
)

func newRoverCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rover <id>",
		Short: "Show one rover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.client.Rover(a.context(cmd.Context()), args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("rover %q not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(a.out).Encode(d)
			}
			fmt.Fprintln(a.out, a.formatter().Result(view.DescribeRover(d)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}

func newMissionCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "mission <id>",
		Short: "Show one mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.client.Mission(a.context(cmd.Context()), args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("mission %q not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(a.out).Encode(d)
			}
			fmt.Fprintln(a.out, a.formatter().Result(view.DescribeMission(d)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}

func newTrackCmd(o *options) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "track <rover-id>",
		Short: "Follow one rover's telemetry",
		Long:  "track prints the latest telemetry of a rover every interval until interrupted or --count samples were shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.context(cmd.Context())
			f := a.formatter()
			clock := poller.RealClock()
			id := strings.TrimSpace(args[0])
			if id == "" || id == "latest" {
				return fmt.Errorf("invalid rover id %q", args[0])
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}

			for n := 1; ; n++ {
				s, err := a.client.RoverTelemetry(ctx, id)
				switch {
				case ctx.Err() != nil:
					fmt.Fprintln(a.out, f.Success(view.EndedNotice))
					return nil
				case errors.Is(err, api.ErrNotFound):
					fmt.Fprintln(a.out, f.Alert(fmt.Sprintf("No telemetry for rover %s yet", id)))
				case err != nil:
					fmt.Fprintln(a.out, f.Alert(fmt.Sprintf("Telemetry unavailable: %v", err)))
				default:
					fmt.Fprintf(a.out, "%s\n\n", f.Result(view.DescribeSample(s)))
				}
				if count > 0 && n >= count {
					return nil
				}
				select {
				case <-ctx.Done():
					fmt.Fprintln(a.out, f.Success(view.EndedNotice))
					return nil
				case <-clock.After(interval):
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Time between samples")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many samples; 0 means until interrupted")
	return cmd
}
