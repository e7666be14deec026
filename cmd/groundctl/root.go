package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"groundctl/internal/ui"
)

// options holds the global flags.
type options struct {
	configPath  string
	baseURL     string
	logFile     string
	logLevel    string
	metricsAddr string
	noColor     bool
	live        bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "groundctl",
		Short: "Terminal dashboard for the rover fleet",
		Long: "groundctl polls the mothership observation API and shows system status, rovers, " +
			"missions and telemetry. Without arguments it opens an interactive menu; --live " +
			"refreshes every view continuously.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.live {
				return runContinuous(cmd, o)
			}
			return runMenu(cmd, o)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Path to groundctl YAML configuration")
	pf.StringVar(&o.baseURL, "base-url", "", "Observation API base URL (default "+defaultBaseURL+")")
	pf.StringVar(&o.logFile, "log-file", "", "Write logs to this file")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /metrics and /last-cycle on this address")
	pf.BoolVar(&o.noColor, "no-color", false, "Disable colours")
	cmd.Flags().BoolVar(&o.live, "live", false, "Refresh all views continuously until interrupted")

	cmd.AddCommand(newLiveCmd(o), newShowCmd(o), newRoverCmd(o), newMissionCmd(o), newTrackCmd(o), newDashboardCmd())
	return cmd
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runContinuous is the --live mode: refresh until interrupted. It does not
// probe; an unreachable API shows as awaiting data.
func runContinuous(cmd *cobra.Command, o *options) error {
	a, err := o.setup(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := a.context(cmd.Context())

	p := a.newPoller(a.display(false))
	a.serveAdmin(ctx, p)
	_, err = p.RunForever(ctx, a.cfg.Live.ContinuousInterval)
	return err
}

// runMenu probes the API and hosts the interactive menu.
func runMenu(cmd *cobra.Command, o *options) error {
	a, err := o.setup(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := a.context(cmd.Context())

	if err := a.probe(ctx); err != nil {
		return err
	}
	disp := ui.NewProgramDisplay()
	p := a.newPoller(disp)
	a.serveAdmin(ctx, p)

	d := ui.NewDispatcher(p, a.cfg.Live.Budget, a.cfg.Live.Interval)
	if err := ui.Run(ctx, d, disp, a.formatter()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.formatter().Success("Ground Control closed"))
	return nil
}
