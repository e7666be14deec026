package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"groundctl/internal/admin"
	"groundctl/internal/api"
	"groundctl/internal/config"
	"groundctl/internal/logging"
	"groundctl/internal/poller"
	"groundctl/internal/view"
)

const defaultBaseURL = config.DefaultBaseURL

// app bundles what every command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	registry *prometheus.Registry
	client   *api.Client
	out      io.Writer
	errOut   io.Writer
	noColor  bool
}

// loadConfig reads the config file and applies flag overrides.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.API.BaseURL = o.baseURL
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Admin.Addr = o.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup builds the shared dependencies. Interactive commands own the
// terminal, so their logs go to the log file or nowhere.
func (o *options) setup(cmd *cobra.Command, interactive bool) (*app, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	fallback := cmd.ErrOrStderr()
	if interactive {
		fallback = io.Discard
	}
	logger, closeLog, err := logging.Open(cfg.Log.File, cfg.Log.Level, fallback)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		registry: reg,
		client:   api.NewClient(cfg.API, logger, api.NewMetrics(reg)),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		noColor:  o.noColor,
	}, nil
}

// Close releases the log file.
func (a *app) Close() {
	_ = a.closeLog()
}

func (a *app) context(ctx context.Context) context.Context {
	return logging.NewContext(ctx, a.logger)
}

func (a *app) formatter() view.Formatter {
	return view.NewFormatter(view.NewStyles(a.out, !a.noColor), 0)
}

// display returns the stdout (or JSON) display, mirrored to the log.
func (a *app) display(asJSON bool) poller.Display {
	var d poller.Display = poller.NewStdoutDisplay(a.out, a.formatter())
	if asJSON {
		d = poller.NewJSONDisplay(a.out)
	}
	return poller.NewMultiDisplay(d, poller.NewLogDisplay(a.logger))
}

func (a *app) newPoller(d poller.Display) *poller.Poller {
	return poller.New(a.client, d,
		poller.WithLogger(a.logger),
		poller.WithParallel(a.cfg.Live.Parallel),
	)
}

// probe checks connectivity, reporting progress on stderr.
func (a *app) probe(ctx context.Context) error {
	f := view.NewFormatter(view.NewStyles(a.errOut, !a.noColor), 0)
	fmt.Fprintln(a.errOut, "Connecting to Ground Control...")
	err := a.client.Probe(ctx, func(attempt, total uint, _ error) {
		fmt.Fprintln(a.errOut, f.Alert(fmt.Sprintf("Attempt %d/%d failed, retrying...", attempt, total)))
	})
	if err != nil {
		fmt.Fprintln(a.errOut, "Make sure the mothership is running and serving its observation API.")
		return err
	}
	fmt.Fprintln(a.errOut, f.Success("Connected"))
	return nil
}

// serveAdmin starts the admin listener when an address is configured.
func (a *app) serveAdmin(ctx context.Context, snap admin.Snapshotter) {
	addr := a.cfg.Admin.Addr
	if addr == "" {
		return
	}
	srv := admin.NewServer(snap, a.registry, a.client.BaseURL(), a.logger)
	go func() {
		if err := srv.Start(ctx, addr); err != nil {
			a.logger.Error("admin listener failed", "addr", addr, "err", err)
		}
	}()
}
