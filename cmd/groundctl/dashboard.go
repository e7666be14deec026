package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groundctl/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		out  string
		opts dashboard.Options
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render a Grafana dashboard for the exported metrics",
		Long: "dashboard writes " + dashboard.FileName + " into --out. The Prometheus datasource uid " +
			"comes from --datasource-uid or $" + dashboard.DatasourceEnv + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "-" {
				return dashboard.Render(cmd.OutOrStdout(), opts)
			}
			path, err := dashboard.RenderFile(out, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "build", "Output directory, or - for stdout")
	cmd.Flags().StringVar(&opts.DatasourceUID, "datasource-uid", "", "Grafana Prometheus datasource uid")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Dashboard title")
	cmd.Flags().StringVar(&opts.Job, "job", "", "Restrict queries to this scrape job")
	return cmd
}
