package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groundctl/internal/telemetry"
)

func newShowCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:       "show status|rovers|missions|telemetry|all",
		Short:     "Fetch and print one view, or all of them, once",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"status", "rovers", "missions", "telemetry", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var cats []telemetry.Category
			if args[0] != "all" {
				cat, err := telemetry.ParseCategory(args[0])
				if err != nil {
					return fmt.Errorf("%w (want status, rovers, missions, telemetry or all)", err)
				}
				cats = []telemetry.Category{cat}
			}

			a, err := o.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.context(cmd.Context())

			_, err = a.newPoller(a.display(asJSON)).Once(ctx, cats...)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the cycle as JSON")
	return cmd
}
