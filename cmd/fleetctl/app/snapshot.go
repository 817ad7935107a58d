package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

type snapshotOptions struct {
	Vessels    bool
	Identifier string
	Types      []string
}

func newSnapshotCommand(root *rootOptions) *cobra.Command {
	opts := &snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the fleet summary and, optionally, the matching vessels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filterFromFlags(opts.Identifier, opts.Types)
			if err != nil {
				return err
			}
			c, err := newAPIClient(root.Server, root.Timeout)
			if err != nil {
				return err
			}

			var summary model.FleetSnapshot
			if err := c.getJSON(cmd.Context(), "/api/v1/snapshot", nil, &summary); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, summary)

			if !opts.Vessels && filter.Kind == model.FilterAll {
				return nil
			}
			var vessels []model.VesselState
			if err := c.getJSON(cmd.Context(), "/api/v1/vessels", filterQuery(filter), &vessels); err != nil {
				return err
			}
			fmt.Fprintln(out)
			printVessels(out, vessels)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&opts.Vessels, "vessels", opts.Vessels, "List every vessel below the summary.")
	fs.StringVar(&opts.Identifier, "identifier", opts.Identifier, "List only the vessel with this identifier.")
	fs.StringSliceVar(&opts.Types, "type", opts.Types, "List only vessels of these types.")
	return cmd
}
