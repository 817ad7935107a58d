package app

import (
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

func newRoutesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the hub's route catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAPIClient(opts.Server, opts.Timeout)
			if err != nil {
				return err
			}
			var routes []model.Route
			if err := c.getJSON(cmd.Context(), "/api/v1/routes", nil, &routes); err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), routes)
			return nil
		},
	}
}
