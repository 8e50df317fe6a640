// Package zones provides the zones command for listing the catalog.
package zones

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/zonewatch/internal/cmd/application"
	"github.com/agentstation/zonewatch/internal/cmd/output"
	"github.com/agentstation/zonewatch/pkg/catalog"
)

// NewCommand creates the zones command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "zones [zone-key]",
		GroupID: "core",
		Short:   "List catalog zones, or the buildings of one zone",
		Example: `  zonewatch zones
  zonewatch zones zone-a --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.Catalog()
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)

			if len(args) == 0 {
				entries := cat.ListZones()
				if format.Tabular() {
					return formatter.Format(cmd.OutOrStdout(), output.ZonesToData(entries))
				}
				zones := make([]catalog.Zone, len(entries))
				for i, e := range entries {
					zones[i] = e.Zone
				}
				return formatter.Format(cmd.OutOrStdout(), zones)
			}

			zone, err := cat.Zone(args[0])
			if err != nil {
				return err
			}
			if format.Tabular() {
				return formatter.Format(cmd.OutOrStdout(), output.BuildingsToData(zone.Buildings))
			}
			return formatter.Format(cmd.OutOrStdout(), zone)
		},
	}
}
