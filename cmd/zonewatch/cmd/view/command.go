// Package view provides the view command, which runs one reconciliation
// cycle and prints the resulting building view.
package view

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/zonewatch/internal/cmd/application"
	"github.com/agentstation/zonewatch/internal/cmd/output"
	"github.com/agentstation/zonewatch/pkg/constants"
	"github.com/agentstation/zonewatch/pkg/filter"
)

// NewCommand creates the view command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		zoneKey  string
		hours    int
		window   string
		building string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:     "view",
		GroupID: "core",
		Short:   "Reconcile live metrics for a zone and print the view",
		Long: `View applies a zone and time window, runs one reconciliation cycle and
prints the merged buildings. Values marked with * come from the catalog
because the live endpoint failed or did not report the building.`,
		Example: `  zonewatch view --zone zone-a --window 12h
  zonewatch view --zone zone-a --building B1 --format json
  zonewatch view --zone zone-b --format wide`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if window != "" {
				parsed, err := filter.ParseWindow(window)
				if err != nil {
					return err
				}
				hours = parsed
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			if zoneKey == "" {
				zoneKey = client.Filter().ZoneKey
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cycle, err := client.Apply(ctx, zoneKey, hours)
			if err != nil {
				return err
			}
			if _, err := cycle.Wait(ctx); err != nil {
				return fmt.Errorf("generation %d: %w", cycle.Generation, err)
			}

			view, ok := cycle.View()
			if !ok {
				return fmt.Errorf("generation %d finished without a view", cycle.Generation)
			}
			if view, err = view.Focus(building); err != nil {
				return err
			}

			app.Logger().Debug().
				Uint64("generation", view.Generation).
				Int("orphans", view.Summary.Orphans).
				Int("failed_axes", len(view.Summary.FailedAxes)).
				Msg("View reconciled")

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)
			w := cmd.OutOrStdout()

			if !format.Tabular() {
				return formatter.Format(w, view)
			}
			if err := formatter.Format(w, output.SummaryToData(view)); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w)
			return formatter.Format(w, output.ViewToData(view, format == output.FormatWide))
		},
	}

	cmd.Flags().StringVarP(&zoneKey, "zone", "z", "", "zone key (default is the first catalog zone)")
	cmd.Flags().IntVar(&hours, "hours", constants.DefaultWindowHours, "time window in hours (1, 3, 5, 12 or 24)")
	cmd.Flags().StringVarP(&window, "window", "w", "", "time window label such as 12h (overrides --hours)")
	cmd.Flags().StringVarP(&building, "building", "b", "", "show a single building id")
	cmd.Flags().DurationVar(&timeout, "timeout", constants.CommandTimeout, "maximum time to wait for the cycle")

	return cmd
}
