package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/zonewatch/cmd/zonewatch/cmd/serve"
	"github.com/agentstation/zonewatch/cmd/zonewatch/cmd/view"
	"github.com/agentstation/zonewatch/cmd/zonewatch/cmd/zones"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(zones.NewCommand(a))
	rootCmd.AddCommand(view.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a, serve.Settings{
		OTLPEndpoint:        a.config.OTLPEndpoint,
		AutoRefreshInterval: a.config.AutoRefreshInterval,
	}))
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("zonewatch %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
