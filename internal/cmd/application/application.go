// Package application provides the application interface for zonewatch commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be exercised with a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(...zonewatch.Option) (zonewatch.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := view.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/pkg/catalog"
)

// Application provides the dependencies commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns a zonewatch client built from the application
	// configuration. Extra options are applied after the configured ones.
	Client(opts ...zonewatch.Option) (zonewatch.Client, error)

	// Catalog returns the configured zone catalog without creating a client.
	Catalog() (catalog.Catalog, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the output format from flags or config.
	OutputFormat() string

	// Version returns the application version.
	Version() string
}
