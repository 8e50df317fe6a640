package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/pkg/catalog"
)

// Mock provides a mock implementation of Application for testing.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc       func(opts ...zonewatch.Option) (zonewatch.Client, error)
	CatalogFunc      func() (catalog.Catalog, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Client implements Application.
func (m *Mock) Client(opts ...zonewatch.Option) (zonewatch.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return nil, nil
}

// Catalog implements Application.
func (m *Mock) Catalog() (catalog.Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc()
	}
	return nil, nil
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version implements Application.
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Ensure Mock implements Application.
var _ Application = (*Mock)(nil)
