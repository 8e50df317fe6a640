package catalog

import (
	_ "embed"
	"sync"
)

//go:embed catalog.yaml
var embeddedYAML []byte

var (
	embeddedOnce    sync.Once
	embeddedCatalog *Static
	embeddedErr     error
)

// Embedded returns the default catalog compiled into the binary.
func Embedded() (*Static, error) {
	embeddedOnce.Do(func() {
		embeddedCatalog, embeddedErr = parse("embedded catalog.yaml", embeddedYAML)
	})
	return embeddedCatalog, embeddedErr
}
