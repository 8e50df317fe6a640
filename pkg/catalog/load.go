package catalog

import (
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/zonewatch/pkg/errors"
)

// document is the on-disk catalog layout.
type document struct {
	Zones []Zone `yaml:"zones"`
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Static, error) {
	return parse("catalog.yaml", data)
}

// Load reads a YAML catalog from a filesystem.
func Load(fsys fs.FS, path string) (*Static, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parse(path, data)
}

// LoadFile reads a YAML catalog from the local disk.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parse(path, data)
}

func parse(name string, data []byte) (*Static, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	if len(doc.Zones) == 0 {
		return nil, errors.NewParseError("yaml", name, "no zones defined", nil)
	}
	return New(doc.Zones...)
}

// Marshal encodes a catalog as a YAML document that Parse accepts.
func Marshal(c Catalog) ([]byte, error) {
	entries := c.ListZones()
	doc := document{Zones: make([]Zone, len(entries))}
	for i, e := range entries {
		doc.Zones[i] = e.Zone
	}
	return yaml.Marshal(doc)
}
