// Package catalog provides the immutable zone to building taxonomy together with
// the static fallback metrics used whenever live data is missing.
//
// A catalog is constructed once at startup and is safe for concurrent reads
// from any number of reconciliation cycles without locking.
//
// Example usage:
//
//	cat, err := catalog.Embedded()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, entry := range cat.ListZones() {
//	    fmt.Printf("%s: %d buildings\n", entry.Zone.Name, len(entry.Zone.Buildings))
//	}
package catalog

import (
	"github.com/agentstation/zonewatch/pkg/errors"
)

// Catalog is the read-only view of zones and their buildings.
type Catalog interface {
	// ListZones returns every zone in stable catalog order.
	ListZones() []ZoneEntry

	// BuildingsOf returns the ordered buildings of a zone.
	// Fails with an UnknownZoneError if the key is absent.
	BuildingsOf(zoneKey string) ([]Building, error)

	// Zone returns the zone for a key.
	// Fails with an UnknownZoneError if the key is absent.
	Zone(zoneKey string) (Zone, error)
}

// Compile-time interface check.
var _ Catalog = (*Static)(nil)

// Static is the in-memory Catalog implementation.
// It is never mutated after construction.
type Static struct {
	zones []Zone
	index map[string]int
}

// New builds a catalog from the given zones, preserving their order.
// Zones are validated and deep copied so later changes by the caller
// cannot leak into the catalog.
func New(zones ...Zone) (*Static, error) {
	s := &Static{
		zones: make([]Zone, 0, len(zones)),
		index: make(map[string]int, len(zones)),
	}

	for _, z := range zones {
		if err := z.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[z.Key]; dup {
			return nil, errors.NewValidationError("zone.key", z.Key, "duplicate zone key")
		}
		s.index[z.Key] = len(s.zones)
		s.zones = append(s.zones, z.clone())
	}

	return s, nil
}

// ListZones implements Catalog.
func (s *Static) ListZones() []ZoneEntry {
	entries := make([]ZoneEntry, len(s.zones))
	for i, z := range s.zones {
		entries[i] = ZoneEntry{Key: z.Key, Zone: z.clone()}
	}
	return entries
}

// BuildingsOf implements Catalog.
func (s *Static) BuildingsOf(zoneKey string) ([]Building, error) {
	z, err := s.Zone(zoneKey)
	if err != nil {
		return nil, err
	}
	return z.Buildings, nil
}

// Zone implements Catalog.
func (s *Static) Zone(zoneKey string) (Zone, error) {
	i, ok := s.index[zoneKey]
	if !ok {
		return Zone{}, errors.NewUnknownZoneError(zoneKey)
	}
	return s.zones[i].clone(), nil
}

// Has reports whether the catalog contains the zone key.
func (s *Static) Has(zoneKey string) bool {
	_, ok := s.index[zoneKey]
	return ok
}

// Len returns the number of zones.
func (s *Static) Len() int {
	return len(s.zones)
}
