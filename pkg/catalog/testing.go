package catalog

import (
	"testing"
)

// TestZoneA returns the four-building zone used across engine tests.
func TestZoneA(t testing.TB) Zone {
	t.Helper()
	return Zone{
		Key:  "zone-a",
		ID:   "Z-A",
		Name: "Zone A",
		Buildings: []Building{
			{ID: "B1", Name: "Main Hall", Color: "red", Fallback: Fallback{PeakOccupancy: 187, AvgDwellMinutes: 28, ActivityLevel: ActivityHigh}},
			{ID: "B2", Name: "Exhibition Area", Color: "yellow", Fallback: Fallback{PeakOccupancy: 134, AvgDwellMinutes: 22, ActivityLevel: ActivityMedium}},
			{ID: "B3", Name: "Networking Lounge", Color: "green", Fallback: Fallback{PeakOccupancy: 89, AvgDwellMinutes: 35, ActivityLevel: ActivityLow}},
			{ID: "B4", Name: "Computer Engineering Dept", Fallback: Fallback{PeakOccupancy: 130, AvgDwellMinutes: 20, ActivityLevel: ActivityMedium}},
		},
	}
}

// TestZoneB returns a second, smaller zone.
func TestZoneB(t testing.TB) Zone {
	t.Helper()
	return Zone{
		Key:  "zone-b",
		ID:   "Z-B",
		Name: "Zone B",
		Buildings: []Building{
			{ID: "B5", Name: "Competition Area", Fallback: Fallback{PeakOccupancy: 90, AvgDwellMinutes: 18, ActivityLevel: ActivityLow}},
			{ID: "B6", Name: "Building 2", Fallback: Fallback{PeakOccupancy: 75, AvgDwellMinutes: 15, ActivityLevel: ActivityLow}},
		},
	}
}

// TestCatalog returns a catalog holding TestZoneA and TestZoneB.
func TestCatalog(t testing.TB) *Static {
	t.Helper()
	c, err := New(TestZoneA(t), TestZoneB(t))
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return c
}
