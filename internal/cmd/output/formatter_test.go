package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "WIDE", "json", "yaml", "markdown", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)

	assert.True(t, FormatMarkdown.Tabular())
	assert.False(t, FormatYAML.Tabular())
	assert.Equal(t, FormatJSON, DetectFormat("JSON"))
}

func testView(t *testing.T) merger.View {
	t.Helper()
	c := catalog.TestCatalog(t)
	zone, err := c.Zone("zone-a")
	require.NoError(t, err)

	set := metrics.NewSettlementSet(
		metrics.Ok(metrics.AxisActivityLevel, []metrics.Record{{Key: "B1", Value: "High"}}),
		metrics.Ok(metrics.AxisPeakOccupancy, []metrics.Record{{Key: "B1", Value: 250}}),
		metrics.Failed(metrics.AxisAvgDwellTime, assert.AnError),
	)
	return merger.New().Build(zone, 5, 3, set)
}

func TestViewToData(t *testing.T) {
	view := testView(t)

	d := ViewToData(view, false)
	assert.Len(t, d.Headers, 5)
	require.Len(t, d.Rows, 4)
	assert.Equal(t, []string{"B1", "Main Hall", "High", "250", "28*"}, d.Rows[0])
	assert.Equal(t, []string{"B2", "Exhibition Area", "Medium*", "134*", "22*"}, d.Rows[1])

	wide := ViewToData(view, true)
	assert.Equal(t, []string{"Activity Level", "Peak Occupancy", "Avg Dwell Time"}, wide.Headers[6:])
	assert.Equal(t, []string{"red", "live", "live", "fallback"}, wide.Rows[0][5:])

	summary := SummaryToData(view)
	assert.Contains(t, summary.Rows, []string{"Failed axes", "avg-dwell-time"})
	assert.Contains(t, summary.Rows, []string{"Window", "5h"})
}

func TestFormatters(t *testing.T) {
	entries := catalog.TestCatalog(t).ListZones()
	data := ZonesToData(entries)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
		assert.Contains(t, buf.String(), "zone-a")
		assert.Contains(t, buf.String(), "Zone B")
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatMarkdown).Format(&buf, data))
		assert.Contains(t, buf.String(), "zone-a")
		assert.Contains(t, buf.String(), "|")
		assert.Contains(t, buf.String(), "---")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatYAML).Format(&buf, testView(t)))
		assert.Contains(t, buf.String(), "zone: zone-a")
		assert.Contains(t, buf.String(), "generation: 3")
	})

	t.Run("table falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"n": 1}))
		assert.JSONEq(t, `{"n":1}`, buf.String())
	})
}
