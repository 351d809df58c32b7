package enrich

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/osrm"
)

func tracepoint(lat, lon, distance float64) *osrm.Tracepoint {
	return &osrm.Tracepoint{Location: []float64{lon, lat}, Distance: distance}
}

func TestBindingTablePairsPositionally(t *testing.T) {
	points := []datastructure.TracePoint{
		datastructure.NewTimedTracePoint(50.0, 15.0, 1000),
		datastructure.NewTimedTracePoint(50.1, 15.1, 2000),
	}
	match := &osrm.MatchResponse{Tracepoints: []*osrm.Tracepoint{
		tracepoint(50.0001, 15.0001, 1.5),
		tracepoint(50.1001, 15.1001, 2.5),
	}}

	rows, err := BindingTable(points, match, datastructure.NewWarnings())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 50.0, rows[0].Lat)
	assert.Equal(t, 50.0001, rows[0].MatchedLat)
	assert.Equal(t, 15.0001, rows[0].MatchedLon)
	assert.Equal(t, 1.5, rows[0].MatchDistance)
	assert.Equal(t, 1000.0, rows[0].Timestamp)
	assert.Equal(t, 2000.0, rows[1].Timestamp)
}

func TestBindingTableDropsUnmatchedAndWarns(t *testing.T) {
	points := []datastructure.TracePoint{
		datastructure.NewTracePoint(50.0, 15.0),
		datastructure.NewTracePoint(50.1, 15.1),
		datastructure.NewTracePoint(50.2, 15.2),
	}
	match := &osrm.MatchResponse{Tracepoints: []*osrm.Tracepoint{
		tracepoint(50.0, 15.0, 1),
		nil,
		tracepoint(50.2, 15.2, 1),
	}}

	warns := datastructure.NewWarnings()
	rows, err := BindingTable(points, match, warns)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 50.2, rows[1].Lat, "pairing stays positional across the hole")
	require.Equal(t, 1, warns.Len(), "a third of the trace went unmatched")
	assert.Equal(t, datastructure.WarnDataQuality, warns.Items()[0].Kind)
}

func TestBindingTableLengthMismatchIsFatal(t *testing.T) {
	points := []datastructure.TracePoint{datastructure.NewTracePoint(50, 15)}
	match := &osrm.MatchResponse{Tracepoints: []*osrm.Tracepoint{
		tracepoint(50, 15, 1), tracepoint(50.1, 15, 1),
	}}

	_, err := BindingTable(points, match, datastructure.NewWarnings())
	require.Error(t, err)
}

func TestBindOriginalDataCopiesByCoordinate(t *testing.T) {
	rows := []datastructure.FeatureRow{
		datastructure.NewFeatureRow(50.0, 15.0, 10, 1),
		datastructure.NewFeatureRow(50.0001, 15.0, 10, 1),
		datastructure.NewFeatureRow(50.0002, 15.0, 10, 1),
	}
	binding := []datastructure.BindingRow{
		{Lat: 49.99995, Lon: 15.00005, MatchedLat: 50.0001, MatchedLon: 15.0, MatchDistance: 7.5, Timestamp: 3000},
	}

	out := BindOriginalData(rows, binding, datastructure.NewWarnings())

	assert.True(t, math.IsNaN(out[0].OriginalLat), "unbound rows keep missing originals")
	assert.Equal(t, 49.99995, out[1].OriginalLat)
	assert.Equal(t, 15.00005, out[1].OriginalLon)
	assert.Equal(t, 7.5, out[1].MatchDistance)
	assert.Equal(t, 3000.0, out[1].Timestamp)
	assert.True(t, math.IsNaN(out[2].OriginalLat))

	// input untouched
	assert.True(t, math.IsNaN(rows[1].OriginalLat))
}

func TestBindOriginalDataDisambiguatesLoops(t *testing.T) {
	// the route passes the same coordinate at meter 0 and again at the end
	rows := []datastructure.FeatureRow{
		datastructure.NewFeatureRow(50.0, 15.0, 10, 1),
		datastructure.NewFeatureRow(50.001, 15.0, 10, 1),
		datastructure.NewFeatureRow(50.0, 15.0, 10, 1),
	}
	binding := []datastructure.BindingRow{
		{Lat: 50.00001, Lon: 15.0, MatchedLat: 50.0, MatchedLon: 15.0, Timestamp: 1000},
		{Lat: 50.00101, Lon: 15.0, MatchedLat: 50.001, MatchedLon: 15.0, Timestamp: 2000},
		{Lat: 50.00002, Lon: 15.0, MatchedLat: 50.0, MatchedLon: 15.0, Timestamp: 3000},
	}

	warns := datastructure.NewWarnings()
	out := BindOriginalData(rows, binding, warns)

	assert.Equal(t, 1000.0, out[0].Timestamp, "first lap binds the first visit")
	assert.Equal(t, 3000.0, out[2].Timestamp, "second lap binds the second visit")
	assert.GreaterOrEqual(t, warns.Len(), 1)
	assert.Equal(t, datastructure.WarnDuplicateMatch, warns.Items()[0].Kind)
}
