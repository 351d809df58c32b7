package datastructure

import (
	"math"

	"github.com/paulmach/osm"
)

// TracePoint single record of a raw gps trace, in trace order.
type TracePoint struct {
	Lat       float64
	Lon       float64
	Timestamp float64 // unix millis, NaN when the source carries no clock
}

func NewTracePoint(lat, lon float64) TracePoint {
	return TracePoint{Lat: lat, Lon: lon, Timestamp: math.NaN()}
}

func NewTimedTracePoint(lat, lon, timestampMs float64) TracePoint {
	return TracePoint{Lat: lat, Lon: lon, Timestamp: timestampMs}
}

// BindingRow original trace point paired with its positional tracepoint from
// the matching response. Rows whose tracepoint was null never make it here.
type BindingRow struct {
	Lat           float64 // original coordinates
	Lon           float64
	MatchedLat    float64 // snapped coordinates
	MatchedLon    float64
	MatchDistance float64 // residual between original and snapped, meter
	Timestamp     float64
}

// FeatureRow one waypoint of the matched road geometry plus everything the
// enrichment stages attach to it.
type FeatureRow struct {
	Lat       float64
	Lon       float64
	SpeedOsrm float64 // estimated speed from matching, m/s
	WayID     osm.WayID

	// original-match binding
	OriginalLat   float64
	OriginalLon   float64
	MatchDistance float64
	Timestamp     float64

	// way enrichment
	WayType     string
	WaySurface  string
	WayMaxSpeed float64

	// node enrichment
	NodeID        osm.NodeID // 0 = no node bound to this waypoint
	NodeHighway   string
	NodeRailway   string
	NodeCrossing  string
	NodeDirection string
	NodeStop      string
	Junction      string

	Elevation float64

	// Extra carries columns produced by injected enrichment strategies.
	Extra map[string]string
}

func NewFeatureRow(lat, lon, speedOsrm float64, wayID osm.WayID) FeatureRow {
	return FeatureRow{
		Lat:           lat,
		Lon:           lon,
		SpeedOsrm:     speedOsrm,
		WayID:         wayID,
		OriginalLat:   math.NaN(),
		OriginalLon:   math.NaN(),
		MatchDistance: math.NaN(),
		Timestamp:     math.NaN(),
		WayMaxSpeed:   math.NaN(),
		Elevation:     math.NaN(),
	}
}

// Coordinates of the feature rows, waypoint order.
func Coordinates(rows []FeatureRow) ([]float64, []float64) {
	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	for i, r := range rows {
		lats[i] = r.Lat
		lons[i] = r.Lon
	}
	return lats, lons
}
