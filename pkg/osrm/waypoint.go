package osrm

import (
	"github.com/paulmach/osm"
	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/geo"
)

// Waypoints expands the matched legs into one feature row per geometry
// coordinate, carrying the estimated speed and the owning way id. Degenerate
// steps (distance below the dedup threshold) are skipped, and for all but
// the last kept step of a leg the step's final coordinate is dropped so it
// does not duplicate the next step's first coordinate. Consecutive rows
// closer than the dedup threshold collapse into one.
func Waypoints(match *MatchResponse) []datastructure.FeatureRow {
	var rows []datastructure.FeatureRow
	for _, leg := range match.Matchings[0].Legs {
		rows = append(rows, legWaypoints(leg)...)
	}

	return dedupWaypoints(rows)
}

func legWaypoints(leg Leg) []datastructure.FeatureRow {
	var kept []Step
	for _, s := range leg.Steps {
		if s.Distance >= pkg.WAYPOINT_DEDUP_THRESHOLD_METER {
			kept = append(kept, s)
		}
	}

	var rows []datastructure.FeatureRow
	for i, s := range kept {
		speed := 0.0
		if s.Distance > 0 && s.Duration > 0 {
			speed = s.Distance / s.Duration
		}

		coords := s.Geometry.Coordinates
		if i < len(kept)-1 && len(coords) > 0 {
			coords = coords[:len(coords)-1]
		}
		for _, c := range coords {
			rows = append(rows, datastructure.NewFeatureRow(c[1], c[0], speed, osm.WayID(s.Name)))
		}
	}
	return rows
}

// dedupWaypoints drops consecutive rows whose geodesic separation is below
// the dedup threshold. Idempotent: running it on its own output is a no-op.
func dedupWaypoints(rows []datastructure.FeatureRow) []datastructure.FeatureRow {
	if len(rows) == 0 {
		return rows
	}
	filtered := rows[:1]
	for _, r := range rows[1:] {
		last := filtered[len(filtered)-1]
		d := geo.CalculateHaversineDistance(r.Lat, r.Lon, last.Lat, last.Lon)
		if d > pkg.WAYPOINT_DEDUP_THRESHOLD_METER {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// SmoothSpeeds applies a centered, distance-weighted moving average over a
// 100 m window of cumulative along-route distance. Windows at the edges
// shrink naturally; the window around row i is centered on the midpoint of
// segment (i, i+1) and extends one sample past its right boundary when
// possible, so the weighting always sees the closing step distance.
func SmoothSpeeds(rows []datastructure.FeatureRow) []datastructure.FeatureRow {
	n := len(rows)
	if n < 2 {
		return rows
	}

	coords := make([]geo.Coordinate, n)
	for i, r := range rows {
		coords[i] = geo.NewCoordinate(r.Lat, r.Lon)
	}
	dist := geo.PathStepDistances(coords)
	cum := geo.CumulativeDistances(coords)

	out := make([]datastructure.FeatureRow, n)
	copy(out, rows)

	half := pkg.SPEED_SMOOTHING_WINDOW_METER / 2
	for i := 0; i < n-1; i++ {
		pos := (cum[i] + cum[i+1]) / 2

		lo := 0
		for lo < n && cum[lo] < pos-half {
			lo++
		}
		hi := lo - 1
		for hi+1 < n && cum[hi+1] <= pos+half {
			hi++
		}
		if hi < lo {
			continue
		}
		if hi < n-1 {
			hi++
		}

		var num, den float64
		for j := lo; j <= hi; j++ {
			num += rows[j].SpeedOsrm * dist[j]
			den += dist[j]
		}
		if den > 0 {
			out[i].SpeedOsrm = num / den
		}
	}

	return out
}
