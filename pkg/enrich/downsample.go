// Package enrich implements the feature enrichment stages between a raw gps
// trace and the resampled feature table: trace downsampling, map-match
// binding, way and node enrichment, junction classification and elevation.
package enrich

import (
	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/geo"
)

// DropNearbyPoints filters stop-and-go clusters out of the trace: points
// with zero coordinates go first, then only points at least threshold meters
// of accumulated path distance apart survive. The first and last valid
// points are always kept. Dropping more than 10% of the trace raises a data
// quality warning.
func DropNearbyPoints(points []datastructure.TracePoint, threshold float64,
	warns *datastructure.Warnings) []datastructure.TracePoint {

	valid := make([]datastructure.TracePoint, 0, len(points))
	for _, p := range points {
		if p.Lat != 0 && p.Lon != 0 {
			valid = append(valid, p)
		}
	}
	if len(valid) <= 2 {
		return valid
	}

	keep := make([]bool, len(valid))
	keep[0] = true
	keep[len(valid)-1] = true

	ahead := 0.0
	for i := 1; i < len(valid); i++ {
		ahead += geo.CalculateHaversineDistance(
			valid[i-1].Lat, valid[i-1].Lon, valid[i].Lat, valid[i].Lon)
		if ahead >= threshold {
			ahead = 0
			keep[i] = true
		}
	}

	out := make([]datastructure.TracePoint, 0, len(valid))
	for i, p := range valid {
		if keep[i] {
			out = append(out, p)
		}
	}

	dropped := len(valid) - len(out)
	percent := float64(dropped) / float64(len(valid)) * 100
	if percent > pkg.DOWNSAMPLE_WARN_PERCENT {
		warns.Addf(datastructure.WarnDataQuality,
			"%d points (%.1f%%) dropped due to distance threshold", dropped, percent)
	}

	return out
}
