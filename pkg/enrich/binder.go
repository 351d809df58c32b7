package enrich

import (
	"math"

	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/geo"
	"github.com/viroco/tracerouting/pkg/osrm"
	"github.com/viroco/tracerouting/pkg/util"
)

// BindingTable pairs the original trace with the tracepoint list of the
// matching response. The pairing is strictly positional: tracepoint i snaps
// input point i, so both lists must have the same length. Points whose
// tracepoint is null were not matched and are dropped; losing more than 2%
// of the trace raises a data quality warning.
func BindingTable(points []datastructure.TracePoint, match *osrm.MatchResponse,
	warns *datastructure.Warnings) ([]datastructure.BindingRow, error) {

	if len(points) != len(match.Tracepoints) {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"tracepoint count %d does not match input point count %d",
			len(match.Tracepoints), len(points))
	}

	rows := make([]datastructure.BindingRow, 0, len(points))
	for i, tp := range match.Tracepoints {
		if tp == nil {
			continue
		}
		rows = append(rows, datastructure.BindingRow{
			Lat:           points[i].Lat,
			Lon:           points[i].Lon,
			MatchedLat:    tp.Location[1],
			MatchedLon:    tp.Location[0],
			MatchDistance: tp.Distance,
			Timestamp:     points[i].Timestamp,
		})
	}

	unmatched := len(points) - len(rows)
	if unmatched > 0 && float64(unmatched)/float64(len(points)) > pkg.UNMATCHED_WARN_FRACTION {
		warns.Addf(datastructure.WarnDataQuality,
			"%d input points (%.1f%%) have not been matched and will not be included in the output",
			unmatched, float64(unmatched)/float64(len(points))*100)
	}

	return rows, nil
}

// BindOriginalData copies the original coordinates, residual and timestamp
// of each binding row onto the matched waypoint it snapped to. Candidates
// are waypoints at (almost) the snapped coordinates; when the route passes
// the same place twice, the cumulative-distance ratio test picks the
// candidate from the same lap. Rows without a passing candidate leave no
// trace in the output.
func BindOriginalData(rows []datastructure.FeatureRow, binding []datastructure.BindingRow,
	warns *datastructure.Warnings) []datastructure.FeatureRow {

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)

	mcoords := make([]geo.Coordinate, len(rows))
	for i, r := range rows {
		mcoords[i] = geo.NewCoordinate(r.Lat, r.Lon)
	}
	mcdist := geo.CumulativeDistances(mcoords)

	ocoords := make([]geo.Coordinate, len(binding))
	for i, b := range binding {
		ocoords[i] = geo.NewCoordinate(b.MatchedLat, b.MatchedLon)
	}
	ocdist := geo.CumulativeDistances(ocoords)

	for i, b := range binding {
		var candidates []int
		for j, r := range rows {
			if math.Abs(r.Lat-b.MatchedLat)+math.Abs(r.Lon-b.MatchedLon) < pkg.COORD_MATCH_TOLERANCE_DEGREE {
				candidates = append(candidates, j)
			}
		}

		if len(candidates) > 1 {
			warns.Addf(datastructure.WarnDuplicateMatch, "more points matched to the same point")
		}

		for _, j := range candidates {
			ratio := 0.0
			if ocdist[i] != 0 {
				ratio = math.Abs(mcdist[j]-ocdist[i]) / ocdist[i]
			}
			if ratio >= pkg.CDIST_RATIO_THRESHOLD {
				continue
			}

			out[j].OriginalLat = b.Lat
			out[j].OriginalLon = b.Lon
			out[j].MatchDistance = b.MatchDistance
			out[j].Timestamp = b.Timestamp
			break
		}
	}

	return out
}
