// Package resample re-expresses the enriched feature table on a uniform
// 1 meter cumulative-distance grid. Geometry is re-derived by forward
// geodesic stepping along each original segment; every other column is
// interpolated per its declared policy.
package resample

import (
	"math"
	"sort"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/geo"
	"github.com/viroco/tracerouting/pkg/util"
	"gonum.org/v1/gonum/interp"
)

// Table resampled feature table, one entry per whole meter of route. The
// meter offset is the slice index and not a column of its own.
type Table struct {
	Lat     []float64            `json:"latitude"`
	Lon     []float64            `json:"longitude"`
	Numeric map[string][]float64 `json:"numeric"`
	Labels  map[string][]string  `json:"labels"`
}

func (t *Table) Len() int {
	return len(t.Lat)
}

// Resample builds the grid 0..floor(total route length) and interpolates
// every column of the feature table onto it. policies must cover every
// non-float column; float columns default to Linear. An undeclared
// non-float column is a configuration error naming the column.
func Resample(rows []datastructure.FeatureRow, policies map[string]Kind) (*Table, error) {
	if len(rows) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"resampling needs at least two waypoints, got %d", len(rows))
	}

	coords := make([]geo.Coordinate, len(rows))
	for i, r := range rows {
		coords[i] = geo.NewCoordinate(r.Lat, r.Lon)
	}
	cum := geo.CumulativeDistances(coords)
	gridLen := int(math.Floor(cum[len(cum)-1])) + 1

	table := &Table{
		Numeric: make(map[string][]float64),
		Labels:  make(map[string][]string),
	}
	table.Lat, table.Lon = resampleGeometry(coords, cum, gridLen)

	for name, values := range numericColumns(rows) {
		kind, declared := policies[name]
		if !declared {
			kind = Linear
		}
		out, err := resampleNumeric(values, cum, gridLen, kind)
		if err != nil {
			return nil, err
		}
		table.Numeric[name] = out
	}

	for name, values := range labelColumns(rows) {
		kind, declared := policies[name]
		if !declared {
			return nil, util.WrapErrorf(nil, util.ErrSegmentationPolicy,
				"column %q has no declared segmentation policy and is not numeric", name)
		}
		if kind == Linear {
			return nil, util.WrapErrorf(nil, util.ErrSegmentationPolicy,
				"column %q is not numeric and cannot use the linear policy", name)
		}
		table.Labels[name] = resampleLabels(values, cum, gridLen, kind)
	}

	return table, nil
}

// resampleGeometry re-derives the route geometry at 1 meter spacing: each
// original segment contributes the whole-meter points its cumulative
// distance range crosses, generated by forward geodesic stepping from the
// segment start along the segment bearing.
func resampleGeometry(coords []geo.Coordinate, cum []float64, gridLen int) ([]float64, []float64) {
	lats := make([]float64, gridLen)
	lons := make([]float64, gridLen)
	lats[0], lons[0] = coords[0].Lat, coords[0].Lon

	next := 1
	for i := 0; i+1 < len(coords) && next < gridLen; i++ {
		bearing := geo.Bearing(coords[i].Lat, coords[i].Lon, coords[i+1].Lat, coords[i+1].Lon)
		for next < gridLen && float64(next) <= cum[i+1] {
			lats[next], lons[next] = geo.GetDestinationPoint(
				coords[i].Lat, coords[i].Lon, bearing, float64(next)-cum[i])
			next++
		}
	}

	// rounding can leave the very last grid point just past the final
	// cumulative distance; it belongs to the route end
	for ; next < gridLen; next++ {
		lats[next] = coords[len(coords)-1].Lat
		lons[next] = coords[len(coords)-1].Lon
	}

	return lats, lons
}

func resampleNumeric(values, cum []float64, gridLen int, kind Kind) ([]float64, error) {
	var xs, ys []float64
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, cum[i])
			ys = append(ys, v)
		}
	}

	out := make([]float64, gridLen)
	switch kind {
	case Linear:
		if len(xs) == 0 {
			fillNaN(out)
			return out, nil
		}
		if len(xs) == 1 {
			for i := range out {
				out[i] = ys[0]
			}
			return out, nil
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, util.WrapErrorf(err, util.ErrSegmentationPolicy, "linear fit failed")
		}
		lo, hi := xs[0], xs[len(xs)-1]
		for g := 0; g < gridLen; g++ {
			x := math.Min(math.Max(float64(g), lo), hi)
			out[g] = pl.Predict(x)
		}

	case Nearest:
		if len(xs) == 0 {
			fillNaN(out)
			return out, nil
		}
		for g := 0; g < gridLen; g++ {
			out[g] = ys[nearestIndex(xs, float64(g))]
		}

	case Once:
		fillNaN(out)
		for i := range xs {
			offset := int(math.Round(xs[i]))
			if offset < 0 || offset >= gridLen {
				continue
			}
			// duplicate offsets keep the first occurrence
			if math.IsNaN(out[offset]) {
				out[offset] = ys[i]
			}
		}
	}

	return out, nil
}

// resampleLabels integer-encodes the distinct labels, interpolates the codes
// on the grid and decodes back.
func resampleLabels(values []string, cum []float64, gridLen int, kind Kind) []string {
	var (
		xs    []float64
		codes []int
	)
	codeOf := make(map[string]int)
	var labels []string
	for i, v := range values {
		if v == "" {
			continue
		}
		code, ok := codeOf[v]
		if !ok {
			code = len(labels)
			codeOf[v] = code
			labels = append(labels, v)
		}
		xs = append(xs, cum[i])
		codes = append(codes, code)
	}

	out := make([]string, gridLen)
	if len(xs) == 0 {
		return out
	}

	switch kind {
	case Nearest:
		for g := 0; g < gridLen; g++ {
			out[g] = labels[codes[nearestIndex(xs, float64(g))]]
		}

	case Once:
		for i := range xs {
			offset := int(math.Round(xs[i]))
			if offset < 0 || offset >= gridLen {
				continue
			}
			if out[offset] == "" {
				out[offset] = labels[codes[i]]
			}
		}
	}

	return out
}

// nearestIndex index of the sample in the sorted xs closest to x. Ties go to
// the lower sample.
func nearestIndex(xs []float64, x float64) int {
	i := sort.SearchFloat64s(xs, x)
	if i == 0 {
		return 0
	}
	if i == len(xs) {
		return len(xs) - 1
	}
	if x-xs[i-1] <= xs[i]-x {
		return i - 1
	}
	return i
}

func fillNaN(out []float64) {
	for i := range out {
		out[i] = math.NaN()
	}
}

func numericColumns(rows []datastructure.FeatureRow) map[string][]float64 {
	cols := map[string][]float64{
		datastructure.ColSpeedOsrm:         make([]float64, len(rows)),
		datastructure.ColWayMaxSpeed:       make([]float64, len(rows)),
		datastructure.ColElevation:         make([]float64, len(rows)),
		datastructure.ColMatchDistance:     make([]float64, len(rows)),
		datastructure.ColTimestamp:         make([]float64, len(rows)),
		datastructure.ColOriginalLatitude:  make([]float64, len(rows)),
		datastructure.ColOriginalLongitude: make([]float64, len(rows)),
		datastructure.ColWayID:             make([]float64, len(rows)),
		datastructure.ColNodeID:            make([]float64, len(rows)),
	}
	for i, r := range rows {
		cols[datastructure.ColSpeedOsrm][i] = r.SpeedOsrm
		cols[datastructure.ColWayMaxSpeed][i] = r.WayMaxSpeed
		cols[datastructure.ColElevation][i] = r.Elevation
		cols[datastructure.ColMatchDistance][i] = r.MatchDistance
		cols[datastructure.ColTimestamp][i] = r.Timestamp
		cols[datastructure.ColOriginalLatitude][i] = r.OriginalLat
		cols[datastructure.ColOriginalLongitude][i] = r.OriginalLon
		cols[datastructure.ColWayID][i] = float64(r.WayID)
		cols[datastructure.ColNodeID][i] = math.NaN()
		if r.NodeID != 0 {
			cols[datastructure.ColNodeID][i] = float64(r.NodeID)
		}
	}

	for name, values := range cols {
		if allNaN(values) {
			delete(cols, name)
		}
	}
	return cols
}

func labelColumns(rows []datastructure.FeatureRow) map[string][]string {
	cols := map[string][]string{
		datastructure.ColWayType:       make([]string, len(rows)),
		datastructure.ColWaySurface:    make([]string, len(rows)),
		datastructure.ColIntersection:  make([]string, len(rows)),
		datastructure.ColNodeHighway:   make([]string, len(rows)),
		datastructure.ColNodeRailway:   make([]string, len(rows)),
		datastructure.ColNodeCrossing:  make([]string, len(rows)),
		datastructure.ColNodeDirection: make([]string, len(rows)),
		datastructure.ColNodeStop:      make([]string, len(rows)),
	}
	for i, r := range rows {
		cols[datastructure.ColWayType][i] = r.WayType
		cols[datastructure.ColWaySurface][i] = r.WaySurface
		cols[datastructure.ColIntersection][i] = r.Junction
		cols[datastructure.ColNodeHighway][i] = r.NodeHighway
		cols[datastructure.ColNodeRailway][i] = r.NodeRailway
		cols[datastructure.ColNodeCrossing][i] = r.NodeCrossing
		cols[datastructure.ColNodeDirection][i] = r.NodeDirection
		cols[datastructure.ColNodeStop][i] = r.NodeStop
	}

	for i, r := range rows {
		for name, v := range r.Extra {
			col, ok := cols[name]
			if !ok {
				col = make([]string, len(rows))
				cols[name] = col
			}
			col[i] = v
		}
	}

	for name, values := range cols {
		if allEmpty(values) {
			delete(cols, name)
		}
	}
	return cols
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
