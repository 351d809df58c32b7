package spatialindex

import (
	"github.com/tidwall/rtree"
	"github.com/viroco/tracerouting/pkg/geo"
	"github.com/viroco/tracerouting/pkg/overpass"
)

// NodeIndex r-tree over osm node point features, queried with a small
// tolerance buffer around each waypoint during node binding.
type NodeIndex struct {
	tr *rtree.RTreeG[overpass.Node]
}

func NewNodeIndex(nodes []overpass.Node) *NodeIndex {
	var tr rtree.RTreeG[overpass.Node]
	for _, n := range nodes {
		tr.Insert([2]float64{n.Lon, n.Lat}, [2]float64{n.Lon, n.Lat}, n)
	}
	return &NodeIndex{tr: &tr}
}

// Nearest returns the node closest to (qLat, qLon) within a square tolerance
// buffer of the given size in degrees, or false when the buffer is empty.
func (ni *NodeIndex) Nearest(qLat, qLon, tolerance float64) (overpass.Node, bool) {
	var (
		best     overpass.Node
		bestDist float64
		found    bool
	)

	q := geo.NewCoordinate(qLat, qLon)
	ni.tr.Search(
		[2]float64{qLon - tolerance, qLat - tolerance},
		[2]float64{qLon + tolerance, qLat + tolerance},
		func(min, max [2]float64, n overpass.Node) bool {
			d := geo.DistanceS2(q, geo.NewCoordinate(n.Lat, n.Lon))
			if !found || d < bestDist {
				best, bestDist, found = n, d, true
			}
			return true
		})

	return best, found
}
