package enrich

import (
	"context"

	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/osrm"
	"github.com/viroco/tracerouting/pkg/overpass"
	"github.com/viroco/tracerouting/pkg/spatialindex"
)

// BindNodes queries the coordinates and tags of every osm node along the
// matched route and binds each node to the closest waypoint within a small
// tolerance buffer. Waypoint coordinates come back from the matcher rounded,
// so exact equality never holds; the buffer absorbs the rounding error.
// Waypoints with no node nearby keep the zero node id and empty node columns.
func BindNodes(ctx context.Context, client *overpass.Client,
	rows []datastructure.FeatureRow, match *osrm.MatchResponse) ([]datastructure.FeatureRow, error) {

	ids := match.NodeIDs()

	res, err := client.QueryNodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	index := spatialindex.NewNodeIndex(res.Nodes)

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].NodeID = 0
		out[i].NodeHighway = ""
		out[i].NodeRailway = ""
		out[i].NodeCrossing = ""
		out[i].NodeDirection = ""
		out[i].NodeStop = ""

		node, ok := index.Nearest(out[i].Lat, out[i].Lon, pkg.NODE_BIND_TOLERANCE_DEGREE)
		if !ok {
			continue
		}

		out[i].NodeID = node.ID
		applyNodeTags(&out[i], node.Tags)
	}

	return out, nil
}

// applyNodeTags lifts the relevant node tags into columns. Crossing and
// direction are only meaningful in the context of a highway or railway
// feature; node maxspeed is left out on purpose, it either is missing or
// duplicates the way maxspeed.
func applyNodeTags(row *datastructure.FeatureRow, tags map[string]string) {
	if hw, ok := tags["highway"]; ok {
		row.NodeHighway = hw
		row.NodeCrossing = tags["crossing"]
		row.NodeDirection = tags["direction"]
	}

	if rw, ok := tags["railway"]; ok {
		row.NodeRailway = rw
		if row.NodeCrossing == "" {
			row.NodeCrossing = tags["crossing"]
		}
	}

	// stop signs appear both as values (traffic_sign=stop, highway=stop,
	// railway=stop) and as keys (stop=yes, stop=all, stop=minor)
	for k, v := range tags {
		if v == "stop" || v == "stop_sign" || k == "stop" || k == "stop_sign" {
			row.NodeStop = "stop"
			break
		}
	}
}
