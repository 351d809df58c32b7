package enrich

import (
	"context"
	"math"

	"github.com/paulmach/osm"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/overpass"
	"github.com/viroco/tracerouting/pkg/util"
)

// WayEnricher maps the tags of a way onto the feature row it owns. Injecting
// a different implementation lets callers derive their own way columns,
// surfaced through FeatureRow.Extra.
type WayEnricher interface {
	Apply(row *datastructure.FeatureRow, tags map[string]string)
}

// DefaultWayEnricher extracts the road class, maxspeed and surface tags.
type DefaultWayEnricher struct{}

func (DefaultWayEnricher) Apply(row *datastructure.FeatureRow, tags map[string]string) {
	row.WayType = tags["highway"]
	row.WaySurface = tags["surface"]

	row.WayMaxSpeed = math.NaN()
	if raw, ok := tags["maxspeed"]; ok {
		if v, err := util.StringToFloat64(raw); err == nil {
			row.WayMaxSpeed = v
		}
	}
}

// AddWayData queries the tags of every distinct way id on the route in one
// call and left joins them onto the waypoints. Stale way columns are cleared
// first, so waypoints of a way the query did not return end up with empty
// values rather than leftovers.
func AddWayData(ctx context.Context, client *overpass.Client,
	rows []datastructure.FeatureRow, enricher WayEnricher) ([]datastructure.FeatureRow, error) {

	seen := make(map[osm.WayID]struct{})
	var ids []osm.WayID
	for _, r := range rows {
		if _, ok := seen[r.WayID]; ok {
			continue
		}
		seen[r.WayID] = struct{}{}
		ids = append(ids, r.WayID)
	}

	res, err := client.QueryWays(ctx, ids)
	if err != nil {
		return nil, err
	}

	tagsByID := make(map[osm.WayID]map[string]string, len(res.Ways))
	for _, w := range res.Ways {
		tagsByID[w.ID] = w.Tags
	}

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].WayType = ""
		out[i].WaySurface = ""
		out[i].WayMaxSpeed = math.NaN()

		if tags, ok := tagsByID[out[i].WayID]; ok {
			enricher.Apply(&out[i], tags)
		}
	}

	return out, nil
}
