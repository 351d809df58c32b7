package enrich

import (
	"context"
	"sort"

	"github.com/paulmach/osm"
	"github.com/viroco/tracerouting/pkg/concurrent"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/overpass"
)

// junction labels
const (
	JunctionRoundabout = "roundabout"
	JunctionIndistinct = "indistinct"
	JunctionMainToMain = "main_to_main"
	JunctionMainToSide = "main_to_side"
	JunctionSideToMain = "side_to_main"
	JunctionSideToSide = "side_to_side"
)

// wayPriorities ranks road classes, lower is more important. Classes outside
// the map rank as unclassified.
var wayPriorities = map[string]int{
	"motorway":       1,
	"motorway_link":  2,
	"trunk":          3,
	"trunk_link":     4,
	"primary":        5,
	"primary_link":   6,
	"secondary":      7,
	"secondary_link": 8,
	"tertiary":       9,
	"tertiary_link":  10,
	"residential":    11,
	"living_street":  12,
	"service":        13,
	"unclassified":   14,
}

const fallbackPriority = 14

func priorityOf(wayType string) int {
	if p, ok := wayPriorities[wayType]; ok {
		return p
	}
	return fallbackPriority
}

// nodeJunction classification of one node plus the road-class priorities of
// every way passing through it, kept for the relabeling pass.
type nodeJunction struct {
	id         osm.NodeID
	junction   string
	priorities map[int]struct{}
	err        error
}

// LabelJunctions queries the ways through every bound node of the route and
// labels each node row with a junction class. The per-node queries fan out
// over a worker pool; results are restored to discovery order before the
// sequential relabeling and roundabout gap-fill passes.
func LabelJunctions(ctx context.Context, client *overpass.Client,
	rows []datastructure.FeatureRow, numWorkers int) ([]datastructure.FeatureRow, error) {

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)

	seen := make(map[osm.NodeID]struct{})
	var ids []osm.NodeID
	for _, r := range rows {
		if r.NodeID == 0 {
			continue
		}
		if _, ok := seen[r.NodeID]; ok {
			continue
		}
		seen[r.NodeID] = struct{}{}
		ids = append(ids, r.NodeID)
	}
	if len(ids) == 0 {
		return out, nil
	}

	pool := concurrent.NewWorkerPool[concurrent.Indexed[osm.NodeID], concurrent.Indexed[nodeJunction]](
		numWorkers, len(ids))
	pool.Start(func(job concurrent.Indexed[osm.NodeID]) concurrent.Indexed[nodeJunction] {
		return concurrent.NewIndexed(job.Idx, classifyNode(ctx, client, job.Val))
	})
	for i, id := range ids {
		pool.AddJob(concurrent.NewIndexed(i, id))
	}
	pool.Close()
	pool.Wait()

	results := make([]concurrent.Indexed[nodeJunction], 0, len(ids))
	for res := range pool.CollectResults() {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Idx < results[j].Idx })

	byID := make(map[osm.NodeID]nodeJunction, len(results))
	for _, res := range results {
		if res.Val.err != nil {
			return nil, res.Val.err
		}
		byID[res.Val.id] = res.Val
	}

	for i := range out {
		if out[i].NodeID == 0 {
			continue
		}
		if nj, ok := byID[out[i].NodeID]; ok {
			out[i].Junction = nj.junction
		}
	}

	// boundary rows have no previous or next way to compare against and stay
	// indistinct
	for i := 1; i < len(out)-1; i++ {
		if out[i].Junction != JunctionIndistinct {
			continue
		}
		if nj, ok := byID[out[i].NodeID]; ok {
			out[i].Junction = relabelJunction(out, i, nj.priorities)
		}
	}

	fillRoundaboutGaps(out)

	return out, nil
}

// classifyNode fetches the node's ways and derives its junction class: any
// roundabout way wins outright; otherwise ways sharing a ref or name are the
// same road continuing through, and only a node with more than one distinct
// road is a junction at all.
func classifyNode(ctx context.Context, client *overpass.Client, id osm.NodeID) nodeJunction {
	res, err := client.QueryNodeWays(ctx, id)
	if err != nil {
		return nodeJunction{id: id, err: err}
	}

	nj := nodeJunction{id: id, priorities: make(map[int]struct{})}
	for _, w := range res.Ways {
		nj.priorities[priorityOf(w.Tags["highway"])] = struct{}{}
	}

	var distinct []map[string]string
	for _, w := range res.Ways {
		if w.Tags["junction"] == "roundabout" {
			nj.junction = JunctionRoundabout
			return nj
		}

		if len(distinct) == 0 {
			distinct = append(distinct, w.Tags)
			continue
		}
		if sharesTag(w.Tags, distinct, "ref") || sharesTag(w.Tags, distinct, "name") {
			continue
		}
		distinct = append(distinct, w.Tags)
	}

	if len(distinct) > 1 {
		nj.junction = JunctionIndistinct
	}
	return nj
}

func sharesTag(tags map[string]string, others []map[string]string, key string) bool {
	v, ok := tags[key]
	if !ok {
		return false
	}
	for _, o := range others {
		if ov, ok := o[key]; ok && ov == v {
			return true
		}
	}
	return false
}

// relabelJunction refines an indistinct interior junction by comparing the
// road classes entered and left against the classes of all ways through the
// node.
func relabelJunction(rows []datastructure.FeatureRow, i int, priorities map[int]struct{}) string {
	if len(priorities) == 1 {
		return JunctionIndistinct
	}

	prev := priorityOf(rows[i-1].WayType)
	next := priorityOf(rows[i+1].WayType)

	switch {
	case prev == next:
		for p := range priorities {
			if p < prev {
				return JunctionSideToSide
			}
		}
		return JunctionMainToMain
	case prev < next:
		return JunctionMainToSide
	default:
		return JunctionSideToMain
	}
}

// fillRoundaboutGaps closes one and two row holes inside roundabout runs:
// waypoints between two roundabout-labeled rows belong to the roundabout
// even when their own node query said otherwise.
func fillRoundaboutGaps(rows []datastructure.FeatureRow) {
	mask := make([]int, len(rows))
	for i, r := range rows {
		if r.Junction == JunctionRoundabout {
			mask[i] = 1
		}
	}

	fillGap(mask, []int{1, 0, 1})
	fillGap(mask, []int{1, 0, 0, 1})

	for i := range rows {
		if mask[i] == 1 {
			rows[i].Junction = JunctionRoundabout
		}
	}
}

// fillGap sets every window matching the pattern's endpoints to all ones.
// The pattern's zeros mask out the middle, so the dot product hits 2 exactly
// when both endpoints are set.
func fillGap(mask, pattern []int) {
	for i := 0; i+len(pattern) <= len(mask); i++ {
		dot := 0
		for j, v := range pattern {
			dot += mask[i+j] * v
		}
		if dot == 2 {
			for j := range pattern {
				mask[i+j] = 1
			}
		}
	}
}
