package osrm

import (
	"github.com/paulmach/osm"
	"github.com/twpayne/go-polyline"
)

const codeOk = "Ok"

// Geometry geojson linestring, coordinates as [lon, lat].
type Geometry struct {
	Coordinates [][]float64 `json:"coordinates"`
	Type        string      `json:"type"`
}

type Annotation struct {
	Nodes []int64 `json:"nodes"`
}

type Intersection struct {
	Location []float64 `json:"location"`
	Bearings []int     `json:"bearings"`
	Entry    []bool    `json:"entry"`
}

// Step name carries the osm way id (routing profile emits the id, not the
// street name).
type Step struct {
	Distance      float64        `json:"distance"`
	Duration      float64        `json:"duration"`
	Geometry      Geometry       `json:"geometry"`
	Intersections []Intersection `json:"intersections"`
	Name          int64          `json:"name"`
}

type Leg struct {
	Annotation Annotation `json:"annotation"`
	Steps      []Step     `json:"steps"`
	Distance   float64    `json:"distance"`
	Duration   float64    `json:"duration"`
	Weight     float64    `json:"weight"`
	Summary    string     `json:"summary"`
}

type Matching struct {
	Confidence float64  `json:"confidence"`
	Geometry   Geometry `json:"geometry"`
	Legs       []Leg    `json:"legs"`
	Distance   float64  `json:"distance"`
	Duration   float64  `json:"duration"`
	Weight     float64  `json:"weight"`
}

// Tracepoint snapped input point; nil in MatchResponse.Tracepoints means the
// input point could not be matched.
type Tracepoint struct {
	Location       []float64 `json:"location"` // [lon, lat]
	Distance       float64   `json:"distance"` // residual to the snap, meter
	WaypointIndex  int       `json:"waypoint_index"`
	MatchingsIndex int       `json:"matchings_index"`
}

type MatchResponse struct {
	Code        string        `json:"code"`
	Message     string        `json:"message,omitempty"`
	Matchings   []Matching    `json:"matchings"`
	Tracepoints []*Tracepoint `json:"tracepoints"`
}

// NodeIDs osm node ids along the matched route, deduplicated, discovery order.
func (r *MatchResponse) NodeIDs() []osm.NodeID {
	seen := make(map[int64]struct{})
	var ids []osm.NodeID
	for _, leg := range r.Matchings[0].Legs {
		for _, n := range leg.Annotation.Nodes {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			ids = append(ids, osm.NodeID(n))
		}
	}
	return ids
}

// EncodedPolyline matched route geometry as a google encoded polyline, for
// lightweight export to downstream consumers.
func (r *MatchResponse) EncodedPolyline() string {
	coords := r.Matchings[0].Geometry.Coordinates
	latLon := make([][]float64, len(coords))
	for i, c := range coords {
		latLon[i] = []float64{c[1], c[0]}
	}
	return string(polyline.EncodeCoords(latLon))
}
