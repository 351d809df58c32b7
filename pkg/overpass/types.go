package overpass

import (
	"github.com/paulmach/osm"
)

type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
}

type response struct {
	Elements []element `json:"elements"`
}

type Node struct {
	ID   osm.NodeID
	Lat  float64
	Lon  float64
	Tags map[string]string
}

type Way struct {
	ID   osm.WayID
	Tags map[string]string
}

// Result node and way collections parsed from one overpass response.
type Result struct {
	Nodes []Node
	Ways  []Way
}

func newResult(resp *response) *Result {
	res := &Result{}
	for _, el := range resp.Elements {
		switch el.Type {
		case "node":
			res.Nodes = append(res.Nodes, Node{
				ID:   osm.NodeID(el.ID),
				Lat:  el.Lat,
				Lon:  el.Lon,
				Tags: el.Tags,
			})
		case "way":
			res.Ways = append(res.Ways, Way{
				ID:   osm.WayID(el.ID),
				Tags: el.Tags,
			})
		}
	}
	return res
}
