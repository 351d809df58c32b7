package controllers

import (
	"math"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/enrich"
	"github.com/viroco/tracerouting/pkg/resample"
)

type gpsPoint struct {
	Latitude  float64  `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64  `json:"longitude" validate:"required,min=-180,max=180"`
	Timestamp *float64 `json:"timestamp,omitempty"` // unix millis
}

type enrichRequest struct {
	Points  []gpsPoint      `json:"points" validate:"required,min=2,dive"`
	Options map[string]bool `json:"options,omitempty"`
}

func (r enrichRequest) ToTracePoints() []datastructure.TracePoint {
	points := make([]datastructure.TracePoint, len(r.Points))
	for i, p := range r.Points {
		if p.Timestamp != nil {
			points[i] = datastructure.NewTimedTracePoint(p.Latitude, p.Longitude, *p.Timestamp)
		} else {
			points[i] = datastructure.NewTracePoint(p.Latitude, p.Longitude)
		}
	}
	return points
}

type enrichResponse struct {
	Polyline  string                  `json:"polyline"`
	Resampled resampledTable          `json:"resampled"`
	Warnings  []datastructure.Warning `json:"warnings"`
}

// resampledTable json view of the resampled grid. NaN is not representable
// in json, so missing numeric values go out as nulls.
type resampledTable struct {
	Latitude  []float64             `json:"latitude"`
	Longitude []float64             `json:"longitude"`
	Numeric   map[string][]*float64 `json:"numeric"`
	Labels    map[string][]string   `json:"labels"`
}

func NewEnrichResponse(res *enrich.Result) enrichResponse {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []datastructure.Warning{}
	}
	return enrichResponse{
		Polyline:  res.Polyline,
		Resampled: newResampledTable(res.Resampled),
		Warnings:  warnings,
	}
}

func newResampledTable(t *resample.Table) resampledTable {
	out := resampledTable{
		Latitude:  t.Lat,
		Longitude: t.Lon,
		Numeric:   make(map[string][]*float64, len(t.Numeric)),
		Labels:    t.Labels,
	}
	for name, values := range t.Numeric {
		col := make([]*float64, len(values))
		for i, v := range values {
			if !math.IsNaN(v) {
				val := v
				col[i] = &val
			}
		}
		out.Numeric[name] = col
	}
	return out
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
