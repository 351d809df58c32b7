package osrm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

func tracepointCount(r *http.Request) int {
	path := strings.TrimPrefix(r.URL.Path, "/match/v1/driving/")
	return len(strings.Split(path, ";"))
}

func okResponse(points int, confidence float64) *MatchResponse {
	tps := make([]*Tracepoint, points)
	for i := range tps {
		tps[i] = &Tracepoint{Location: []float64{15.0, 50.0}, Distance: 1.5, WaypointIndex: i}
	}
	return &MatchResponse{
		Code: "Ok",
		Matchings: []Matching{{
			Confidence: confidence,
			Geometry:   Geometry{Coordinates: [][]float64{{15.0, 50.0}, {15.001, 50.0}}, Type: "LineString"},
			Legs: []Leg{{
				Annotation: Annotation{Nodes: []int64{11, 22}},
				Steps:      []Step{},
				Distance:   100, Duration: 10, Weight: 10,
			}},
			Distance: 100, Duration: 10, Weight: 10,
		}},
		Tracepoints: tps,
	}
}

func TestMatchChunksRequests(t *testing.T) {
	var requests []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := tracepointCount(r)
		requests = append(requests, n)
		confidence := 0.9
		if len(requests) > 1 {
			confidence = 0.7
		}
		json.NewEncoder(w).Encode(okResponse(n, confidence))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 2)
	pnts := make([]datastructure.TracePoint, 5)
	for i := range pnts {
		pnts[i] = datastructure.NewTracePoint(50.0+float64(i)*0.001, 15.0)
	}

	warns := datastructure.NewWarnings()
	res, err := c.Match(context.Background(), pnts, 0.5, false, warns)
	require.NoError(t, err)

	// ceil(5/2) = 3 requests of sizes 2,2,1
	assert.Equal(t, []int{2, 2, 1}, requests)
	assert.Len(t, res.Tracepoints, 5, "merged tracepoints must cover every input point")
	assert.Len(t, res.Matchings[0].Legs, 3, "merged legs are the concatenation across chunks")
	assert.InDelta(t, 300.0, res.Matchings[0].Distance, 1e-9)
}

func TestMatchSingleChunkTracepointInvariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okResponse(tracepointCount(r), 0.95))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 20000)
	pnts := make([]datastructure.TracePoint, 7)
	for i := range pnts {
		pnts[i] = datastructure.NewTracePoint(50.0, 15.0+float64(i)*0.001)
	}

	res, err := c.Match(context.Background(), pnts, 0.8, false, datastructure.NewWarnings())
	require.NoError(t, err)
	assert.Len(t, res.Tracepoints, len(pnts))
}

func TestMergeAveragesConfidence(t *testing.T) {
	merged := MergeMatchResponses([]*MatchResponse{okResponse(2, 0.9), okResponse(2, 0.7)})
	assert.InDelta(t, 0.8, merged.Matchings[0].Confidence, 1e-9)
}

func TestMergeKeepsChunkLocalWaypointIndex(t *testing.T) {
	merged := MergeMatchResponses([]*MatchResponse{okResponse(3, 0.9), okResponse(2, 0.9)})
	require.Len(t, merged.Tracepoints, 5)
	// the second chunk's indices restart at 0; the merge does not renumber
	assert.Equal(t, 2, merged.Tracepoints[2].WaypointIndex)
	assert.Equal(t, 0, merged.Tracepoints[3].WaypointIndex)
}

func TestMatchRetriesWithRadiuses(t *testing.T) {
	var sawRadiuses bool
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(&MatchResponse{Code: "NoMatch", Message: "could not match"})
			return
		}
		sawRadiuses = r.URL.Query().Get("radiuses") != ""
		json.NewEncoder(w).Encode(okResponse(tracepointCount(r), 0.9))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 20000)
	pnts := []datastructure.TracePoint{
		datastructure.NewTracePoint(50.0, 15.0),
		datastructure.NewTracePoint(50.001, 15.0),
	}

	_, err := c.Match(context.Background(), pnts, 0.8, false, datastructure.NewWarnings())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, sawRadiuses, "retry must add a search radius per point")
}

func TestMatchFatalAfterRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&MatchResponse{Code: "NoSegment", Message: "no segment found"})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 20000)
	pnts := []datastructure.TracePoint{datastructure.NewTracePoint(50.0, 15.0)}

	_, err := c.Match(context.Background(), pnts, 0.8, false, datastructure.NewWarnings())
	require.Error(t, err)
	var coded *util.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, util.ErrRemoteService, coded.Code())
	assert.Contains(t, err.Error(), "no segment found")
}

func TestMatchEmptyMatchingsIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&MatchResponse{Code: "Ok", Matchings: []Matching{}})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 20000)
	pnts := []datastructure.TracePoint{datastructure.NewTracePoint(50.0, 15.0)}

	_, err := c.Match(context.Background(), pnts, 0.8, false, datastructure.NewWarnings())
	require.Error(t, err)
	var coded *util.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, util.ErrRemoteService, coded.Code())
}

func TestMatchStrictModeLowConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okResponse(tracepointCount(r), 0.4))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 20000)
	pnts := []datastructure.TracePoint{datastructure.NewTracePoint(50.0, 15.0)}

	_, err := c.Match(context.Background(), pnts, 0.8, true, datastructure.NewWarnings())
	require.Error(t, err)
	var coded *util.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, util.ErrMatchConfidence, coded.Code())

	// non-strict degrades to a warning
	warns := datastructure.NewWarnings()
	_, err = c.Match(context.Background(), pnts, 0.8, false, warns)
	require.NoError(t, err)
	assert.Equal(t, 1, warns.Len())
}

func twoStepMatch() *MatchResponse {
	return &MatchResponse{
		Code: "Ok",
		Matchings: []Matching{{
			Confidence: 0.9,
			Legs: []Leg{{
				Steps: []Step{
					{
						Distance: 100, Duration: 10, Name: 100100,
						Geometry: Geometry{Coordinates: [][]float64{
							{15.000, 50.000}, {15.001, 50.000}, {15.002, 50.000},
						}},
					},
					{
						Distance: 0, Duration: 0, Name: 100200, // degenerate, skipped
						Geometry: Geometry{Coordinates: [][]float64{{15.002, 50.000}}},
					},
					{
						Distance: 50, Duration: 10, Name: 100300,
						Geometry: Geometry{Coordinates: [][]float64{
							{15.002, 50.000}, {15.003, 50.000},
						}},
					},
				},
			}},
		}},
	}
}

func TestWaypointsExtraction(t *testing.T) {
	rows := Waypoints(twoStepMatch())

	// first step drops its final coordinate (shared with the next step),
	// last step keeps all of its coordinates
	require.Len(t, rows, 4)
	assert.InDelta(t, 10.0, rows[0].SpeedOsrm, 1e-9)
	assert.InDelta(t, 5.0, rows[3].SpeedOsrm, 1e-9)
	assert.EqualValues(t, 100100, rows[0].WayID)
	assert.EqualValues(t, 100300, rows[2].WayID)
	assert.InDelta(t, 15.002, rows[2].Lon, 1e-12)
}

func TestDedupWaypointsIdempotent(t *testing.T) {
	rows := Waypoints(twoStepMatch())
	again := dedupWaypoints(rows)
	assert.Equal(t, rows, again, "dedup must be idempotent on its own output")
}

func TestSmoothSpeedsConstantStaysConstant(t *testing.T) {
	var rows []datastructure.FeatureRow
	for i := 0; i < 10; i++ {
		r := datastructure.NewFeatureRow(50.0+float64(i)*0.0001, 15.0, 12.0, 1)
		rows = append(rows, r)
	}

	smoothed := SmoothSpeeds(rows)
	for i, r := range smoothed {
		assert.InDelta(t, 12.0, r.SpeedOsrm, 1e-9, "row %d", i)
	}
}

func TestSmoothSpeedsAveragesWithinWindow(t *testing.T) {
	// rows ~11.1 m apart, all within one 100 m window
	speeds := []float64{10, 20, 10, 20, 10}
	var rows []datastructure.FeatureRow
	for i, s := range speeds {
		rows = append(rows, datastructure.NewFeatureRow(50.0+float64(i)*0.0001, 15.0, s, 1))
	}

	smoothed := SmoothSpeeds(rows)
	for i := 0; i < len(speeds)-1; i++ {
		assert.Greater(t, smoothed[i].SpeedOsrm, 10.0)
		assert.Less(t, smoothed[i].SpeedOsrm, 20.0)
	}
	// the final row is never re-weighted
	assert.InDelta(t, 10.0, smoothed[len(speeds)-1].SpeedOsrm, 1e-9)

	// sanity: the weighted mean is finite and not NaN anywhere
	for _, r := range smoothed {
		assert.False(t, math.IsNaN(r.SpeedOsrm))
	}
}
