package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

// Client talks to an osrm match service. The service caps the number of
// coordinates per request, so Match partitions the trace into consecutive
// chunks and merges the per-chunk responses back into one.
type Client struct {
	log           *zap.Logger
	baseURL       string
	httpClient    *http.Client
	locationLimit int
}

func NewClient(log *zap.Logger, baseURL string, requestTimeout time.Duration, locationLimit int) *Client {
	return &Client{
		log:           log,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: requestTimeout},
		locationLimit: locationLimit,
	}
}

func (c *Client) constructURL(pnts []datastructure.TracePoint, tryHarder bool) string {
	var sb strings.Builder
	sb.WriteString(c.baseURL)
	sb.WriteString("/match/v1/driving/")
	for i, p := range pnts {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%1.6f,%1.6f", p.Lon, p.Lat)
	}
	sb.WriteString("?steps=true&geometries=geojson&overview=full&annotations=true&tidy=false&gaps=ignore")
	if tryHarder {
		sb.WriteString("&radiuses=")
		for i := range pnts {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString("100")
		}
	}
	return sb.String()
}

// Match map matches the trace. Chunks are requested strictly in order, one
// request at a time. Confidence shortfalls and multiple candidate matchings
// abort the run in strict mode and degrade to a warning otherwise.
func (c *Client) Match(ctx context.Context, pnts []datastructure.TracePoint, confidence float64,
	strictMode bool, warns *datastructure.Warnings) (*MatchResponse, error) {

	if len(pnts) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "empty trace")
	}

	step := c.locationLimit
	var responses []*MatchResponse
	for i := 0; i < len(pnts); i += step {
		end := util.Min(i+step, len(pnts))
		resp, err := c.matchChunk(ctx, pnts[i:end], confidence, strictMode, warns)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return MergeMatchResponses(responses), nil
}

func (c *Client) matchChunk(ctx context.Context, pnts []datastructure.TracePoint, confidence float64,
	strictMode bool, warns *datastructure.Warnings) (*MatchResponse, error) {

	res, err := c.get(ctx, c.constructURL(pnts, false))
	if err != nil {
		return nil, err
	}

	if res.Code != codeOk {
		c.log.Warn("osrm matching failed, trying harder",
			zap.String("code", res.Code))
		res, err = c.get(ctx, c.constructURL(pnts, true))
		if err != nil {
			return nil, err
		}
	}

	if res.Code != codeOk {
		return nil, util.WrapErrorf(nil, util.ErrRemoteService,
			"could not match trace: %s", res.Message)
	}

	if len(res.Matchings) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrRemoteService,
			"match response carries no matchings")
	}

	if len(res.Matchings) > 1 {
		message := fmt.Sprintf("map matching found %d solutions, using the first one", len(res.Matchings))
		if strictMode {
			return nil, util.WrapErrorf(nil, util.ErrMatchConfidence, "%s", message)
		}
		c.log.Warn(message)
		warns.Addf(datastructure.WarnMatchConfidence, "%s", message)
	}

	if res.Matchings[0].Confidence < confidence {
		message := fmt.Sprintf("map matching confidence %f below threshold %f",
			res.Matchings[0].Confidence, confidence)
		if strictMode {
			return nil, util.WrapErrorf(nil, util.ErrMatchConfidence, "%s", message)
		}
		c.log.Warn(message)
		warns.Addf(datastructure.WarnMatchConfidence, "%s", message)
	}

	return res, nil
}

func (c *Client) get(ctx context.Context, url string) (*MatchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpRes, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "osrm request failed")
	}
	defer httpRes.Body.Close()

	var res MatchResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "malformed osrm response")
	}
	return &res, nil
}

// MergeMatchResponses merges per-chunk responses in chunk order: tracepoint
// and leg lists are concatenated, distance/duration/weight summed, geometry
// concatenated and confidence averaged arithmetically.
//
// Tracepoints keep their chunk-local waypoint_index values: the index
// restarts at 0 at every chunk boundary. Downstream binding is positional
// and never reads waypoint_index, so the discontinuity is preserved rather
// than renumbered.
func MergeMatchResponses(responses []*MatchResponse) *MatchResponse {
	base := responses[0]
	pieces := len(responses)

	for i := 1; i < pieces; i++ {
		resp := responses[i]
		base.Tracepoints = append(base.Tracepoints, resp.Tracepoints...)

		base.Matchings[0].Legs = append(base.Matchings[0].Legs, resp.Matchings[0].Legs...)
		base.Matchings[0].Distance += resp.Matchings[0].Distance
		base.Matchings[0].Duration += resp.Matchings[0].Duration
		base.Matchings[0].Weight += resp.Matchings[0].Weight

		base.Matchings[0].Geometry.Coordinates = append(base.Matchings[0].Geometry.Coordinates,
			resp.Matchings[0].Geometry.Coordinates...)
		base.Matchings[0].Confidence += resp.Matchings[0].Confidence
	}

	base.Matchings[0].Confidence /= float64(pieces)
	return base
}
