package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Client looks elevations up against an open-elevation style endpoint. The
// endpoint caps locations per POST, so lookups go out in bounded batches and
// the responses are concatenated in request order. No caching.
type Client struct {
	log        *zap.Logger
	baseURL    string
	httpClient *http.Client
	batchLimit int
}

func NewClient(log *zap.Logger, baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		log:        log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		batchLimit: pkg.ELEVATION_BATCH_LIMIT,
	}
}

// Lookup returns one elevation per coordinate pair, in input order.
func (c *Client) Lookup(ctx context.Context, lats, lons []float64) ([]float64, error) {
	if len(lats) != len(lons) {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"latitude and longitude counts differ: %d vs %d", len(lats), len(lons))
	}

	c.log.Debug("looking up elevations",
		zap.Int("locations", len(lats)),
		zap.Int("batches", util.CeilDiv(len(lats), c.batchLimit)))

	elevations := make([]float64, 0, len(lats))
	for i := 0; i < len(lats); i += c.batchLimit {
		end := util.Min(i+c.batchLimit, len(lats))

		batch, err := c.lookupBatch(ctx, lats[i:end], lons[i:end])
		if err != nil {
			return nil, err
		}
		elevations = append(elevations, batch...)
	}

	return elevations, nil
}

func (c *Client) lookupBatch(ctx context.Context, lats, lons []float64) ([]float64, error) {
	payload := lookupRequest{Locations: make([]location, len(lats))}
	for i := range lats {
		payload.Locations[i] = location{Latitude: lats[i], Longitude: lons[i]}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpRes, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "elevation request failed")
	}
	defer httpRes.Body.Close()

	var res lookupResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "malformed elevation response")
	}

	if len(res.Results) != len(lats) {
		return nil, util.WrapErrorf(nil, util.ErrRemoteService,
			"elevation response has %d results for %d locations", len(res.Results), len(lats))
	}

	elevations := make([]float64, len(res.Results))
	for i, r := range res.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}
