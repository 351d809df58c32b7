package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// road classes considered for junction classification; everything else at a
// node (footways, cycleways, ...) is ignored by the way(bn) filter
var wayClasses = []string{
	"motorway",
	"motorway_link",
	"trunk",
	"trunk_link",
	"primary",
	"primary_link",
	"secondary",
	"secondary_link",
	"tertiary",
	"tertiary_link",
	"residential",
	"living_street",
	"service",
	"unclassified",
}

// Client issues overpass ql queries against a map-data service. Per-node way
// queries are memoized in a bounded process-wide cache (the same node recurs
// across traces) and throttled through a shared token bucket.
type Client struct {
	log        *zap.Logger
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	nodeCache  *NodeCache
}

func NewClient(log *zap.Logger, baseURL string, requestTimeout time.Duration,
	queryRate float64, nodeCache *NodeCache) *Client {
	return &Client{
		log:        log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(queryRate), 1),
		nodeCache:  nodeCache,
	}
}

// QueryNodeWays fetches one node and the road-class ways passing through it.
// The remote api is node-scoped, so callers fan these out per node id.
func (c *Client) QueryNodeWays(ctx context.Context, id osm.NodeID) (*Result, error) {
	if res, ok := c.nodeCache.Get(id); ok {
		return res, nil
	}

	query := fmt.Sprintf("[out:json];node(id:%d);out;way(bn)[highway~\"^(%s)$\"];out;",
		id, strings.Join(wayClasses, "|"))
	res, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}

	c.nodeCache.Add(id, res)
	return res, nil
}

// QueryNodes fetches coordinates and tags for the given node ids in one call.
func (c *Client) QueryNodes(ctx context.Context, ids []osm.NodeID) (*Result, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatInt(int64(id), 10)
	}
	return c.query(ctx, "[out:json];node(id:"+strings.Join(strIDs, ",")+");out;")
}

// QueryWays fetches tags for the given way ids in one call.
func (c *Client) QueryWays(ctx context.Context, ids []osm.WayID) (*Result, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatInt(int64(id), 10)
	}
	return c.query(ctx, "[out:json];way(id:"+strings.Join(strIDs, ",")+");out;")
}

func (c *Client) query(ctx context.Context, query string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/interpreter", strings.NewReader(query))
	if err != nil {
		return nil, err
	}

	httpRes, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "overpass request failed")
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpRes.Body, 512))
		return nil, util.WrapErrorf(nil, util.ErrRemoteService,
			"overpass returned status %d: %s", httpRes.StatusCode, string(body))
	}

	var resp response
	if err := json.NewDecoder(httpRes.Body).Decode(&resp); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRemoteService, "malformed overpass response")
	}

	return newResult(&resp), nil
}
