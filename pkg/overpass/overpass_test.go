package overpass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNodeCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewNodeCache(2)
	c.Add(1, &Result{})
	c.Add(2, &Result{})

	// touch 1 so 2 becomes the eviction candidate
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Add(3, &Result{})
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get(2)
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get(1)
	assert.True(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestQueryNodeWaysMemoized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "node(id:42)")
		assert.Contains(t, string(body), "way(bn)")
		fmt.Fprint(w, `{"elements":[
			{"type":"node","id":42,"lat":50.1,"lon":15.1,"tags":{"highway":"crossing"}},
			{"type":"way","id":7,"tags":{"highway":"primary","name":"Main"}}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 1000, NewNodeCache(10))

	res, err := c.QueryNodeWays(context.Background(), osm.NodeID(42))
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	require.Len(t, res.Ways, 1)
	assert.Equal(t, "crossing", res.Nodes[0].Tags["highway"])
	assert.Equal(t, osm.WayID(7), res.Ways[0].ID)

	_, err = c.QueryNodeWays(context.Background(), osm.NodeID(42))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second lookup must hit the cache")
}

func TestQueryWaysBatchesIDs(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query = string(body)
		fmt.Fprint(w, `{"elements":[{"type":"way","id":1,"tags":{"highway":"residential"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 1000, NewNodeCache(10))
	_, err := c.QueryWays(context.Background(), []osm.WayID{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, strings.Contains(query, "way(id:1,2,3)"), "got query %q", query)
}

func TestQueryPropagatesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL, 0, 1000, NewNodeCache(10))
	_, err := c.QueryNodes(context.Background(), []osm.NodeID{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
