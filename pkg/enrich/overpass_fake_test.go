package enrich

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/viroco/tracerouting/pkg/overpass"
	"go.uber.org/zap"
)

// fakeOverpass serves canned map data for the three query shapes the
// enrichment stages issue: per-node way queries, batched node queries and
// batched way queries.
type fakeOverpass struct {
	nodes    map[int64]fakeNode
	nodeWays map[int64][]fakeWay
	ways     map[int64]map[string]string
}

type fakeNode struct {
	lat, lon float64
	tags     map[string]string
}

type fakeWay struct {
	id   int64
	tags map[string]string
}

var nodeIDRe = regexp.MustCompile(`node\(id:([\d,]+)\)`)
var wayIDRe = regexp.MustCompile(`way\(id:([\d,]+)\)`)

func (f *fakeOverpass) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := string(body)

		var elements []map[string]interface{}
		switch {
		case strings.Contains(q, "way(bn)"):
			for _, id := range matchIDs(nodeIDRe, q) {
				elements = append(elements, f.nodeElement(id))
				for _, way := range f.nodeWays[id] {
					elements = append(elements, wayElement(way.id, way.tags))
				}
			}
		case wayIDRe.MatchString(q):
			for _, id := range matchIDs(wayIDRe, q) {
				if tags, ok := f.ways[id]; ok {
					elements = append(elements, wayElement(id, tags))
				}
			}
		default:
			for _, id := range matchIDs(nodeIDRe, q) {
				if _, ok := f.nodes[id]; ok {
					elements = append(elements, f.nodeElement(id))
				}
			}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{"elements": elements})
	}))
}

func (f *fakeOverpass) client(t *testing.T) (*overpass.Client, *httptest.Server) {
	t.Helper()
	srv := f.server(t)
	return overpass.NewClient(zap.NewNop(), srv.URL, 0, 1000, overpass.NewNodeCache(100)), srv
}

func (f *fakeOverpass) nodeElement(id int64) map[string]interface{} {
	n := f.nodes[id]
	el := map[string]interface{}{"type": "node", "id": id, "lat": n.lat, "lon": n.lon}
	if len(n.tags) > 0 {
		el["tags"] = n.tags
	}
	return el
}

func wayElement(id int64, tags map[string]string) map[string]interface{} {
	return map[string]interface{}{"type": "way", "id": id, "tags": tags}
}

func matchIDs(re *regexp.Regexp, q string) []int64 {
	m := re.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	var ids []int64
	for _, s := range strings.Split(m[1], ",") {
		id, _ := strconv.ParseInt(s, 10, 64)
		ids = append(ids, id)
	}
	return ids
}
