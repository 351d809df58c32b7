package enrich

import (
	"context"
	"math"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/elevation"
	"github.com/viroco/tracerouting/pkg/osrm"
	"github.com/viroco/tracerouting/pkg/overpass"
	"github.com/viroco/tracerouting/pkg/pipeline"
	"github.com/viroco/tracerouting/pkg/refdata"
	"github.com/viroco/tracerouting/pkg/resample"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

// Result of one full enrichment run.
type Result struct {
	Rows      []datastructure.FeatureRow `json:"-"`
	Resampled *resample.Table            `json:"resampled"`
	Polyline  string                     `json:"polyline"`
	Warnings  []datastructure.Warning    `json:"warnings"`
}

// Runner wires the remote clients into the enrichment pipeline and runs
// traces through it. Safe for concurrent use; every run gets its own
// pipeline instance and warning collector.
type Runner struct {
	log      *zap.Logger
	cfg      *util.Config
	osrm     *osrm.Client
	overpass *overpass.Client
	elev     *elevation.Client
	enricher WayEnricher
	policies map[string]resample.Kind
}

func NewRunner(log *zap.Logger, cfg *util.Config, osrmClient *osrm.Client,
	overpassClient *overpass.Client, elevClient *elevation.Client) (*Runner, error) {

	policies := resample.DefaultPolicies()
	for col, raw := range cfg.SegmentationOptions {
		kind, err := resample.KindFromString(raw)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrSegmentationPolicy,
				"segmentation policy for column %q", col)
		}
		policies[col] = kind
	}

	return &Runner{
		log:      log,
		cfg:      cfg,
		osrm:     osrmClient,
		overpass: overpassClient,
		elev:     elevClient,
		enricher: DefaultWayEnricher{},
		policies: policies,
	}, nil
}

// SetWayEnricher swaps the way tag extraction strategy.
func (r *Runner) SetWayEnricher(e WayEnricher) {
	r.enricher = e
}

// Run enriches one trace end to end. options enables or disables pipeline
// steps by id; a nil map runs everything.
func (r *Runner) Run(ctx context.Context, points []datastructure.TracePoint,
	options map[string]bool) (*Result, error) {

	warns := datastructure.NewWarnings()

	p := pipeline.New(r.log,
		[]string{"points", "match", "df", "original_data"},

		pipeline.NewStep("build_cache", func(ctx context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			if r.cfg.TownsFile != "" {
				if _, err := refdata.LoadTownCache(r.cfg.TownsFile); err != nil {
					return nil, err
				}
			}
			return prev, nil
		}),

		pipeline.NewStep("drop_nearby_points", func(_ context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return DropNearbyPoints(prev.([]datastructure.TracePoint), 1.0, warns), nil
		}).StoreAs("points"),

		pipeline.NewStep("match", func(ctx context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return r.osrm.Match(ctx, prev.([]datastructure.TracePoint),
				r.cfg.MatchConfidence, r.cfg.MatchStrictMode, warns)
		}).StoreAs("match"),

		pipeline.NewStep("match_to_waypoints", func(_ context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return osrm.SmoothSpeeds(osrm.Waypoints(prev.(*osrm.MatchResponse))), nil
		}),

		pipeline.NewStep("bind_nodes", func(ctx context.Context, prev interface{}, store *pipeline.Store) (interface{}, error) {
			match, err := store.Get("match")
			if err != nil {
				return nil, err
			}
			return BindNodes(ctx, r.overpass,
				prev.([]datastructure.FeatureRow), match.(*osrm.MatchResponse))
		}).StoreAs("df"),

		pipeline.NewStep("binding_table", func(_ context.Context, _ interface{}, store *pipeline.Store) (interface{}, error) {
			pts, err := store.Get("points")
			if err != nil {
				return nil, err
			}
			match, err := store.Get("match")
			if err != nil {
				return nil, err
			}
			return BindingTable(pts.([]datastructure.TracePoint), match.(*osrm.MatchResponse), warns)
		}).StoreAs("original_data"),

		pipeline.NewStep("bind_original_data", func(_ context.Context, _ interface{}, store *pipeline.Store) (interface{}, error) {
			df, err := store.Get("df")
			if err != nil {
				return nil, err
			}
			binding, err := store.Get("original_data")
			if err != nil {
				return nil, err
			}
			return BindOriginalData(df.([]datastructure.FeatureRow),
				binding.([]datastructure.BindingRow), warns), nil
		}),

		pipeline.NewStep("label_elevation", func(ctx context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return r.labelElevation(ctx, prev.([]datastructure.FeatureRow))
		}),

		pipeline.NewStep("add_way_data", func(ctx context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return AddWayData(ctx, r.overpass, prev.([]datastructure.FeatureRow), r.enricher)
		}),

		pipeline.NewStep("label_junctions", func(ctx context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return LabelJunctions(ctx, r.overpass,
				prev.([]datastructure.FeatureRow), r.cfg.NodeQueryWorkers)
		}),

		pipeline.NewStep("drop_unwanted_columns", func(_ context.Context, prev interface{}, _ *pipeline.Store) (interface{}, error) {
			return r.dropUnwantedColumns(prev.([]datastructure.FeatureRow)), nil
		}),
	)

	p.ProcessOptions(options)

	out, err := p.Run(ctx, points)
	if err != nil {
		return nil, err
	}
	rows := out.([]datastructure.FeatureRow)

	table, err := resample.Resample(rows, r.policies)
	if err != nil {
		return nil, err
	}

	match, err := p.Store().Get("match")
	if err != nil {
		return nil, err
	}

	for _, w := range warns.Items() {
		r.log.Warn(w.Message, zap.String("kind", string(w.Kind)))
	}

	return &Result{
		Rows:      rows,
		Resampled: table,
		Polyline:  match.(*osrm.MatchResponse).EncodedPolyline(),
		Warnings:  warns.Items(),
	}, nil
}

func (r *Runner) labelElevation(ctx context.Context, rows []datastructure.FeatureRow) ([]datastructure.FeatureRow, error) {
	lats, lons := datastructure.Coordinates(rows)
	elevations, err := r.elev.Lookup(ctx, lats, lons)
	if err != nil {
		return nil, err
	}

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Elevation = elevations[i]
	}
	return out, nil
}

// dropUnwantedColumns blanks the original coordinate binding columns; the
// resampler omits all-missing columns, so blanking here removes them from
// the output table.
func (r *Runner) dropUnwantedColumns(rows []datastructure.FeatureRow) []datastructure.FeatureRow {
	if !r.cfg.DropUnwantedColumns {
		return rows
	}

	out := make([]datastructure.FeatureRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].OriginalLat = math.NaN()
		out[i].OriginalLon = math.NaN()
	}
	return out
}
