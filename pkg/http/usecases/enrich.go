package usecases

import (
	"context"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/enrich"
	"go.uber.org/zap"
)

// Runner runs a trace through the full enrichment pipeline.
type Runner interface {
	Run(ctx context.Context, points []datastructure.TracePoint,
		options map[string]bool) (*enrich.Result, error)
}

type EnrichService struct {
	log    *zap.Logger
	runner Runner
}

func NewEnrichService(log *zap.Logger, runner Runner) *EnrichService {
	return &EnrichService{log: log, runner: runner}
}

func (s *EnrichService) Enrich(ctx context.Context, points []datastructure.TracePoint,
	options map[string]bool) (*enrich.Result, error) {

	s.log.Info("enriching trace", zap.Int("points", len(points)))

	result, err := s.runner.Run(ctx, points, options)
	if err != nil {
		return nil, err
	}

	s.log.Info("trace enriched",
		zap.Int("waypoints", len(result.Rows)),
		zap.Int("grid_rows", result.Resampled.Len()),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}
