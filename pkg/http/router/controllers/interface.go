package controllers

import (
	"context"

	"github.com/viroco/tracerouting/pkg/datastructure"
	"github.com/viroco/tracerouting/pkg/enrich"
)

type EnrichService interface {
	Enrich(ctx context.Context, points []datastructure.TracePoint,
		options map[string]bool) (*enrich.Result, error)
}
