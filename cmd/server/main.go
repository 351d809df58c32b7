package main

import (
	"context"

	"github.com/viroco/tracerouting/pkg"
	"github.com/viroco/tracerouting/pkg/elevation"
	"github.com/viroco/tracerouting/pkg/enrich"
	"github.com/viroco/tracerouting/pkg/http"
	"github.com/viroco/tracerouting/pkg/http/usecases"
	"github.com/viroco/tracerouting/pkg/logger"
	"github.com/viroco/tracerouting/pkg/osrm"
	"github.com/viroco/tracerouting/pkg/overpass"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	config, err := util.ReadConfig()
	if err != nil {
		panic(err)
	}

	osrmClient := osrm.NewClient(logger, config.OsrmAPIServer,
		config.RequestTimeout, config.OsrmLocationLimit)
	overpassClient := overpass.NewClient(logger, config.OverpassAPIServer,
		config.RequestTimeout, config.NodeQueryRate,
		overpass.NewNodeCache(pkg.NODE_TAG_CACHE_CAPACITY))
	elevationClient := elevation.NewClient(logger, config.OpenElevationAPIServer,
		config.RequestTimeout)

	runner, err := enrich.NewRunner(logger, config, osrmClient, overpassClient, elevationClient)
	if err != nil {
		panic(err)
	}

	api := http.NewServer(logger)
	enrichService := usecases.NewEnrichService(logger, runner)

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	g, err := api.Use(ctx, logger, enrichService)
	if err != nil {
		panic(err)
	}

	signal, err := http.GracefulShutdown(g)
	if err != nil {
		logger.Error("Trace Enrichment Server Failed", zap.Error(err))
	} else {
		logger.Info("Trace Enrichment Server Stopped", zap.String("signal", signal.String()))
	}
	cleanup()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
