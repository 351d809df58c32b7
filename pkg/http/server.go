package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/viroco/tracerouting/pkg/http/router"
	"github.com/viroco/tracerouting/pkg/http/router/controllers"
	http_server "github.com/viroco/tracerouting/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the enrichment API in the background and returns the errgroup
// so the caller can wait on it.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	enrichService controllers.EnrichService,
) (*errgroup.Group, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("API_TIMEOUT", "1000s")

	config := http_server.Config{
		Port:    viper.GetInt("API_PORT"),
		Timeout: viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log)

	g := &errgroup.Group{}

	g.Go(func() error {
		return server.Run(
			ctx, config, log,
			enrichService,
		)
	})

	return g, nil
}

// GracefulShutdown blocks until an interrupt or termination signal arrives
// or the server group fails, whichever comes first. A failed group (a port
// that cannot be bound, for instance) surfaces as the returned error.
func GracefulShutdown(g *errgroup.Group) (os.Signal, error) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	failed := make(chan error, 1)
	go func() {
		failed <- g.Wait()
	}()

	select {
	case sig := <-quit:
		return sig, nil
	case err := <-failed:
		return nil, err
	}
}
