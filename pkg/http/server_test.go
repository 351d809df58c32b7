package http

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGracefulShutdownReturnsGroupError(t *testing.T) {
	bindErr := errors.New("listen tcp :6060: bind: address already in use")

	g := &errgroup.Group{}
	g.Go(func() error { return bindErr })

	sig, err := GracefulShutdown(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, bindErr)
	assert.Nil(t, sig)
}
