package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func square(_ context.Context, prev interface{}, _ *Store) (interface{}, error) {
	return prev.(int) * prev.(int), nil
}

func addTen(_ context.Context, prev interface{}, _ *Store) (interface{}, error) {
	return prev.(int) + 10, nil
}

func TestRunChainsStepsInOrder(t *testing.T) {
	log := zap.NewNop()

	p := New(log, []string{"foobar"},
		NewStep("square", square).StoreAs("foobar"),
		NewStep("add_ten", addTen),
		NewStep("sum_with_stored", func(_ context.Context, prev interface{}, store *Store) (interface{}, error) {
			stored, err := store.Get("foobar")
			if err != nil {
				return nil, err
			}
			return prev.(int) + stored.(int), nil
		}),
	)

	out, err := p.Run(context.Background(), 4)
	require.NoError(t, err)
	// 4^2=16 stored, 16+10=26, 26+16=42
	assert.Equal(t, 42, out)
}

func TestDisabledStepPassesThroughAndRebinds(t *testing.T) {
	log := zap.NewNop()

	p := New(log, []string{"val"},
		NewStep("square", square).StoreAs("val"),
		NewStep("add_ten", addTen).StoreAs("val"),
	)
	p.ProcessOptions(map[string]bool{"add_ten": false})

	out, err := p.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 9, out, "disabled step must pass the previous value through")

	stored, err := p.store.Get("val")
	require.NoError(t, err)
	assert.Equal(t, 9, stored, "disabled step must still rebind its output name")
}

func TestFirstErrorAbortsRun(t *testing.T) {
	log := zap.NewNop()
	boom := errors.New("boom")
	ran := false

	p := New(log, nil,
		NewStep("fails", func(context.Context, interface{}, *Store) (interface{}, error) {
			return nil, boom
		}),
		NewStep("never", func(context.Context, interface{}, *Store) (interface{}, error) {
			ran = true
			return nil, nil
		}),
	)

	_, err := p.Run(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran, "steps after a failure must not run")
}

func TestObserverSeesEveryStep(t *testing.T) {
	log := zap.NewNop()
	var labels []string

	p := New(log, nil,
		NewStep("square", square),
		NewStep("", addTen),
	)
	p.SetObserver(func(_, _ interface{}, label string, _ time.Duration) {
		labels = append(labels, label)
	})

	_, err := p.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "[1] square", labels[0])
	assert.Equal(t, "[2] step_2", labels[1], "unnamed steps are addressed by a derived default name")
}

func TestUndeclaredStoreKeyFails(t *testing.T) {
	log := zap.NewNop()

	p := New(log, []string{"known"},
		NewStep("square", square).StoreAs("unknown"),
	)

	_, err := p.Run(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}
