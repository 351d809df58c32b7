// Package pipeline runs an ordered list of named steps over a single value,
// with a small typed store for intermediates that later steps read back.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StepFunc transforms the previous step's output. Steps that need more than
// the previous value read named intermediates from the store.
type StepFunc func(ctx context.Context, prev interface{}, store *Store) (interface{}, error)

// Observer is invoked after every step for timing and diagnostics only. It
// has no effect on control flow.
type Observer func(input, output interface{}, label string, elapsed time.Duration)

type Step struct {
	id      string
	storeAs string
	enabled bool
	run     StepFunc
}

func NewStep(id string, run StepFunc) Step {
	return Step{id: id, enabled: true, run: run}
}

// StoreAs binds the step output to a declared store key after the step ran.
func (s Step) StoreAs(key string) Step {
	s.storeAs = key
	return s
}

func (s Step) ID() string {
	return s.id
}

// Store holds named intermediate values. The key set is closed: it is
// declared when the pipeline is built, and reads or writes outside of it
// fail instead of silently growing the store.
type Store struct {
	allowed map[string]struct{}
	values  map[string]interface{}
}

func newStore(keys []string) *Store {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return &Store{
		allowed: allowed,
		values:  make(map[string]interface{}, len(keys)),
	}
}

func (st *Store) Get(key string) (interface{}, error) {
	if _, ok := st.allowed[key]; !ok {
		return nil, fmt.Errorf("store key %q not declared for this pipeline", key)
	}
	v, ok := st.values[key]
	if !ok {
		return nil, fmt.Errorf("store key %q not set yet", key)
	}
	return v, nil
}

func (st *Store) set(key string, v interface{}) error {
	if _, ok := st.allowed[key]; !ok {
		return fmt.Errorf("store key %q not declared for this pipeline", key)
	}
	st.values[key] = v
	return nil
}

type Pipeline struct {
	steps    []Step
	store    *Store
	log      *zap.Logger
	observer Observer
}

// New builds a pipeline over the given steps. keys declares the closed set
// of store keys steps may bind to or read. Steps without an id get a derived
// default name so they can still be addressed by the options map.
func New(log *zap.Logger, keys []string, steps ...Step) *Pipeline {
	for i := range steps {
		if steps[i].id == "" {
			steps[i].id = fmt.Sprintf("step_%d", i+1)
		}
	}
	return &Pipeline{
		steps: steps,
		store: newStore(keys),
		log:   log,
	}
}

// Store exposes the intermediate store, so callers can read stored values
// back after the run finished.
func (p *Pipeline) Store() *Store {
	return p.store
}

func (p *Pipeline) SetObserver(obs Observer) *Pipeline {
	p.observer = obs
	return p
}

// ProcessOptions enables or disables steps by id before the run starts.
// Unknown ids are ignored, matching only by the step id.
func (p *Pipeline) ProcessOptions(options map[string]bool) *Pipeline {
	for id, enabled := range options {
		for i := range p.steps {
			if p.steps[i].id == id {
				p.steps[i].enabled = enabled
			}
		}
	}
	return p
}

// Run executes the steps strictly in order. A disabled step passes the
// previous value through unchanged but still rebinds its store key, if any.
// The first failing step aborts the run; no partial output is returned.
func (p *Pipeline) Run(ctx context.Context, initial interface{}) (interface{}, error) {
	input := initial

	for i, step := range p.steps {
		label := fmt.Sprintf("[%d] %s", i+1, step.id)
		if !step.enabled {
			label += " (skipped)"
		}

		started := time.Now()

		output := input
		if step.enabled {
			var err error
			output, err = step.run(ctx, input, p.store)
			if err != nil {
				return nil, fmt.Errorf("pipeline step %s: %w", step.id, err)
			}
		}

		elapsed := time.Since(started)
		p.log.Debug("pipeline step done",
			zap.String("step", label),
			zap.Duration("elapsed", elapsed))

		if p.observer != nil {
			p.observer(input, output, label, elapsed)
		}

		if step.storeAs != "" {
			if err := p.store.set(step.storeAs, output); err != nil {
				return nil, fmt.Errorf("pipeline step %s: %w", step.id, err)
			}
		}

		input = output
	}

	return input, nil
}
