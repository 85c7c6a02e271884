package mc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds replica i around its own random stream. Replicas must not
// share lattices or potentials that are mutated during a run.
type Factory func(i int, src Source) (*System, error)

type ReplicaResult struct {
	Index      int
	Seed       int64
	Averages   Averages
	Metrics    map[string]float64
	Acceptance Acceptance
	System     *System
}

// Ensemble runs independent replicas concurrently and gathers their results
// by index.
type Ensemble struct {
	build   Factory
	n       int
	streams *Streams
	limit   int
}

func NewEnsemble(n int, master int64, build Factory) *Ensemble {
	return &Ensemble{build: build, n: n, streams: NewStreams(master), limit: -1}
}

// SetLimit bounds the number of replicas running at once; n <= 0 means no
// limit.
func (e *Ensemble) SetLimit(n int) {
	if n <= 0 {
		n = -1
	}
	e.limit = n
}

func (e *Ensemble) Size() int { return e.n }

// Run equilibrates every replica for warmup steps, then measures for steps.
func (e *Ensemble) Run(ctx context.Context, warmup, steps int, mode Mode) ([]ReplicaResult, error) {
	if e.build == nil {
		return nil, fmt.Errorf("%w: ensemble factory", ErrNilComponent)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}

	srcs := make([]Source, e.n)
	for i := range srcs {
		srcs[i] = e.streams.For(ReplicaName(i))
	}

	results := make([]ReplicaResult, e.n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i := 0; i < e.n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sys, err := e.build(i, srcs[i])
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			if warmup > 0 {
				if _, err := sys.Run(warmup, mode); err != nil {
					return fmt.Errorf("replica %d warmup: %w", i, err)
				}
			}
			sys.ResetAcceptance()
			avg, err := sys.Run(steps, mode)
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			results[i] = ReplicaResult{
				Index:      i,
				Seed:       e.streams.Seed(ReplicaName(i)),
				Averages:   avg,
				Metrics:    sys.Metrics(),
				Acceptance: sys.Acceptance(),
				System:     sys,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
