package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/sirupsen/logrus"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

// Apply sets a named search parameter on cfg. Supported names are "T",
// "mu" and "fill".
func Apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "T", "temperature":
		cfg.Thermo.Temperature = v
	case "mu":
		cfg.Thermo.Mu = v
	case "fill":
		cfg.Lattice.Fill = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// Target scores a finished run; lower is better.
type Target func(res *experiment.Result) float64

// MetricDistance scores a run by |metric - want|.
func MetricDistance(metric string, want float64) Target {
	return func(res *experiment.Result) float64 {
		v, ok := res.Metrics[metric]
		if !ok {
			return math.Inf(1)
		}
		return math.Abs(v - want)
	}
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Evaluation is one grid point and its score.
type Evaluation struct {
	Params map[string]float64
	Score  float64
}

// Search runs base at every grid point and returns the best parameters,
// their score and every evaluation in grid order. Points that fail to
// build or run are logged and skipped; a cancelled context stops the
// search.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, target Target) (map[string]float64, float64, []Evaluation, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if err := Apply(base.Clone(), name, 0); err != nil {
			return nil, 0, nil, err
		}
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var evals []Evaluation

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := base.Clone()
		for k, v := range params {
			_ = Apply(cfg, k, v)
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			logrus.Warnf("grid point %v: %v", params, err)
			return nil
		}
		res, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Warnf("grid point %v: %v", params, err)
			return nil
		}

		score := target(res)
		evals = append(evals, Evaluation{Params: params, Score: score})
		logrus.Debugf("grid point %v: score %.6g", params, score)
		if score < best {
			best = score
			bestParams = params
		}
		return nil
	})
	return bestParams, best, evals, err
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
