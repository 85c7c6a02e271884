package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BlockError splits xs into equal blocks, dropping any remainder at the
// start, and returns the standard error of the mean of the block means.
func BlockError(xs []float64, blocks int) float64 {
	if blocks < 2 || len(xs) < blocks {
		return 0
	}
	size := len(xs) / blocks
	xs = xs[len(xs)-size*blocks:]

	means := make([]float64, blocks)
	for b := range means {
		means[b] = stat.Mean(xs[b*size:(b+1)*size], nil)
	}
	return math.Sqrt(stat.Variance(means, nil) / float64(blocks))
}

type Summary struct {
	Mean   float64
	StdDev float64
	StdErr float64
	Tau    float64
	N      int
}

// Summarize computes the mean of xs with its standard error corrected for
// autocorrelation, sqrt(tau * var / n).
func Summarize(xs []float64) Summary {
	n := len(xs)
	if n < 2 {
		s := Summary{N: n}
		if n == 1 {
			s.Mean = xs[0]
		}
		return s
	}
	mean, std := stat.MeanStdDev(xs, nil)
	tau := IntegratedTime(xs)
	return Summary{
		Mean:   mean,
		StdDev: std,
		StdErr: math.Sqrt(math.Max(tau, 1) * std * std / float64(n)),
		Tau:    tau,
		N:      n,
	}
}
