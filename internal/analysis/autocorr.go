package analysis

import (
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Window is the factor c in Sokal's self-consistent window W >= c * tau(W).
const Window = 5.0

// Autocorrelation returns rho(0..maxLag) of xs. maxLag <= 0 or past the
// end is clamped to len(xs)-1. A constant series has rho(0) = 1 and zero
// elsewhere.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	if n < 2 {
		return nil
	}
	if maxLag <= 0 || maxLag >= n {
		maxLag = n - 1
	}

	mean := stat.Mean(xs, nil)
	padded := make([]float64, nextPow2(2*n))
	for i, x := range xs {
		padded[i] = x - mean
	}

	spec := fft.FFTReal(padded)
	for i, c := range spec {
		spec[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	acov := fft.IFFT(spec)

	rho := make([]float64, maxLag+1)
	rho[0] = 1
	c0 := real(acov[0])
	if c0 <= 0 {
		return rho
	}
	for k := 1; k <= maxLag; k++ {
		rho[k] = real(acov[k]) / c0
	}
	return rho
}

// IntegratedTime returns tau = 1 + 2 sum rho(k) summed up to the first
// window W with W >= Window * tau(W).
func IntegratedTime(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	rho := Autocorrelation(xs, 0)
	tau := 1.0
	for w := 1; w < len(rho); w++ {
		tau += 2 * rho[w]
		if float64(w) >= Window*tau {
			break
		}
	}
	return tau
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
