// Package analysis estimates statistical errors of correlated Monte Carlo
// time series.
//
// Successive Metropolis samples are correlated, so the naive standard
// error underestimates the true one by a factor sqrt(tau), where tau is the
// integrated autocorrelation time:
//
//   - [Autocorrelation]: normalized autocorrelation function via FFT
//   - [IntegratedTime]: tau with Sokal's automatic window
//   - [BlockError]: standard error of the mean from block averages
//   - [Summarize]: mean, corrected error and tau in one pass
//
// A typical use on a recorded energy series:
//
//	s := analysis.Summarize(rec.Energies())
//	fmt.Printf("E = %.3f +/- %.3f (tau %.1f)\n", s.Mean, s.StdErr, s.Tau)
package analysis
