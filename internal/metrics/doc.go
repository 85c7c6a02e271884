// Package metrics reduces per-step Monte Carlo samples to thermodynamic
// observables. Every type implements mc.Metric and can be attached with
// System.AddMetric; values reset at the start of each run.
package metrics
