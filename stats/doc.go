// Package stats provides statistical routines for the autoregressive model
// family.
//
// All functions operate on plain value slices so they can be applied to a
// train split, a differenced series or a residual vector alike.
//
// # Autocorrelation
//
//	acf := stats.ACF(values, 10)
//	phi := stats.YuleWalker(acf, 2) // initial AR(2) coefficients
//
// # Stationarity
//
// The KPSS test has stationarity as its null hypothesis:
//
//	kpss := stats.KPSS(values, 0)
//	if !kpss.IsStationary {
//	    values = stats.Diff(values, 1)
//	}
//
// NDiffs repeats the test on successive differences:
//
//	d := stats.NDiffs(values, 2)
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.PValue > 0.05 {
//	    // residuals look like white noise
//	}
package stats
