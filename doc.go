// Package goensemble builds and selects ensembles of forecasting models for
// a single univariate time series.
//
// A search fits a pool of base models (ARIMA, neural and fuzzy, each over a
// range of orders), combines every subset of two or more of them into a
// weighted-average ensemble and a learned ensemble, and keeps the models and
// ensembles whose test MAPE and train/test divergence stay under configured
// borders. Every kept candidate can be written out together with a textual
// description from which it can later be rebuilt and refitted.
//
// # Features
//
//   - Keyed time series with positional train/test/validation splits
//   - ARIMA(p,d,q) estimation with KPSS-based choice of d
//   - Feed-forward networks for the neural family and the learned combiner
//   - Remote fuzzy-inference backend over HTTP
//   - Weighted ensembles sharing a cache of child train errors
//   - Parallel pool and subset fitting with pool, subset and time budgets
//   - Description grammar for rendering and replaying model graphs
//
// # Quick Start
//
// Search ensembles over a series:
//
//	series, _ := timeseries.LoadCSV("input/ts.csv", nil)
//	series.Normalize()
//	engine, _ := sortout.New(series, sortout.DefaultConfig())
//	result, _ := engine.Run(ctx)
//	for _, m := range result.Candidates() {
//		desc, _ := description.Render(m)
//		mape, _ := model.TestMAPE(m)
//		fmt.Println(desc, mape)
//	}
//
// Rebuild a described model:
//
//	f := &sortout.Factory{Series: series, Horizon: 5, Split: model.ReplaySplit}
//	m, _ := sortout.Replay(ctx, "Weighted(Arima(1,0,1); Neural(2))", f)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - timeseries: Time series data structure, splitting and CSV input
//   - quality: MAPE and train/test divergence
//   - model: Model contract, shared model state and error kinds
//   - stats: ACF, KPSS and Ljung-Box tests
//   - arima: ARIMA estimation on plain slices
//   - neural: Small feed-forward regressor
//   - family: ARIMA, neural and fuzzy models
//   - ensemble: Weighted and learned ensembles
//   - description: Model description grammar
//   - sortout: Combinatorial ensemble search
//   - sink: Result and error report files
//   - config: YAML and legacy params configuration
//   - metrics: Prometheus recorder for searches
//
// The goensemble command in cmd/goensemble drives a search or a replay from
// an input directory.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package goensemble
