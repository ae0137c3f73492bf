// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// # Basic Usage
//
// Coefficients are estimated once and then applied to any history:
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(train); err != nil {
//	    return err
//	}
//
//	// one-step forecast following the first t-1 observations
//	next, _ := model.Predict(values[:t-1], 1)
//
//	// multi-step forecast past the end of the series
//	forecasts, _ := model.Predict(values, 10)
//
// # Residual Analysis
//
//	summary := model.Summary()
//	if summary.LjungBox != nil && summary.LjungBox.PValue < 0.05 {
//	    // residuals are autocorrelated
//	}
package arima
