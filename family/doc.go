// Package family provides the base forecasting models pooled by the search:
// an autoregressive integrated model, a lag-window neural network and a
// remote fuzzy-inference model. Every type implements model.Model.
//
// All three are fit against the train split of the shared series and
// answer in-sample forecasts for any index in [Order()+1, Len()+1]:
//
//	m, err := family.NewArima(series, 1, 0, 1, 5, model.DefaultSplit)
//	if err != nil {
//	    return err
//	}
//	if err := m.Fit(ctx); err != nil {
//	    return err
//	}
//	next, _ := m.Forecast(series.Len() + 1)
//	ahead := m.Predictions() // five steps past the end
package family
