// Package timeseries provides the keyed time series used by every model.
//
// A TimeSeries maps 1-based time indices to values. Values appended with
// AddTimeValue are keyed by position; Add can set any index. The series
// tracks the largest value ever inserted so it can be normalized for model
// fitting and denormalized for reporting.
//
// # Creating a Series
//
//	series := timeseries.FromValues([]float64{1.0, 2.0, 1.3, 1.0})
//	v, err := series.TimeValue(2) // 2.0
//
// # Loading from CSV
//
// Input files are semicolon separated and may use a comma as the decimal
// separator:
//
//	series, err := timeseries.LoadCSV("input/ts.csv", nil)
//
// # Normalization
//
//	series.Normalize()   // divide by the tracked maximum
//	series.Denormalize() // multiply back
//
// Forecasts computed on a normalized series are denormalized with the
// maximum of the input:
//
//	calc.DenormalizeWith(series.MaxValue())
//
// # Splitting
//
// Split partitions by position, never by index value:
//
//	train, test, validate := series.Split(70, 20)
package timeseries
