// Package sortout searches the power set of a pool of fitted base models for
// ensembles that meet a quality and an overfitting threshold.
//
// The pool holds one model per enabled family and order. Every mask over
// the pool selecting more than one model yields a weighted and a learned
// ensemble; standalone models and ensembles alike must then have a test
// MAPE within QualityBorder and a train/test divergence within
// OverfitBorder to be returned.
//
//	engine, err := sortout.New(series, cfg, sortout.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Run(ctx)
//
// The search is exponential in the pool size, so MaxPoolSize, MaxSubsets
// and Timeout bound it. A run never enumerates more than MaxMasks subsets;
// pools past 16 models need MaxSubsets.
package sortout
