// Package health reports the operational health of a token cache's
// dependencies: the durable entry store and the tokenizer key provider.
//
// A Checker probes one component and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. The Aggregator combines checkers into a
// single composite check whose overall status is the worst individual one.
//
// # Basic Usage
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(st))
//	agg.Register("keys", health.NewProviderChecker(provider))
//
//	results := agg.CheckAll(ctx)
//	if agg.OverallStatus(results) != health.StatusHealthy {
//	    // take the instance out of rotation
//	}
//
// The StoreChecker probes with a reserved identifier that no real entry can
// collide with; a not-found answer proves the store round trip works and
// counts as healthy.
package health
