// Package health reports whether the cache and its transport are usable.
//
// A Checker reports a Result with a Status of Healthy, Degraded, or
// Unhealthy. cache.Store and transport.Client both implement Checker; an
// Aggregator runs several checkers with a shared timeout and folds their
// results into one overall status:
//
//	agg := health.NewAggregator()
//	agg.Register(store)
//	agg.Register(client)
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
package health
