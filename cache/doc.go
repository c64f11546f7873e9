// Package cache holds remote collections keyed by resource and filter
// parameters.
//
// A Store owns every Entry. Reads go through Load or Subscribe; both start
// at most one fetch per Key through a Deduplicator. Mutations elsewhere call
// InvalidateResource, which marks every filter variant of a resource stale
// and re-fetches the ones that still have subscribers. Entries without
// subscribers are evicted lazily the next time they are accessed.
//
// Every fetch carries a generation number. A response is applied only if
// its generation is still the latest issued for its key, so a slow response
// can never overwrite a newer one.
package cache
