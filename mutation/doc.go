// Package mutation applies create, update, and delete operations to remote
// resources and invalidates the cached views they affect.
//
// A Coordinator runs each Intent through a Writer. Only after the write
// succeeds does it invalidate every cached key of the intent's resource
// (and of any dependent resources), so subscribed views re-fetch while
// unobserved ones are dropped on next access. A failed write invalidates
// nothing. Concurrent mutations are not serialized.
//
//	lessons := coord.For("lessons")
//	res, err := lessons.Create(ctx, map[string]any{"name": "Greetings", "number": 1})
//	// res.Invalidated lists every "lessons" key that went stale.
package mutation
