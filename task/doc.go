// Package task implements the background checklist pipeline: a durable task
// store (in-memory or sqlite), a bounded worker queue running under a
// detached context, the two-stage generation/extraction pipeline and a
// poller the request path uses to wait briefly for results.
//
// A submitted task survives the request that created it. Its result stays
// available through the store until the retention window expires; after that
// lookups fail with core.ErrTaskNotFound.
package task
