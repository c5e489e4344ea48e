// Package resolve turns sets of entity ids into entities with at most one
// remote fetch per distinct missing id.
//
// A Resolver is bound to a cache lookup, a cache write-back, a remote fetch
// and a placeholder constructor. Ids found in the cache are served directly;
// each distinct miss is fetched once, deduplicated across concurrent callers
// with singleflight. An individual fetch failure yields a placeholder entity
// instead of failing the batch, so one bad reference never blocks display of
// the rest.
package resolve
