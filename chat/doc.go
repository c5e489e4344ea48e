// Package chat defines the entity value types exchanged with a
// Mattermost-compatible chat platform.
//
// Entities are plain values identified by opaque string ids. The cache layer
// owns its copies; callers never mutate a cached entity in place.
package chat
