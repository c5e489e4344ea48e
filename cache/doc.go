// Package cache provides a time-bounded in-memory store for chat entities.
//
// It keeps one table per entity kind (user, team, channel, post), indexed by
// primary id, plus secondary name indices for teams and channels that
// redirect into the primary tables. Entries expire after a uniform TTL;
// expired entries are treated as absent on read and removed lazily.
package cache
