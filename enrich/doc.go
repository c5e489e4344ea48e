// Package enrich attaches resolved display fields to raw chat records.
//
// Enrichment is batched across a whole result set: the distinct author ids
// (and, for search results, channel ids) are collected once and resolved in
// one pass, so a page of N posts by K distinct authors costs at most K
// resolver fetches. Output always preserves input order and cardinality.
package enrich
