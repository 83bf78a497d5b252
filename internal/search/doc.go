// Package search resolves user-facing thread searches against a full-text
// index.
//
// The Engine owns request shaping: it validates the sort key, applies page
// defaults, and falls back to per-term spelling suggestions when a literal
// query has no matches. The index itself is reached through the narrow Index
// interface so the engine can be exercised against any implementation.
//
// A correction is only surfaced when the corrected query, under the same
// filters, returns at least one thread.
package search
