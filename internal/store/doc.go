// Package store is the authoritative holder of cell state: what each
// cell contains, its cached result, and version counters for both. The
// store does no evaluation and knows nothing about dependency order; it
// only keeps state and reports what changed.
package store
