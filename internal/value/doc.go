// Package value defines the payloads cells produce: a numeric value
// carrying a unit, the cached per-cell result, and the per-cell error
// taxonomy. Numbers are cty.Number values so arithmetic stays
// arbitrary precision and bit-reproducible across runs.
package value
