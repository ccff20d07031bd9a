// Package unit models physical units as SI dimension vectors and
// provides the Resolver the evaluator consults before combining values.
//
// The engine itself only depends on the Resolver interface, so hosts can
// inject their own unit system; the SI implementation here covers the
// base dimensions, common derived units, and decimal-scaled variants.
package unit
