// Package health derives a 0-100 operational score per deployment from a
// cluster snapshot. Scoring is a pure recomputation on every call; no state
// is kept between scoring passes.
package health
