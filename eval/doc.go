// Package eval measures retrieval quality against labelled query sets.
//
// A query set lists queries with the pattern ids judged relevant to each.
// The Runner searches every query once and scores the ranked ids at each
// cutoff k with precision@k and reciprocal rank@k. Results can be written
// as CSV, one row per (set, query, k), plus per-set averages.
package eval
