// Package query prepares raw user queries for embedding.
//
// A query is first corrected word by word against a domain-aware
// dictionary and then passed through the same text normalizer used for
// chunk text at ingestion time, so query and corpus share a vocabulary.
//
// Basic usage:
//
//	n, err := query.New(normalize.New(nil))
//	if err != nil {
//		return err
//	}
//	q := n.Normalize("granny sqaure blanket in worsted")
//	// q == "granny square blanket in worsted"
//
// Correction is best effort. Words the dictionary does not know and cannot
// confidently correct pass through unchanged.
package query
