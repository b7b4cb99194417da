// Package filter defines the structured filter index: the component that
// narrows the corpus to patterns whose category, yarn weight, materials,
// techniques, stitches and tool sizes satisfy a predicate before any
// vector scoring happens.
//
// Two backends implement Store. filter/bleve keeps a keyword and numeric
// field index; filter/sqlite keeps normalized tables and answers with
// conjunctive SQL. Both return candidate ids in ascending order so that a
// capped candidate set is the same on every call.
package filter
