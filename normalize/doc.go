// Package normalize turns raw pattern text and queries into the canonical
// token stream that is embedded.
//
// Normalization is driven by a Table, a versioned YAML vocabulary of
// stitch abbreviations and regional synonyms (US and UK crochet terms,
// for example) plus the yarn weight, stitch, technique and hook size
// dictionaries used to derive filterable attributes. A default table is
// embedded in the binary; LoadTableFile replaces it.
package normalize
