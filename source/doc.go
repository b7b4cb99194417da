// Package source reads pattern documents from a catalogue directory.
//
// A catalogue holds one metadata JSON file per pattern under metadata/ and,
// optionally, the extracted pattern text under texts/<id>.txt and the
// pattern PDF under pdfs/<id>.pdf. Metadata fields are heterogeneous in
// the wild; a field whose JSON type does not match what is expected is
// treated as absent instead of failing the whole document.
package source
