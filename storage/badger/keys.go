package badger

import (
	"encoding/binary"

	"github.com/poiesic/patternsearch/core"
)

// Key prefixes for different data types
const (
	rowPrefix     = "addrrow:"
	patternPrefix = "addrpat:"
	rowCountKey   = "addrmeta:rows"
)

// makeRowKey generates a key for a row.
// Format: prefix:row
func makeRowKey(row core.RowID) []byte {
	return appendUint64([]byte(rowPrefix), uint64(row))
}

// makePatternKey generates a key for the rows of a pattern.
// Format: prefix:patternID
func makePatternKey(id core.PatternID) []byte {
	return appendUint64([]byte(patternPrefix), uint64(id))
}

// appendUint64 writes v in BigEndian order so lexicographic sort matches numeric sort.
func appendUint64(prefix []byte, v uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], v)
	return buf
}
