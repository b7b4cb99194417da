package vectors

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/google/renameio"
)

// Write stores rows at path. The file appears atomically: readers see
// either the previous file or the complete new one.
func Write(path string, rows [][]float32) error {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}

	pending, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	w := bufio.NewWriterSize(pending, 1<<20)
	if _, err := w.Write(encodeHeader(len(rows), dim)); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for i, r := range rows {
		if len(r) != dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(r), dim)
		}
		for _, v := range r {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}
