// Package vectors stores chunk embeddings as a dense row-major float32
// matrix whose row index is the chunk's row id.
package vectors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/blevesearch/mmap-go"
	"github.com/poiesic/patternsearch/core"
)

const (
	magic         = "PSVM"
	formatVersion = 1
	headerSize    = 32
)

var (
	// ErrInvalidFormat is returned for files that are not embedding matrices.
	ErrInvalidFormat = errors.New("invalid embedding matrix file")

	// ErrDimensionMismatch is returned when vectors of different widths are mixed.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Matrix is a read-only view over the embedding store.
type Matrix interface {
	// Rows returns the number of rows.
	Rows() int
	// Dim returns the width of every row.
	Dim() int
	// Row returns a copy of row i, or false when i is out of range.
	Row(i core.RowID) ([]float32, bool)
	// Dot returns the dot product of row i and q, or false when i is out
	// of range or q has the wrong width.
	Dot(i core.RowID, q []float32) (float32, bool)
	// Close releases the underlying storage.
	Close() error
}

// MemMatrix is a Matrix held entirely in memory.
type MemMatrix struct {
	dim  int
	data [][]float32
}

var _ Matrix = (*MemMatrix)(nil)

// NewMatrix wraps rows without copying. All rows must share one width.
func NewMatrix(rows [][]float32) (*MemMatrix, error) {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(r), dim)
		}
	}
	return &MemMatrix{dim: dim, data: rows}, nil
}

func (m *MemMatrix) Rows() int { return len(m.data) }

func (m *MemMatrix) Dim() int { return m.dim }

func (m *MemMatrix) Row(i core.RowID) ([]float32, bool) {
	if i < 0 || int(i) >= len(m.data) {
		return nil, false
	}
	out := make([]float32, m.dim)
	copy(out, m.data[i])
	return out, true
}

func (m *MemMatrix) Dot(i core.RowID, q []float32) (float32, bool) {
	if i < 0 || int(i) >= len(m.data) || len(q) != m.dim {
		return 0, false
	}
	var sum float32
	for j, v := range m.data[i] {
		sum += v * q[j]
	}
	return sum, true
}

func (m *MemMatrix) Close() error { return nil }

// MappedMatrix is a Matrix backed by a read-only memory-mapped file.
type MappedMatrix struct {
	mm   mmap.MMap
	rows int
	dim  int
	body []byte
}

var _ Matrix = (*MappedMatrix)(nil)

// Open memory-maps the matrix file at path.
func Open(path string) (*MappedMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < headerSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidFormat, path, info.Size())
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}

	rows, dim, err := parseHeader(mm[:headerSize])
	if err != nil {
		mm.Unmap()
		return nil, err
	}
	want := int64(headerSize) + int64(rows)*int64(dim)*4
	if int64(len(mm)) != want {
		mm.Unmap()
		return nil, fmt.Errorf("%w: expected %d bytes, found %d", ErrInvalidFormat, want, len(mm))
	}

	return &MappedMatrix{mm: mm, rows: rows, dim: dim, body: mm[headerSize:]}, nil
}

func (m *MappedMatrix) Rows() int { return m.rows }

func (m *MappedMatrix) Dim() int { return m.dim }

func (m *MappedMatrix) row(i core.RowID) ([]byte, bool) {
	if i < 0 || int(i) >= m.rows {
		return nil, false
	}
	stride := m.dim * 4
	off := int(i) * stride
	return m.body[off : off+stride], true
}

func (m *MappedMatrix) Row(i core.RowID) ([]float32, bool) {
	raw, ok := m.row(i)
	if !ok {
		return nil, false
	}
	out := make([]float32, m.dim)
	for j := range out {
		out[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
	}
	return out, true
}

func (m *MappedMatrix) Dot(i core.RowID, q []float32) (float32, bool) {
	if len(q) != m.dim {
		return 0, false
	}
	raw, ok := m.row(i)
	if !ok {
		return 0, false
	}
	var sum float32
	for j, v := range q {
		sum += v * math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
	}
	return sum, true
}

// Close unmaps the file.
func (m *MappedMatrix) Close() error {
	if m.mm == nil {
		return nil
	}
	err := m.mm.Unmap()
	m.mm = nil
	m.body = nil
	return err
}

func parseHeader(h []byte) (rows, dim int, err error) {
	if string(h[:4]) != magic {
		return 0, 0, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if v := binary.LittleEndian.Uint32(h[4:8]); v != formatVersion {
		return 0, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}
	r := binary.LittleEndian.Uint64(h[8:16])
	d := binary.LittleEndian.Uint32(h[16:20])
	if r > math.MaxInt32 || d > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: implausible shape %dx%d", ErrInvalidFormat, r, d)
	}
	return int(r), int(d), nil
}

func encodeHeader(rows, dim int) []byte {
	h := make([]byte, headerSize)
	copy(h, magic)
	binary.LittleEndian.PutUint32(h[4:8], formatVersion)
	binary.LittleEndian.PutUint64(h[8:16], uint64(rows))
	binary.LittleEndian.PutUint32(h[16:20], uint32(dim))
	return h
}
