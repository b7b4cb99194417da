package core

import (
	"cmp"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// PatternID identifies a pattern document. It is assigned by the upstream
// catalogue and is stable across rebuilds.
type PatternID int64

// RowID is the dense, 0-based position of a chunk in the embedding matrix.
type RowID int64

// SourceKind names the text block a chunk was cut from.
type SourceKind string

const (
	// SourceNotes is the designer's free-text description of a pattern.
	SourceNotes SourceKind = "notes"
	// SourcePattern is the extracted body of the pattern instructions.
	SourcePattern SourceKind = "pattern"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	return k == SourceNotes || k == SourcePattern
}

// ChunkKey addresses one chunk of one text block of one pattern.
// Order is 1-based within (PatternID, Source).
type ChunkKey struct {
	PatternID PatternID
	Source    SourceKind
	Order     int
}

// Compare orders keys by source kind, then pattern id, then order.
// This is the order in which row ids are assigned.
func (k ChunkKey) Compare(o ChunkKey) int {
	if c := cmp.Compare(k.Source, o.Source); c != 0 {
		return c
	}
	if c := cmp.Compare(k.PatternID, o.PatternID); c != 0 {
		return c
	}
	return cmp.Compare(k.Order, o.Order)
}

// Chunk is a window of normalized words. Start and End are word offsets
// into the normalized text, End exclusive.
type Chunk struct {
	ChunkKey
	Text  string
	Start int
	End   int
}

// RowMeta binds a row id to the chunk stored there.
type RowMeta struct {
	Row RowID
	Key ChunkKey
}

// TextBlock is one raw text source of a document.
type TextBlock struct {
	Kind SourceKind
	Text string
}

// Attributes are the structured, filterable facts about a pattern.
// Empty strings, nil slices and the zero time mean the attribute is absent.
type Attributes struct {
	Category      string
	WeightClass   string
	Materials     []string
	Techniques    []string
	Stitches      []string
	HookSizesMM   []float64
	NeedleSizesMM []float64
	// HasPDF is set when a local copy of the pattern PDF exists.
	HasPDF    bool
	Published time.Time
}

// Document is a pattern as handed to ingestion.
type Document struct {
	ID         PatternID
	Name       string
	Link       string
	Blocks     []TextBlock
	Attributes Attributes
}

// Predicate is a conjunction of structured constraints. Zero-valued
// fields are unconstrained; the zero Predicate matches every document.
type Predicate struct {
	Category      string
	WeightClass   string
	MaterialsAny  []string
	TechniquesAny []string
	StitchesAny   []string
	HookMM        *float64
	NeedleMM      *float64
	HasPDF        *bool
	// PublishedFrom keeps patterns published on or after this day.
	// Patterns without a publication date never match it.
	PublishedFrom time.Time
	// ToleranceMM applies to both tool sizes. Zero selects DefaultToleranceMM.
	ToleranceMM float64
}

// DefaultToleranceMM is the window applied around requested tool sizes.
const DefaultToleranceMM = 0.25

// IsEmpty reports whether p places no constraint at all.
func (p Predicate) IsEmpty() bool {
	return p.Category == "" && p.WeightClass == "" &&
		len(p.MaterialsAny) == 0 && len(p.TechniquesAny) == 0 && len(p.StitchesAny) == 0 &&
		p.HookMM == nil && p.NeedleMM == nil && p.HasPDF == nil && p.PublishedFrom.IsZero()
}

// Tolerance returns the effective size tolerance.
func (p Predicate) Tolerance() float64 {
	if p.ToleranceMM <= 0 {
		return DefaultToleranceMM
	}
	return p.ToleranceMM
}

// Result is one ranked pattern with the chunk that earned its score.
type Result struct {
	PatternID PatternID
	Score     float32
	Row       RowID
	Source    SourceKind
	Order     int
}

// Fingerprint is a streaming BLAKE2b digest used to identify snapshot contents.
type Fingerprint struct {
	h   hash.Hash
	buf []byte
}

// NewFingerprint returns an empty fingerprint.
func NewFingerprint() *Fingerprint {
	h, _ := blake2b.New(16, nil)
	return &Fingerprint{h: h}
}

// Add feeds parts into the fingerprint, length-prefixed so that
// ("ab","c") and ("a","bc") differ.
func (f *Fingerprint) Add(parts ...string) {
	for _, p := range parts {
		f.buf = binary.AppendUvarint(f.buf[:0], uint64(len(p)))
		f.h.Write(f.buf)
		f.h.Write([]byte(p))
	}
}

// Sum returns the hex digest of everything added so far.
func (f *Fingerprint) Sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}
