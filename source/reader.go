package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/normalize"
)

// Directory names inside a catalogue.
const (
	MetadataDir = "metadata"
	TextsDir    = "texts"
	PDFsDir     = "pdfs"
)

// Reader walks a catalogue directory.
type Reader struct {
	root   string
	table  *normalize.Table
	logger *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader) error

// WithTable sets the vocabulary used to derive attributes.
// Default is normalize.DefaultTable().
func WithTable(table *normalize.Table) Option {
	return func(r *Reader) error {
		if table != nil {
			r.table = table
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewReader returns a Reader over the catalogue at root.
func NewReader(root string, opts ...Option) (*Reader, error) {
	info, err := os.Stat(filepath.Join(root, MetadataDir))
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", filepath.Join(root, MetadataDir))
	}
	r := &Reader{
		root:   root,
		table:  normalize.DefaultTable(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "source-reader")
	return r, nil
}

// Files returns the metadata file paths in lexical order.
func (r *Reader) Files() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(r.root, MetadataDir, "*.json"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

// Documents yields one document per metadata file. A file that cannot be
// read or parsed yields a nil document and an error wrapping
// ErrMalformedDocument; iteration continues with the next file. Iteration
// stops early when ctx is cancelled.
func (r *Reader) Documents(ctx context.Context) iter.Seq2[*core.Document, error] {
	return func(yield func(*core.Document, error) bool) {
		paths, err := r.Files()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			doc, err := r.ReadFile(path)
			if err != nil {
				err = fmt.Errorf("%w: %s: %w", ErrMalformedDocument, filepath.Base(path), err)
			}
			if !yield(doc, err) {
				return
			}
		}
	}
}

// ReadFile builds the document described by one metadata file.
func (r *Reader) ReadFile(path string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := parseMetadata(data)
	if err != nil {
		return nil, err
	}
	if m.ID <= 0 {
		// Fall back to a numeric file name such as 12345.json.
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if n, err := strconv.ParseInt(stem, 10, 64); err == nil && n > 0 {
			m.ID = n
		} else {
			return nil, ErrMissingID
		}
	}
	id := core.PatternID(m.ID)

	doc := &core.Document{
		ID:         id,
		Name:       m.Name,
		Attributes: r.attributes(m),
	}
	if m.Notes != "" {
		doc.Blocks = append(doc.Blocks, core.TextBlock{Kind: core.SourceNotes, Text: m.Notes})
	}
	text, err := r.patternText(id)
	if err != nil {
		return nil, err
	}
	if text != "" {
		doc.Blocks = append(doc.Blocks, core.TextBlock{Kind: core.SourcePattern, Text: text})
	}
	pdf, hasPDF := r.localPDF(id)
	doc.Attributes.HasPDF = hasPDF
	doc.Link = bestLink(pdf, m)
	return doc, nil
}

func (r *Reader) patternText(id core.PatternID) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.root, TextsDir, fmt.Sprintf("%d.txt", id)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// localPDF returns the absolute path of the pattern's downloaded PDF.
func (r *Reader) localPDF(id core.PatternID) (string, bool) {
	pdf := filepath.Join(r.root, PDFsDir, fmt.Sprintf("%d.pdf", id))
	info, err := os.Stat(pdf)
	if err != nil || info.IsDir() {
		return "", false
	}
	if abs, err := filepath.Abs(pdf); err == nil {
		return abs, true
	}
	return pdf, true
}

// bestLink prefers a local PDF, then the designer's external page, then a
// download link, then the catalogue page.
func bestLink(pdf string, m metadata) string {
	for _, link := range []string{pdf, m.ExternalURL, m.DownloadURL, m.URL} {
		if link != "" {
			return link
		}
	}
	return ""
}

func (r *Reader) attributes(m metadata) core.Attributes {
	a := core.Attributes{
		Category:      m.FiberArt,
		Materials:     m.Materials,
		Stitches:      canonicalTags(m.Stitches, r.table.StitchTags),
		Techniques:    canonicalTags(m.Techniques, r.table.TechniqueTags),
		HookSizesMM:   m.HookSizesMM,
		NeedleSizesMM: m.NeedleSizesMM,
		Published:     m.Published,
	}

	if w, ok := r.table.WeightClass(m.YarnWeight); ok {
		a.WeightClass = w
	} else {
		a.WeightClass = m.YarnWeight
	}

	scan := m.Notes + " " + m.Gauge
	a.Stitches = append(a.Stitches, r.table.StitchTags(scan)...)
	a.Techniques = append(a.Techniques, r.table.TechniqueTags(scan)...)

	for _, label := range append(m.HookLabels, hookLabels(scan)...) {
		if mm, ok := r.table.HookMM(label); ok {
			a.HookSizesMM = append(a.HookSizesMM, mm)
		}
	}

	// Sizes quoted in the gauge only count when no explicit size exists;
	// the craft decides the tool family.
	if len(a.HookSizesMM) == 0 && len(a.NeedleSizesMM) == 0 {
		sizes := gaugeSizes(m.Gauge)
		if strings.Contains(strings.ToLower(m.FiberArt), "crochet") {
			a.HookSizesMM = sizes
		} else {
			a.NeedleSizesMM = sizes
		}
	}

	return core.NormalizeAttributes(a)
}

// canonicalTags maps each raw tag through match, keeping tags the
// vocabulary does not know as they are.
func canonicalTags(raw []string, match func(string) []string) []string {
	var out []string
	for _, tag := range raw {
		if tags := match(tag); len(tags) > 0 {
			out = append(out, tags...)
		} else {
			out = append(out, tag)
		}
	}
	return out
}
