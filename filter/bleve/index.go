// Package bleve implements filter.Store on a bleve index with keyword
// and numeric field mappings.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
)

// Field names in the index.
const (
	fieldCategory   = "category"
	fieldWeight     = "weight"
	fieldMaterials  = "materials"
	fieldTechniques = "techniques"
	fieldStitches   = "stitches"
	fieldHookMM     = "hook_mm"
	fieldNeedleMM   = "needle_mm"
	fieldHasPDF     = "has_pdf"
	fieldPublished  = "published"
)

const batchSize = 1000

// Index implements filter.Store.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
}

var _ filter.Store = (*Index)(nil)

// Create builds a new empty index at path.
//
// Returns filter.Store interface to enforce abstraction.
func Create(path string) (filter.Store, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, err
	}
	return wrap(idx), nil
}

// Open opens an existing index at path. A read-only index may be shared
// by several processes.
func Open(path string, readOnly bool) (filter.Store, error) {
	var (
		idx bleve.Index
		err error
	)
	if readOnly {
		idx, err = bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	} else {
		idx, err = bleve.Open(path)
	}
	if err != nil {
		return nil, err
	}
	return wrap(idx), nil
}

// NewMemory creates an in-memory index for testing.
func NewMemory() (filter.Store, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, err
	}
	return wrap(idx), nil
}

func wrap(idx bleve.Index) *Index {
	return &Index{
		index:  idx,
		logger: slog.Default().With("component", "bleve-filter"),
	}
}

func newMapping() (*mapping.IndexMappingImpl, error) {
	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name
	kw.Store = false
	kw.IncludeInAll = false
	kw.IncludeTermVectors = false

	num := bleve.NewNumericFieldMapping()
	num.Store = false
	num.IncludeInAll = false

	flag := bleve.NewBooleanFieldMapping()
	flag.Store = false
	flag.IncludeInAll = false

	date := bleve.NewDateTimeFieldMapping()
	date.Store = false
	date.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	for _, f := range []string{fieldCategory, fieldWeight, fieldMaterials, fieldTechniques, fieldStitches} {
		doc.AddFieldMappingsAt(f, kw)
	}
	doc.AddFieldMappingsAt(fieldHookMM, num)
	doc.AddFieldMappingsAt(fieldNeedleMM, num)
	doc.AddFieldMappingsAt(fieldHasPDF, flag)
	doc.AddFieldMappingsAt(fieldPublished, date)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = keyword.Name
	m.StoreDynamic = false
	m.IndexDynamic = false
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// docID zero-pads ids so that lexical _id order is numeric order.
func docID(id core.PatternID) string {
	return fmt.Sprintf("%019d", id)
}

func parseDocID(s string) (core.PatternID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	return core.PatternID(n), err
}

func document(attrs core.Attributes) map[string]interface{} {
	a := core.NormalizeAttributes(attrs)
	doc := map[string]interface{}{fieldHasPDF: a.HasPDF}
	if a.Category != "" {
		doc[fieldCategory] = a.Category
	}
	if a.WeightClass != "" {
		doc[fieldWeight] = a.WeightClass
	}
	if len(a.Materials) > 0 {
		doc[fieldMaterials] = a.Materials
	}
	if len(a.Techniques) > 0 {
		doc[fieldTechniques] = a.Techniques
	}
	if len(a.Stitches) > 0 {
		doc[fieldStitches] = a.Stitches
	}
	if len(a.HookSizesMM) > 0 {
		doc[fieldHookMM] = a.HookSizesMM
	}
	if len(a.NeedleSizesMM) > 0 {
		doc[fieldNeedleMM] = a.NeedleSizesMM
	}
	if !a.Published.IsZero() {
		doc[fieldPublished] = a.Published
	}
	return doc
}

// Put indexes the attributes of docs in batches.
func (i *Index) Put(ctx context.Context, docs []core.Document) error {
	batch := i.index.NewBatch()
	for n, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(docID(d.ID), document(d.Attributes)); err != nil {
			return err
		}
		if batch.Size() >= batchSize || n == len(docs)-1 {
			if err := i.index.Batch(batch); err != nil {
				return err
			}
			batch.Reset()
		}
	}
	i.logger.Debug("indexed pattern attributes", "patterns", len(docs))
	return nil
}

// Filter runs pred against the index.
func (i *Index) Filter(ctx context.Context, pred core.Predicate, limit int) ([]core.PatternID, error) {
	pred, err := filter.PrepareQuery(pred, limit)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(buildQuery(pred), limit, 0, false)
	req.SortBy([]string{"_id"})
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", filter.ErrUnavailable, err)
	}

	var ids []core.PatternID
	for _, hit := range res.Hits {
		id, err := parseDocID(hit.ID)
		if err != nil {
			i.logger.Warn("skipping malformed document id", "id", hit.ID)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of indexed patterns.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := i.index.DocCount()
	return int(n), err
}

// Close closes the index.
func (i *Index) Close() error {
	err := i.index.Close()
	if errors.Is(err, bleve.ErrorIndexClosed) {
		return nil
	}
	return err
}
