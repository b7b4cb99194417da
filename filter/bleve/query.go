package bleve

import (
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
)

// buildQuery translates a canonical predicate into a conjunction of term,
// disjunction and numeric range queries.
func buildQuery(p core.Predicate) query.Query {
	var must []query.Query

	if p.Category != "" {
		must = append(must, termQuery(fieldCategory, p.Category))
	}
	if p.WeightClass != "" {
		must = append(must, termQuery(fieldWeight, p.WeightClass))
	}
	if q := anyOf(fieldMaterials, p.MaterialsAny); q != nil {
		must = append(must, q)
	}
	if q := anyOf(fieldTechniques, p.TechniquesAny); q != nil {
		must = append(must, q)
	}
	if q := anyOf(fieldStitches, p.StitchesAny); q != nil {
		must = append(must, q)
	}
	if p.HookMM != nil {
		must = append(must, sizeQuery(fieldHookMM, *p.HookMM, p.Tolerance()))
	}
	if p.NeedleMM != nil {
		must = append(must, sizeQuery(fieldNeedleMM, *p.NeedleMM, p.Tolerance()))
	}
	if p.HasPDF != nil {
		q := bleve.NewBoolFieldQuery(*p.HasPDF)
		q.SetField(fieldHasPDF)
		must = append(must, q)
	}
	if !p.PublishedFrom.IsZero() {
		inclusive := true
		q := bleve.NewDateRangeInclusiveQuery(p.PublishedFrom, time.Time{}, &inclusive, nil)
		q.SetField(fieldPublished)
		must = append(must, q)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func anyOf(field string, values []string) query.Query {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return termQuery(field, values[0])
	}
	terms := make([]query.Query, len(values))
	for i, v := range values {
		terms[i] = termQuery(field, v)
	}
	return bleve.NewDisjunctionQuery(terms...)
}

func sizeQuery(field string, target, tolerance float64) query.Query {
	lo, hi := filter.SizeRange(target, tolerance)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
	q.SetField(field)
	return q
}
