// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must be positive
//   - every text block must have a known SourceKind
//
// NOT validated:
//   - Attributes (absent values are legal; use NormalizeAttributes)
//   - block text (empty text simply produces no chunks)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidPatternID)
	}
	for _, b := range doc.Blocks {
		if !b.Kind.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidSourceKind, b.Kind)
		}
	}
	return nil
}

// NormalizeTerm lowercases a term and collapses its whitespace.
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeAttributes returns a canonical copy of a: terms normalized,
// tag lists sorted and de-duplicated, sizes that are not positive finite
// numbers dropped and the rest rounded to 0.01 mm, the publication date
// reduced to its UTC day.
func NormalizeAttributes(a Attributes) Attributes {
	return Attributes{
		Category:      NormalizeTerm(a.Category),
		WeightClass:   NormalizeTerm(a.WeightClass),
		Materials:     normalizeTags(a.Materials),
		Techniques:    normalizeTags(a.Techniques),
		Stitches:      normalizeTags(a.Stitches),
		HookSizesMM:   normalizeSizes(a.HookSizesMM),
		NeedleSizesMM: normalizeSizes(a.NeedleSizesMM),
		HasPDF:        a.HasPDF,
		Published:     Day(a.Published),
	}
}

// Day truncates t to midnight UTC. The zero time stays zero.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidatePredicate checks p and returns its canonical form.
func ValidatePredicate(p Predicate) (Predicate, error) {
	if p.ToleranceMM < 0 || math.IsNaN(p.ToleranceMM) {
		return p, fmt.Errorf("%w: tolerance must not be negative", ErrInvalidPredicate)
	}
	for _, size := range []*float64{p.HookMM, p.NeedleMM} {
		if size != nil && !validSize(*size) {
			return p, fmt.Errorf("%w: %w", ErrInvalidPredicate, ErrInvalidSize)
		}
	}
	p.Category = NormalizeTerm(p.Category)
	p.WeightClass = NormalizeTerm(p.WeightClass)
	p.MaterialsAny = normalizeTags(p.MaterialsAny)
	p.TechniquesAny = normalizeTags(p.TechniquesAny)
	p.StitchesAny = normalizeTags(p.StitchesAny)
	p.PublishedFrom = Day(p.PublishedFrom)
	return p, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = NormalizeTerm(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func normalizeSizes(sizes []float64) []float64 {
	var out []float64
	for _, s := range sizes {
		if validSize(s) {
			out = append(out, math.Round(s*100)/100)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func validSize(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}
