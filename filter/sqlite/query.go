package sqlite

import (
	"strings"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
)

// buildQuery translates a canonical predicate into SQL. Every constraint
// becomes one AND-ed clause; any-of lists and size windows are EXISTS
// subqueries against the side tables.
func buildQuery(p core.Predicate, limit int) (string, []any) {
	var (
		where []string
		args  []any
	)

	if p.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, p.Category)
	}
	if p.WeightClass != "" {
		where = append(where, "p.weight = ?")
		args = append(args, p.WeightClass)
	}

	anyOf := func(kind string, values []string) {
		if len(values) == 0 {
			return
		}
		where = append(where, "EXISTS (SELECT 1 FROM pattern_tags t WHERE t.pattern_id = p.id AND t.kind = ? AND t.tag IN ("+
			placeholders(len(values))+"))")
		args = append(args, kind)
		for _, v := range values {
			args = append(args, v)
		}
	}
	anyOf(kindMaterial, p.MaterialsAny)
	anyOf(kindTechnique, p.TechniquesAny)
	anyOf(kindStitch, p.StitchesAny)

	size := func(tool string, target *float64) {
		if target == nil {
			return
		}
		lo, hi := filter.SizeRange(*target, p.Tolerance())
		where = append(where, "EXISTS (SELECT 1 FROM pattern_sizes s WHERE s.pattern_id = p.id AND s.tool = ? AND s.mm BETWEEN ? AND ?)")
		args = append(args, tool, lo, hi)
	}
	size(toolHook, p.HookMM)
	size(toolNeedle, p.NeedleMM)

	if p.HasPDF != nil {
		where = append(where, "p.has_pdf = ?")
		args = append(args, *p.HasPDF)
	}
	if !p.PublishedFrom.IsZero() {
		where = append(where, "p.published >= ?")
		args = append(args, p.PublishedFrom.Format(dateLayout))
	}

	var b strings.Builder
	b.WriteString("SELECT p.id FROM patterns p")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY p.id LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
