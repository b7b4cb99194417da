package source

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
)

// metadata is the subset of a catalogue record used for indexing.
type metadata struct {
	ID            int64
	Name          string
	Notes         string
	FiberArt      string
	YarnWeight    string
	Materials     []string
	Stitches      []string
	Techniques    []string
	HookSizesMM   []float64
	NeedleSizesMM []float64
	HookLabels    []string
	Gauge         string
	URL           string
	ExternalURL   string
	DownloadURL   string
	Published     time.Time
}

// publishedLayouts are the date forms seen in catalogue records.
var publishedLayouts = []string{
	"2006/01/02",
	"2006/01/02 15:04:05 -0700",
	time.DateOnly,
	time.RFC3339,
}

// parseMetadata decodes data field by field. Fields of the wrong JSON
// type decode as absent.
func parseMetadata(data []byte) (metadata, error) {
	var m metadata
	// Validate the document shape once; field lookups below tolerate
	// type mismatches but not broken JSON.
	if _, typ, _, err := jsonparser.Get(data); err != nil || typ != jsonparser.Object {
		if err == nil {
			err = ErrMalformedDocument
		}
		return m, err
	}

	m.ID = intField(data, "id")
	m.Name = stringField(data, "name")
	m.Notes = stringField(data, "notes")
	m.FiberArt = stringField(data, "fiber_art")
	m.YarnWeight = stringField(data, "yarn_weight")
	m.Materials = tagList(data, "materials", "fiber")
	m.Stitches = append(tagList(data, "stitches_used", "name"), tagList(data, "pattern_attributes", "name")...)
	m.Techniques = tagList(data, "techniques_used", "name")
	m.HookSizesMM = sizeList(data, "hook_sizes_mm")
	m.NeedleSizesMM = sizeList(data, "needle_sizes_mm")
	m.HookLabels = tagList(data, "hook_sizes", "name")
	m.Gauge = strings.TrimSpace(stringField(data, "gauge_description") + " " + stringField(data, "gauge"))
	m.URL = urlField(data, "url")
	m.ExternalURL = urlField(data, "external_url")
	m.DownloadURL = urlField(data, "download_url")
	m.Published = dateField(data, "published")
	return m, nil
}

func stringField(data []byte, key string) string {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil || typ != jsonparser.String {
		return ""
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func urlField(data []byte, key string) string {
	return strings.TrimSpace(html.UnescapeString(stringField(data, key)))
}

// dateField reads a date string in any of publishedLayouts, or an epoch
// in milliseconds.
func dateField(data []byte, key string) time.Time {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil {
		return time.Time{}
	}
	switch typ {
	case jsonparser.Number:
		ms, err := jsonparser.ParseInt(v)
		if err != nil || ms <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	case jsonparser.String:
		s := stringField(data, key)
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// intField accepts a JSON integer or a string holding one.
func intField(data []byte, key string) int64 {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil {
		return 0
	}
	switch typ {
	case jsonparser.Number:
		n, err := jsonparser.ParseInt(v)
		if err != nil {
			return 0
		}
		return n
	case jsonparser.String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// tagList reads an array of strings or of objects carrying the name under
// objKey. A bare string is treated as a one-element list.
func tagList(data []byte, key, objKey string) []string {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil {
		return nil
	}
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch typ {
	case jsonparser.String:
		s, _ := jsonparser.ParseString(v)
		add(s)
	case jsonparser.Array:
		jsonparser.ArrayEach(v, func(item []byte, t jsonparser.ValueType, _ int, _ error) {
			switch t {
			case jsonparser.String:
				s, _ := jsonparser.ParseString(item)
				add(s)
			case jsonparser.Object:
				add(stringField(item, objKey))
			}
		})
	}
	return out
}

// sizeList reads an array of numbers or numeric strings. Comma decimal
// separators are accepted.
func sizeList(data []byte, key string) []float64 {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil || typ != jsonparser.Array {
		return nil
	}
	var out []float64
	jsonparser.ArrayEach(v, func(item []byte, t jsonparser.ValueType, _ int, _ error) {
		if f, ok := parseSize(item, t); ok {
			out = append(out, f)
		}
	})
	return out
}

func parseSize(item []byte, t jsonparser.ValueType) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t {
	case jsonparser.Number:
		f, err = jsonparser.ParseFloat(item)
	case jsonparser.String:
		s := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(string(item))), "mm")
		f, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	default:
		return 0, false
	}
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return math.Round(f*100) / 100, true
}

var (
	mmPattern     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*mm\b`)
	hookLabelExpr = regexp.MustCompile(`\b([A-S](?:/[A-S])?-\d+(?:\.\d+)?|[A-S])\s+(?i:hook)\b|\b(?i:hook)\s+([A-S](?:/[A-S])?-\d+(?:\.\d+)?)\b`)
)

// gaugeSizes extracts millimetre sizes such as "4.5 mm" from free text.
func gaugeSizes(text string) []float64 {
	var out []float64
	for _, m := range mmPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && f > 0 {
			out = append(out, math.Round(f*100)/100)
		}
	}
	return out
}

// hookLabels extracts US hook labels such as "H-8 hook" or "hook G-6".
func hookLabels(text string) []string {
	var out []string
	for _, m := range hookLabelExpr.FindAllStringSubmatch(text, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, strings.ToUpper(g))
			}
		}
	}
	return out
}
