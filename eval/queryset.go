package eval

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/patternsearch/core"
)

// Query is one labelled query.
type Query struct {
	Text     string           `yaml:"text"`
	Relevant []core.PatternID `yaml:"relevant"`
	// Category optionally restricts the search, as a user picking a craft would.
	Category string `yaml:"category,omitempty"`
}

// QuerySet is a named group of queries scored together.
type QuerySet struct {
	Name    string  `yaml:"name"`
	Queries []Query `yaml:"queries"`
}

type querySetFile struct {
	Sets []QuerySet `yaml:"query_sets"`
}

// LoadQuerySets decodes query sets from YAML of the form
//
//	query_sets:
//	  - name: colorwork
//	    queries:
//	      - text: fair isle hat
//	        relevant: [1021, 877]
func LoadQuerySets(r io.Reader) ([]QuerySet, error) {
	var f querySetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuerySet, err)
	}
	for i, set := range f.Sets {
		if set.Name == "" {
			f.Sets[i].Name = fmt.Sprintf("set-%d", i+1)
		}
		if len(set.Queries) == 0 {
			return nil, fmt.Errorf("%w: %s has no queries", ErrInvalidQuerySet, f.Sets[i].Name)
		}
		for j, q := range set.Queries {
			if strings.TrimSpace(q.Text) == "" {
				return nil, fmt.Errorf("%w: %s query %d is empty", ErrInvalidQuerySet, f.Sets[i].Name, j+1)
			}
		}
	}
	if len(f.Sets) == 0 {
		return nil, fmt.Errorf("%w: no query sets", ErrInvalidQuerySet)
	}
	return f.Sets, nil
}

// LoadQuerySetsFile reads query sets from path.
func LoadQuerySetsFile(path string) ([]QuerySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadQuerySets(f)
}
