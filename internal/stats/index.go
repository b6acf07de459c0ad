package stats

import (
	"fmt"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/models"
)

// Index is the canonical key space built from the problem catalog. Same
// catalog always produces the same index; there is no error path.
type Index struct {
	Meta map[models.ProblemKey]models.ProblemMeta
}

// BuildIndex builds ProblemMeta keyed by ProblemKey from the catalog.
// Catalog entries with missing fields default to an unrated problem with no
// tags and a synthesized name.
func BuildIndex(problems []cfapi.Problem) *Index {
	idx := &Index{
		Meta: make(map[models.ProblemKey]models.ProblemMeta, len(problems)),
	}

	for _, p := range problems {
		key := models.MakeProblemKey(p.ContestID, p.ProblemsetName, p.Index)

		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Problem %s", key)
		}

		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}

		idx.Meta[key] = models.ProblemMeta{
			Name:   name,
			Rating: p.Rating,
			Tags:   tags,
		}
	}

	return idx
}

// Has reports whether the key exists in the catalog
func (i *Index) Has(key models.ProblemKey) bool {
	_, ok := i.Meta[key]
	return ok
}
