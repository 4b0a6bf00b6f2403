// pkg/catalog/filter.go
package catalog

import (
	"strings"

	"github.com/David-Botos/datawizard/pkg/model"
)

// Criteria holds the session-scoped filter settings.
// Every field has an "unset" value for which its predicate is skipped.
type Criteria struct {
	Topic         string           `json:"topic"`
	MinDifficulty model.Difficulty `json:"min_difficulty"`
	MaxDifficulty model.Difficulty `json:"max_difficulty"`
	Tech          []string         `json:"tech"`
	Dataset       string           `json:"dataset"`
	Keywords      string           `json:"keywords"`
}

// DefaultCriteria returns criteria with every predicate inactive
func DefaultCriteria() Criteria {
	return Criteria{
		MinDifficulty: model.MinDifficulty,
		MaxDifficulty: model.MaxDifficulty,
	}
}

// difficultyBounds returns the effective inclusive range, treating unset ends as open
func (c Criteria) difficultyBounds() (model.Difficulty, model.Difficulty) {
	lo, hi := c.MinDifficulty, c.MaxDifficulty
	if !lo.Valid() {
		lo = model.MinDifficulty
	}
	if !hi.Valid() {
		hi = model.MaxDifficulty
	}
	return lo, hi
}

// Active returns the names of the predicates this criteria set enables
func (c Criteria) Active() []string {
	var active []string
	if lo, hi := c.difficultyBounds(); lo != model.MinDifficulty || hi != model.MaxDifficulty {
		active = append(active, "difficulty")
	}
	if strings.TrimSpace(c.Topic) != "" {
		active = append(active, "topic")
	}
	if len(c.techSet()) > 0 {
		active = append(active, "tech")
	}
	if strings.TrimSpace(c.Dataset) != "" {
		active = append(active, "dataset")
	}
	if strings.TrimSpace(c.Keywords) != "" {
		active = append(active, "keywords")
	}
	return active
}

func (c Criteria) techSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Tech))
	for _, tech := range c.Tech {
		if tech = strings.ToLower(strings.TrimSpace(tech)); tech != "" {
			set[tech] = struct{}{}
		}
	}
	return set
}

// predicate reports whether a project passes one filter condition
type predicate func(p *model.Project) bool

// predicates builds the chain for the active criteria only
func (c Criteria) predicates() []predicate {
	var chain []predicate

	if lo, hi := c.difficultyBounds(); lo != model.MinDifficulty || hi != model.MaxDifficulty {
		chain = append(chain, func(p *model.Project) bool {
			return p.Difficulty >= lo && p.Difficulty <= hi
		})
	}

	if topic := strings.ToLower(strings.TrimSpace(c.Topic)); topic != "" {
		chain = append(chain, func(p *model.Project) bool {
			return containsFold(p.Title, topic) ||
				containsFold(p.Description, topic) ||
				anyContainsFold(p.Tech, topic) ||
				anyContainsFold(p.Keywords, topic)
		})
	}

	if set := c.techSet(); len(set) > 0 {
		chain = append(chain, func(p *model.Project) bool {
			for _, tech := range p.Tech {
				if _, ok := set[strings.ToLower(tech)]; ok {
					return true
				}
			}
			return false
		})
	}

	if dataset := strings.ToLower(strings.TrimSpace(c.Dataset)); dataset != "" {
		chain = append(chain, func(p *model.Project) bool {
			return anyContainsFold(p.Datasets, dataset)
		})
	}

	if keywords := strings.ToLower(strings.TrimSpace(c.Keywords)); keywords != "" {
		chain = append(chain, func(p *model.Project) bool {
			return anyContainsFold(p.Keywords, keywords)
		})
	}

	return chain
}

// Filter returns, in natural catalog order, the projects satisfying every active predicate
func Filter(c *Catalog, criteria Criteria) []model.Project {
	if c.Len() == 0 {
		return nil
	}

	chain := criteria.predicates()
	var out []model.Project
	for i := range c.projects {
		p := &c.projects[i]
		if matches(p, chain) {
			out = append(out, *p)
		}
	}
	return out
}

func matches(p *model.Project, chain []predicate) bool {
	for _, pred := range chain {
		if !pred(p) {
			return false
		}
	}
	return true
}

// containsFold reports whether needle, already lower-cased, occurs in s
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

func anyContainsFold(values []string, needle string) bool {
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}
