// pkg/catalog/session.go
package catalog

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/David-Botos/datawizard/pkg/model"
)

// Paging controls the prefix-take over a result list
type Paging struct {
	PageSize  int // Initial display limit
	Increment int // Added to the limit by each LoadMore
}

// DefaultPaging returns the page settings used when none are configured
func DefaultPaging() Paging {
	return Paging{PageSize: 9, Increment: 9}
}

// Page is the view of a session's results handed to the display collaborator
type Page struct {
	Items        []model.Project `json:"items"`
	Total        int             `json:"total"`
	Limit        int             `json:"limit"`
	HasMore      bool            `json:"has_more"`
	SearchActive bool            `json:"search_active"`
	Criteria     Criteria        `json:"criteria"`
	Detail       *model.Project  `json:"detail,omitempty"`
}

// Session is the per-user browsing state. It is not safe for concurrent use;
// pkg/session serializes access per session id.
type Session struct {
	ID           string
	Criteria     Criteria
	SearchActive bool
	Limit        int

	paging Paging
	rng    *rand.Rand
	order  []int // cached shuffle of catalog positions
	detail *model.Project
}

// NewSession creates a session with default criteria.
// rng may be nil, in which case a time-seeded source is used.
func NewSession(id string, paging Paging, rng *rand.Rand) *Session {
	if paging.PageSize <= 0 {
		paging.PageSize = DefaultPaging().PageSize
	}
	if paging.Increment <= 0 {
		paging.Increment = DefaultPaging().Increment
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		ID:       id,
		Criteria: DefaultCriteria(),
		Limit:    paging.PageSize,
		paging:   paging,
		rng:      rng,
	}
}

// Search applies new criteria and restarts pagination
func (s *Session) Search(criteria Criteria) {
	s.Criteria = criteria
	s.SearchActive = true
	s.Limit = s.paging.PageSize
	s.detail = nil
}

// LoadMore grows the display limit by one increment
func (s *Session) LoadMore() {
	s.Limit += s.paging.Increment
}

// OpenDetail opens the i-th item of the current result list
func (s *Session) OpenDetail(c *Catalog, i int) (model.Project, error) {
	results := s.Results(c)
	if i < 0 || i >= len(results) {
		return model.Project{}, fmt.Errorf("project index %d out of range [0,%d)", i, len(results))
	}
	p := results[i]
	s.detail = &p
	return p, nil
}

// CloseDetail leaves the detail view; criteria and pagination go back to defaults
func (s *Session) CloseDetail() {
	s.detail = nil
	s.Criteria = DefaultCriteria()
	s.SearchActive = false
	s.Limit = s.paging.PageSize
}

// Detail returns the open detail item, if any
func (s *Session) Detail() (model.Project, bool) {
	if s.detail == nil {
		return model.Project{}, false
	}
	return *s.detail, true
}

// Reset drops all browsing state, including the cached shuffle order
func (s *Session) Reset() {
	s.CloseDetail()
	s.order = nil
}

// Results returns the ordered result list for the current state: the filtered
// catalog in natural order after a search, the cached shuffle otherwise
func (s *Session) Results(c *Catalog) []model.Project {
	if s.SearchActive {
		return Filter(c, s.Criteria)
	}

	n := c.Len()
	if len(s.order) != n {
		s.order = s.rng.Perm(n)
	}

	out := make([]model.Project, n)
	for i, pos := range s.order {
		out[i] = c.Project(pos)
	}
	return out
}

// Page returns the prefix of the results allowed by the current limit
func (s *Session) Page(c *Catalog) Page {
	results := s.Results(c)

	limit := s.Limit
	if limit > len(results) {
		limit = len(results)
	}

	page := Page{
		Items:        results[:limit],
		Total:        len(results),
		Limit:        s.Limit,
		HasMore:      s.Limit < len(results),
		SearchActive: s.SearchActive,
		Criteria:     s.Criteria,
	}
	if page.Items == nil {
		page.Items = []model.Project{}
	}
	if p, ok := s.Detail(); ok {
		page.Detail = &p
	}
	return page
}
