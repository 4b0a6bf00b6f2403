// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/report"
)

// ErrCatalogUnavailable is returned when the catalog file cannot be read or decoded
var ErrCatalogUnavailable = errors.New("project catalog unavailable")

// Catalog is the immutable, in-memory list of projects in natural order
// (domain-major, then list order within the domain)
type Catalog struct {
	projects []model.Project
}

// New builds a catalog from already validated projects
func New(projects []model.Project) *Catalog {
	cp := make([]model.Project, len(projects))
	copy(cp, projects)
	return &Catalog{projects: cp}
}

// Len returns the number of projects
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.projects)
}

// Project returns the project at position i in natural order
func (c *Catalog) Project(i int) model.Project {
	return c.projects[i]
}

// Projects returns a copy of every project in natural order
func (c *Catalog) Projects() []model.Project {
	if c == nil {
		return nil
	}
	cp := make([]model.Project, len(c.projects))
	copy(cp, c.projects)
	return cp
}

// Domains returns the distinct domains in load order
func (c *Catalog) Domains() []string {
	var domains []string
	seen := make(map[string]struct{})
	for _, p := range c.projects {
		if _, ok := seen[p.Domain]; ok {
			continue
		}
		seen[p.Domain] = struct{}{}
		domains = append(domains, p.Domain)
	}
	return domains
}

// Technologies returns every distinct tech name, sorted, for building a selector
func (c *Catalog) Technologies() []string {
	seen := make(map[string]struct{})
	for _, p := range c.projects {
		for _, tech := range p.Tech {
			seen[tech] = struct{}{}
		}
	}
	techs := make([]string, 0, len(seen))
	for tech := range seen {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs
}

// Loader reads catalog files and reports problems through a report.Handler
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new catalog loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("catalog")}
}

// LoadFile reads the catalog at path.
// A missing or malformed file yields an empty catalog, a surfaced warning and
// an error wrapping ErrCatalogUnavailable; the catalog is usable either way.
func (l *Loader) LoadFile(path string, handler *report.Handler) (*Catalog, error) {
	if handler == nil {
		handler = report.NewHandler(l.logger)
	}

	f, err := os.Open(path)
	if err != nil {
		return l.unavailable(path, handler, err)
	}
	defer f.Close()

	return l.Load(f, path, handler)
}

// Load decodes a catalog from r; source names the input in warnings
func (l *Loader) Load(r io.Reader, source string, handler *report.Handler) (*Catalog, error) {
	if handler == nil {
		handler = report.NewHandler(l.logger)
	}

	var groups []model.ProjectGroup
	if err := json.NewDecoder(r).Decode(&groups); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("catalog file is empty")
		}
		return l.unavailable(source, handler, err)
	}

	var projects []model.Project
	skipped := 0
	for _, group := range groups {
		for i, project := range group.Projects {
			project.Domain = group.Domain
			project.Tech = trimAll(project.Tech)
			if err := project.Validate(); err != nil {
				skipped++
				handler.HandleError(report.NewErrorRecord(
					fmt.Errorf("skipping project %d in domain %q: %w", i, group.Domain, err),
					report.ErrorCategoryWarning).WithSource(source))
				continue
			}
			projects = append(projects, project)
		}
	}

	l.logger.Info("Loaded project catalog",
		zap.String("source", source),
		zap.Int("groups", len(groups)),
		zap.Int("projects", len(projects)),
		zap.Int("skipped", skipped))

	return New(projects), nil
}

func (l *Loader) unavailable(source string, handler *report.Handler, cause error) (*Catalog, error) {
	handler.HandleError(report.NewErrorRecord(
		fmt.Errorf("could not load project catalog: %w", cause),
		report.ErrorCategoryWarning).WithSource(source))
	return New(nil), fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, source, cause)
}

func trimAll(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
