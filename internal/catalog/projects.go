package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/penshort/budgetdesk/internal/model"
)

var projectColumns = []string{"project_id", "name", "description", "category", "status"}

// Projects is the immutable project catalog.
type Projects struct {
	items []model.Project
	byID  map[string]int
}

// ProjectFilter narrows the catalog. Zero values match everything.
type ProjectFilter struct {
	Search     string
	Categories []string
	Statuses   []string
}

// NewProjects builds a catalog from already-parsed entries. Later duplicates
// of a project_id are ignored.
func NewProjects(items []model.Project) *Projects {
	p := &Projects{byID: make(map[string]int, len(items))}
	for _, item := range items {
		if _, dup := p.byID[item.ProjectID]; dup {
			continue
		}
		p.byID[item.ProjectID] = len(p.items)
		p.items = append(p.items, item)
	}
	return p
}

// LoadProjects reads the catalog. The header must name every project column.
func LoadProjects(ctx context.Context, src Source) (*Projects, error) {
	t, err := readTable(ctx, src, projectColumns)
	if err != nil {
		return nil, err
	}

	items := make([]model.Project, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "project_id")
		if id == "" {
			continue
		}
		items = append(items, model.Project{
			ProjectID:   id,
			Name:        t.get(row, "name"),
			Description: t.get(row, "description"),
			Category:    t.get(row, "category"),
			Status:      t.get(row, "status"),
		})
	}
	return NewProjects(items), nil
}

// LoadProjectsOrEmpty is LoadProjects that degrades to an empty catalog.
func LoadProjectsOrEmpty(ctx context.Context, src Source, logger *slog.Logger) *Projects {
	p, err := LoadProjects(ctx, src)
	if err != nil {
		logger.Warn("project_catalog_unavailable",
			slog.String("source", src.String()),
			slog.String("error", err.Error()),
		)
		return NewProjects(nil)
	}
	logger.Info("project_catalog_loaded",
		slog.String("source", src.String()),
		slog.Int("projects", p.Len()),
	)
	return p
}

// Len returns the number of projects.
func (p *Projects) Len() int {
	return len(p.items)
}

// All returns every project in file order.
func (p *Projects) All() []model.Project {
	return slices.Clone(p.items)
}

// Get looks up a project by id.
func (p *Projects) Get(projectID string) (model.Project, bool) {
	i, ok := p.byID[projectID]
	if !ok {
		return model.Project{}, false
	}
	return p.items[i], true
}

// Filter returns the projects matching f in file order.
func (p *Projects) Filter(f ProjectFilter) []model.Project {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	result := make([]model.Project, 0, len(p.items))
	for _, item := range p.items {
		if search != "" && !containsFold(item.Name, search) && !containsFold(item.Description, search) {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, item.Category) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, item.Status) {
			continue
		}
		result = append(result, item)
	}
	return result
}

// Categories returns the distinct non-empty categories, sorted.
func (p *Projects) Categories() []string {
	return p.distinct(func(item model.Project) string { return item.Category })
}

// Statuses returns the distinct non-empty statuses, sorted.
func (p *Projects) Statuses() []string {
	return p.distinct(func(item model.Project) string { return item.Status })
}

func (p *Projects) distinct(field func(model.Project) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, item := range p.items {
		v := field(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
