package service

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/penshort/budgetdesk/internal/model"
)

// ProjectLookup resolves catalog entries.
type ProjectLookup interface {
	Get(projectID string) (model.Project, bool)
}

// CategoryTotal is the allocation total for one category.
type CategoryTotal struct {
	Category     string `json:"category" yaml:"category"`
	TotalAmount  int64  `json:"total_amount" yaml:"total_amount"`
	ProjectCount int    `json:"project_count" yaml:"project_count"`
}

// ExportRow is one exported allocation joined with its catalog entry.
type ExportRow struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category" yaml:"category"`
	Status    string `json:"status" yaml:"status"`
	Amount    int64  `json:"amount" yaml:"amount"`
}

// ExportHeader is the column order of ExportRow.
var ExportHeader = []string{"project_id", "name", "category", "status", "amount"}

// ReportService derives reports from allocations and the project catalog.
// Allocations whose project is not in the catalog are left out.
type ReportService struct {
	store    AllocationStore
	projects ProjectLookup
}

// NewReportService creates a new ReportService.
func NewReportService(store AllocationStore, projects ProjectLookup) *ReportService {
	return &ReportService{store: store, projects: projects}
}

// CategoryBreakdown groups a user's allocations by project category,
// ordered by category.
func (s *ReportService) CategoryBreakdown(ctx context.Context, email string) ([]CategoryTotal, error) {
	allocations, err := s.store.ListAllocations(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}

	byCategory := make(map[string]*CategoryTotal)
	for _, a := range allocations {
		project, ok := s.projects.Get(a.ProjectID)
		if !ok {
			continue
		}
		ct, ok := byCategory[project.Category]
		if !ok {
			ct = &CategoryTotal{Category: project.Category}
			byCategory[project.Category] = ct
		}
		ct.TotalAmount += a.Amount
		ct.ProjectCount++
	}

	result := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		result = append(result, *ct)
	}
	slices.SortFunc(result, func(a, b CategoryTotal) int {
		return strings.Compare(a.Category, b.Category)
	})
	return result, nil
}

// Export returns a user's allocations joined with the catalog, ordered by
// project_id.
func (s *ReportService) Export(ctx context.Context, email string) ([]ExportRow, error) {
	allocations, err := s.store.ListAllocations(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}

	rows := make([]ExportRow, 0, len(allocations))
	for _, a := range allocations {
		project, ok := s.projects.Get(a.ProjectID)
		if !ok {
			continue
		}
		rows = append(rows, ExportRow{
			ProjectID: a.ProjectID,
			Name:      project.Name,
			Category:  project.Category,
			Status:    project.Status,
			Amount:    a.Amount,
		})
	}
	return rows, nil
}

// Record renders the row as CSV fields in ExportHeader order.
func (r ExportRow) Record() []string {
	return []string{r.ProjectID, r.Name, r.Category, r.Status, strconv.FormatInt(r.Amount, 10)}
}
