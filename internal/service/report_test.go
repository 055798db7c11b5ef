package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/budgetdesk/internal/catalog"
	"github.com/penshort/budgetdesk/internal/testutil"
)

func newReportService(t *testing.T) (*ReportService, *AllocationService) {
	t.Helper()

	ctx := context.Background()
	alloc, repo, _ := newAllocationService(t, 5_000_000)

	projects, err := catalog.LoadProjects(ctx, catalog.FileSource{Path: testutil.WriteFile(t, "projects.csv", testutil.ProjectsCSV)})
	require.NoError(t, err)

	return NewReportService(repo, projects), alloc
}

func TestCategoryBreakdown(t *testing.T) {
	ctx := context.Background()
	reports, alloc := newReportService(t)

	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P003", 300))
	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P001", 200))
	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P004", 50))
	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P999", 1000))

	got, err := reports.CategoryBreakdown(ctx, testEmail)
	require.NoError(t, err)

	assert.Equal(t, []CategoryTotal{
		{Category: "Environment", TotalAmount: 500, ProjectCount: 2},
		{Category: "Technology", TotalAmount: 50, ProjectCount: 1},
	}, got)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	reports, alloc := newReportService(t)

	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P002", 75))
	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P001", 25))
	require.NoError(t, alloc.SaveAllocation(ctx, testEmail, "P999", 10))

	rows, err := reports.Export(ctx, testEmail)
	require.NoError(t, err)

	assert.Equal(t, []ExportRow{
		{ProjectID: "P001", Name: "Clean Air Initiative", Category: "Environment", Status: "Active", Amount: 25},
		{ProjectID: "P002", Name: "Digital Literacy", Category: "Education", Status: "Active", Amount: 75},
	}, rows)
	assert.Equal(t, []string{"P001", "Clean Air Initiative", "Environment", "Active", "25"}, rows[0].Record())
}

func TestExport_Empty(t *testing.T) {
	reports, _ := newReportService(t)

	rows, err := reports.Export(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
