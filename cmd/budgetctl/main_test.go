package main

import (
	"bytes"
	"encoding/csv"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/penshort/budgetdesk/internal/service"
	"github.com/penshort/budgetdesk/internal/testutil"
)

const testEmail = "test@example.com"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "db.sqlite3"))
	t.Setenv("TOTAL_BUDGET", "100")
	t.Setenv("ALLOWED_EMAILS", testEmail)
	t.Setenv("NOTIFY_CHANNEL", "display")
	t.Setenv("PROJECTS_SOURCE", testutil.WriteFile(t, "projects.csv", testutil.ProjectsCSV))
	t.Setenv("WEBSITES_SOURCE", testutil.WriteFile(t, "websites.csv", testutil.WebsitesCSV))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root, e := newRootCmd()
	defer func() { require.NoError(t, e.close()) }()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "is up to date")
}

func TestIssueLinkAndVerify(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "issue-link", testEmail)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, service.MsgVerificationSent, lines[0])

	link, err := url.Parse(lines[1])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	out, err = execute(t, "verify", testEmail, token)
	require.NoError(t, err)
	assert.Equal(t, service.MsgVerified+"\n", out)

	_, err = execute(t, "verify", testEmail, token+"x")
	require.Error(t, err)
}

func TestIssueLink_NotAllowListed(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "issue-link", "other@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
	assert.Contains(t, err.Error(), service.MsgNotAuthorized)
}

func TestAllowList(t *testing.T) {
	setupEnv(t)
	t.Setenv("ALLOWED_EMAILS", "zed@example.com,"+testEmail)

	out, err := execute(t, "allow-list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"EMAIL", "VERIFIED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{testEmail, "false"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"zed@example.com", "false"}, strings.Fields(lines[2]))

	out, err = execute(t, "issue-link", testEmail)
	require.NoError(t, err)
	link, err := url.Parse(strings.TrimSpace(strings.Split(strings.TrimSpace(out), "\n")[1]))
	require.NoError(t, err)
	_, err = execute(t, "verify", testEmail, link.Query().Get("token"))
	require.NoError(t, err)

	out, err = execute(t, "allow-list")
	require.NoError(t, err)
	assert.Contains(t, out, testEmail)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{testEmail, "true"}, strings.Fields(lines[1]))
}

func TestAllocationCommands(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "issue-link", testEmail)
	require.NoError(t, err)

	out, err := execute(t, "set", testEmail, "P001", "60")
	require.NoError(t, err)
	assert.Equal(t, "Allocation saved. Remaining: £40\n", out)

	_, err = execute(t, "set", testEmail, "P002", "50")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrBudgetExceeded)
	assert.Contains(t, err.Error(), "Allocation exceeds budget. Remaining: £40")

	_, err = execute(t, "set", testEmail, "P002", "-1")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)

	_, err = execute(t, "set", testEmail, "P003", "30")
	require.NoError(t, err)

	out, err = execute(t, "allocations", testEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "P001")
	assert.Contains(t, out, "£90")

	out, err = execute(t, "categories", testEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Environment")
	assert.Contains(t, out, "£90")

	out, err = execute(t, "export", testEmail, "--format", "csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		service.ExportHeader,
		{"P001", "Clean Air Initiative", "Environment", "Active", "60"},
		{"P003", "River Restoration", "Environment", "Planned", "30"},
	}, records)

	out, err = execute(t, "export", testEmail, "--format", "yaml")
	require.NoError(t, err)
	var rows []service.ExportRow
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 2)

	_, err = execute(t, "export", testEmail, "--format", "xml")
	assert.Error(t, err)
}
