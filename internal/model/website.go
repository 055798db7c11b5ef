package model

import (
	"strconv"
	"strings"
)

const (
	displayNameMax  = 50
	displayNameKeep = 47
	githubPrefix    = "https://github.com"
	notAvailable    = "N/A"
)

// Website is one row of the indexed website/repository dataset.
type Website struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	ContentSummary string `json:"content_summary"`
	ScreenshotPath string `json:"screenshot_path"`
	Stars          int64  `json:"stars"`
	Forks          int64  `json:"forks"`
	OpenIssues     int64  `json:"open_issues"`
	CreatedAt      string `json:"created_at"`
	LastUpdate     string `json:"last_update"`
	Language       string `json:"language"`
	Type           string `json:"type"`
	StatusCode     string `json:"status_code"`
	Server         string `json:"server"`
	CreationDate   string `json:"creation_date"`
	Registrar      string `json:"registrar"`
}

// DisplayName returns the title, falling back to the URL, shortened for lists.
func (w *Website) DisplayName() string {
	name := w.Title
	if name == "" {
		name = w.URL
	}
	runes := []rune(name)
	if len(runes) > displayNameMax {
		return string(runes[:displayNameKeep]) + "..."
	}
	return name
}

// IsGitHub reports whether the entry is a GitHub repository.
func (w *Website) IsGitHub() bool {
	return strings.HasPrefix(w.URL, githubPrefix)
}

// RepoStats are the GitHub figures shown for repository entries.
type RepoStats struct {
	Stars      int64  `json:"stars"`
	Forks      int64  `json:"forks"`
	OpenIssues int64  `json:"open_issues"`
	Created    string `json:"created"`
	LastUpdate string `json:"last_update"`
	Language   string `json:"language"`
}

// WebsiteDetail is the detail view of one entry. Exactly one of Stats or
// Metadata is set.
type WebsiteDetail struct {
	Heading    string            `json:"heading"`
	URL        string            `json:"url"`
	Summary    string            `json:"summary,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
	Stats      *RepoStats        `json:"github_stats,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Detail builds the detail view.
func (w *Website) Detail() WebsiteDetail {
	heading := w.Title
	if heading == "" {
		heading = w.URL
	}

	d := WebsiteDetail{
		Heading:    heading,
		URL:        w.URL,
		Summary:    w.ContentSummary,
		Screenshot: w.ScreenshotPath,
	}

	if w.IsGitHub() {
		d.Stats = &RepoStats{
			Stars:      w.Stars,
			Forks:      w.Forks,
			OpenIssues: w.OpenIssues,
			Created:    datePart(w.CreatedAt),
			LastUpdate: datePart(w.LastUpdate),
			Language:   orNotAvailable(w.Language),
		}
		return d
	}

	meta := map[string]string{
		"Type":          w.Type,
		"Status":        w.StatusCode,
		"Server":        w.Server,
		"Creation Date": w.CreationDate,
		"Registrar":     w.Registrar,
	}
	for k, v := range meta {
		if v == "" {
			delete(meta, k)
		}
	}
	if len(meta) > 0 {
		d.Metadata = meta
	}
	return d
}

// ParseCount parses a dataset count cell. Empty cells and float renderings
// such as "12.0" are accepted.
func ParseCount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func datePart(ts string) string {
	if ts == "" {
		return notAvailable
	}
	date, _, _ := strings.Cut(ts, "T")
	return date
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
