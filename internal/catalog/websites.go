package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/penshort/budgetdesk/internal/model"
)

var websiteColumns = []string{
	"url", "title", "content_summary", "screenshot_path",
	"stars", "forks", "open_issues", "created_at", "last_update", "language",
	"type", "status_code", "server", "creation_date", "registrar",
}

// Websites is the immutable website/repository dataset.
type Websites struct {
	items []model.Website
	byURL map[string]int
}

// NewWebsites builds a dataset from already-parsed entries.
func NewWebsites(items []model.Website) *Websites {
	w := &Websites{byURL: make(map[string]int, len(items))}
	for _, item := range items {
		if _, dup := w.byURL[item.URL]; dup {
			continue
		}
		w.byURL[item.URL] = len(w.items)
		w.items = append(w.items, item)
	}
	return w
}

// LoadWebsites reads the dataset. Missing cells become empty strings or zero.
func LoadWebsites(ctx context.Context, src Source) (*Websites, error) {
	t, err := readTable(ctx, src, websiteColumns)
	if err != nil {
		return nil, err
	}

	items := make([]model.Website, 0, len(t.rows))
	for i, row := range t.rows {
		url := t.get(row, "url")
		if url == "" {
			continue
		}

		counts := make([]int64, 3)
		for j, col := range []string{"stars", "forks", "open_issues"} {
			n, err := model.ParseCount(t.get(row, col))
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: invalid %s: %w", src, i+2, col, err)
			}
			counts[j] = n
		}

		items = append(items, model.Website{
			URL:            url,
			Title:          t.get(row, "title"),
			ContentSummary: t.get(row, "content_summary"),
			ScreenshotPath: t.get(row, "screenshot_path"),
			Stars:          counts[0],
			Forks:          counts[1],
			OpenIssues:     counts[2],
			CreatedAt:      t.get(row, "created_at"),
			LastUpdate:     t.get(row, "last_update"),
			Language:       t.get(row, "language"),
			Type:           t.get(row, "type"),
			StatusCode:     t.get(row, "status_code"),
			Server:         t.get(row, "server"),
			CreationDate:   t.get(row, "creation_date"),
			Registrar:      t.get(row, "registrar"),
		})
	}
	return NewWebsites(items), nil
}

// LoadWebsitesOrEmpty is LoadWebsites that degrades to an empty dataset.
func LoadWebsitesOrEmpty(ctx context.Context, src Source, logger *slog.Logger) *Websites {
	w, err := LoadWebsites(ctx, src)
	if err != nil {
		logger.Warn("website_dataset_unavailable",
			slog.String("source", src.String()),
			slog.String("error", err.Error()),
		)
		return NewWebsites(nil)
	}
	logger.Info("website_dataset_loaded",
		slog.String("source", src.String()),
		slog.Int("websites", w.Len()),
	)
	return w
}

// Len returns the number of entries.
func (w *Websites) Len() int {
	return len(w.items)
}

// Search matches query against url, title and summary, case-insensitively.
// An empty query returns every entry.
func (w *Websites) Search(query string) []model.Website {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(w.items)
	}

	result := []model.Website{}
	for _, item := range w.items {
		if containsFold(item.URL, query) || containsFold(item.Title, query) || containsFold(item.ContentSummary, query) {
			result = append(result, item)
		}
	}
	return result
}

// Random picks one entry. ok is false when the dataset is empty.
func (w *Websites) Random(r *rand.Rand) (model.Website, bool) {
	if len(w.items) == 0 {
		return model.Website{}, false
	}
	if r == nil {
		return w.items[rand.IntN(len(w.items))], true
	}
	return w.items[r.IntN(len(w.items))], true
}

// Find looks up an entry by url.
func (w *Websites) Find(url string) (model.Website, bool) {
	i, ok := w.byURL[url]
	if !ok {
		return model.Website{}, false
	}
	return w.items[i], true
}
