package model

import (
	"strings"
	"testing"
)

func TestWebsite_DisplayName(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 51)

	tests := []struct {
		name string
		site Website
		want string
	}{
		{"title preferred", Website{URL: "https://x.org", Title: "X"}, "X"},
		{"url fallback", Website{URL: "https://x.org"}, "https://x.org"},
		{"exactly fifty kept", Website{Title: strings.Repeat("b", 50)}, strings.Repeat("b", 50)},
		{"truncated", Website{Title: long}, strings.Repeat("a", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.site.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWebsite_Detail_GitHub(t *testing.T) {
	t.Parallel()

	w := &Website{
		URL:        "https://github.com/org/repo",
		Stars:      1200,
		Forks:      30,
		OpenIssues: 4,
		CreatedAt:  "2021-05-04T10:00:00Z",
		LastUpdate: "",
		Language:   "Go",
	}

	d := w.Detail()
	if d.Stats == nil {
		t.Fatal("expected GitHub stats")
	}
	if d.Metadata != nil {
		t.Errorf("expected no metadata for GitHub entry, got %v", d.Metadata)
	}
	if d.Stats.Created != "2021-05-04" {
		t.Errorf("Created = %q, want date part", d.Stats.Created)
	}
	if d.Stats.LastUpdate != "N/A" {
		t.Errorf("LastUpdate = %q, want N/A", d.Stats.LastUpdate)
	}
	if d.Heading != w.URL {
		t.Errorf("Heading = %q, want URL fallback", d.Heading)
	}
}

func TestWebsite_Detail_Metadata(t *testing.T) {
	t.Parallel()

	w := &Website{
		URL:        "https://example.org",
		Title:      "Example",
		Type:       "campaign",
		StatusCode: "200",
		Registrar:  "",
	}

	d := w.Detail()
	if d.Stats != nil {
		t.Fatal("expected no GitHub stats for a plain website")
	}
	if len(d.Metadata) != 2 {
		t.Fatalf("expected 2 non-empty metadata entries, got %v", d.Metadata)
	}
	if d.Metadata["Status"] != "200" {
		t.Errorf("Status = %q, want 200", d.Metadata["Status"])
	}
	if _, ok := d.Metadata["Registrar"]; ok {
		t.Error("empty Registrar should be omitted")
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{" 7 ", 7, false},
		{"12.0", 12, false},
		{"many", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCount(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
