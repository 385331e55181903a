package ingest

import (
	"strings"
	"testing"
)

func TestClassifySubcategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category string
		text     string
		want     string
	}{
		{
			name:     "unit testing keywords",
			category: "testing",
			text:     "Write a unit test with an assertion per behavior and prefer table-driven layouts.",
			want:     "unit-testing",
		},
		{
			name:     "e2e keywords",
			category: "testing",
			text:     "Run the browser test suite through playwright before release.",
			want:     "e2e-testing",
		},
		{
			name:     "database query tuning",
			category: "database",
			text:     "Use explain analyze to inspect the query plan and catch the n+1 access pattern.",
			want:     "query-optimization",
		},
		{
			name:     "longer keywords outrank shorter",
			category: "backend",
			text:     "The background job worker drains the queue on a cron schedule.",
			want:     "background-jobs",
		},
		{
			name:     "unknown category",
			category: "cooking",
			text:     "unit test everything",
			want:     "",
		},
		{
			name:     "no keyword match",
			category: "testing",
			text:     "completely unrelated prose about gardening",
			want:     "",
		},
		{
			name:     "case insensitive",
			category: "security",
			text:     "Sanitize UNTRUSTED INPUT to avoid SQL INJECTION.",
			want:     "input-validation",
		},
		{
			name:     "empty text",
			category: "testing",
			text:     "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifySubcategory(tt.category, tt.text)
			if got != tt.want {
				t.Errorf("ClassifySubcategory(%q, ...) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}

func TestClassifySubcategory_WindowBound(t *testing.T) {
	t.Parallel()

	// A keyword placed past the inspection window must not match.
	text := strings.Repeat("x ", classifyWindow) + " unit test assertion"
	if got := ClassifySubcategory("testing", text); got != "" {
		t.Errorf("keyword beyond window classified as %q, want empty", got)
	}
}

func TestClassifySubcategory_WindowRuneBoundary(t *testing.T) {
	t.Parallel()

	// Three-byte padding runes arranged so the window cut falls inside
	// one; keywords before the window must still match.
	prefix := "unit test assertion " // 20 bytes
	pad := strings.Repeat("簡", (classifyWindow-len(prefix))/3+40)
	if got := ClassifySubcategory("testing", prefix+pad); got != "unit-testing" {
		t.Errorf("ClassifySubcategory = %q, want %q", got, "unit-testing")
	}
}

func TestKnownCategories(t *testing.T) {
	t.Parallel()

	cats := KnownCategories()
	if len(cats) == 0 {
		t.Fatal("no known categories")
	}

	want := map[string]bool{
		"testing": true, "backend": true, "frontend": true, "database": true,
		"security": true, "performance": true, "deployment": true, "tooling": true,
	}
	for _, c := range cats {
		if !want[c] {
			t.Errorf("unexpected category %q", c)
		}
		delete(want, c)
	}
	for c := range want {
		t.Errorf("missing category %q", c)
	}
}
