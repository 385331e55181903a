package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/koopa0/lessonbank/internal/lesson"
)

// fakeStore simulates merge-or-create against an in-memory hash index.
type fakeStore struct {
	byHash map[string]*lesson.Lesson
}

func newFakeStore() *fakeStore {
	return &fakeStore{byHash: make(map[string]*lesson.Lesson)}
}

func (f *fakeStore) MergeOrCreate(_ context.Context, hash string, _ bool, _ string, decide lesson.DecideFunc) (lesson.Outcome, error) {
	result, outcome, err := decide(f.byHash[hash])
	if err != nil {
		return 0, err
	}
	if result != nil {
		f.byHash[hash] = result
	}
	return outcome, nil
}

func TestProcessLessons_Create(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := NewPipeline(store, nil, nil)

	res := p.ProcessLessons(context.Background(), []RawLesson{
		{
			Type:     "manual",
			Content:  "Use explain analyze to read the query plan before adding indexes.",
			Category: "database",
			Tags:     []string{"sql", "sql", "postgres"},
		},
	}, "acme", true)

	if res.Created != 1 || res.Updated != 0 || res.Skipped != 0 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v, want exactly one create", res)
	}

	var got *lesson.Lesson
	for _, l := range store.byHash {
		got = l
	}
	if got == nil {
		t.Fatal("no lesson persisted")
	}
	if !got.IsGeneric {
		t.Error("lesson should be generic")
	}
	if got.SourceProject != "acme" || len(got.SourceProjects) != 1 {
		t.Errorf("source projects = %q/%v, want acme", got.SourceProject, got.SourceProjects)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, want duplicates removed", got.Tags)
	}
	if got.Subcategory != "query-optimization" {
		t.Errorf("subcategory = %q, want classifier result", got.Subcategory)
	}
	if got.ContentHash == "" || len(got.ContentHash) != 64 {
		t.Errorf("content hash %q is not a sha-256 digest", got.ContentHash)
	}
	if got.Summary == "" {
		t.Error("summary was not extracted")
	}
}

func TestProcessLessons_MergeOnDuplicate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := NewPipeline(store, nil, nil)
	content := "Prefer table-driven unit tests for parser edge cases."

	first := p.ProcessLessons(context.Background(), []RawLesson{
		{Type: "manual", Content: content, Category: "testing", Tags: []string{"go"}},
	}, "acme", true)
	if first.Created != 1 {
		t.Fatalf("first batch: %+v, want one create", first)
	}

	second := p.ProcessLessons(context.Background(), []RawLesson{
		{Type: "manual", Content: content, Tags: []string{"go", "parser"}},
	}, "other-project", true)
	if second.Updated != 1 || second.Created != 0 {
		t.Fatalf("second batch: %+v, want one update", second)
	}

	var got *lesson.Lesson
	for _, l := range store.byHash {
		got = l
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, want union of both batches", got.Tags)
	}
	if len(got.SourceProjects) != 2 {
		t.Errorf("source projects = %v, want both contributors", got.SourceProjects)
	}
	if got.Category != "testing" {
		t.Errorf("category = %q, first write should win", got.Category)
	}
}

func TestProcessLessons_SkipWhenNothingChanges(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := NewPipeline(store, nil, nil)
	raw := RawLesson{Type: "manual", Content: "Identical resubmission changes nothing.", Tags: []string{"go"}}

	p.ProcessLessons(context.Background(), []RawLesson{raw}, "acme", true)
	res := p.ProcessLessons(context.Background(), []RawLesson{raw}, "acme", true)

	if res.Skipped != 1 || res.Updated != 0 || res.Created != 0 {
		t.Errorf("result = %+v, want one skip", res)
	}
}

func TestProcessLessons_EntryValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     RawLesson
		generic bool
		wantErr string
	}{
		{
			name:    "missing content",
			raw:     RawLesson{Type: "manual"},
			wantErr: "content is required",
		},
		{
			name:    "missing type",
			raw:     RawLesson{Content: "something"},
			wantErr: "type is required",
		},
		{
			name:    "project path in generic content",
			raw:     RawLesson{Type: "manual", Content: "Assets live in /var/www/shop/public."},
			generic: true,
			wantErr: "not generic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewPipeline(newFakeStore(), nil, nil)
			res := p.ProcessLessons(context.Background(), []RawLesson{tt.raw}, "acme", tt.generic)
			if len(res.Errors) != 1 {
				t.Fatalf("errors = %v, want one", res.Errors)
			}
			if !strings.Contains(res.Errors[0], tt.wantErr) {
				t.Errorf("error %q does not mention %q", res.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestProcessLessons_GenericityReportsEveryViolation(t *testing.T) {
	t.Parallel()

	p := NewPipeline(newFakeStore(), nil, nil)
	raw := RawLesson{
		Type:    "manual",
		Content: "Deploy to /var/www/shop/current after syncing /home/deploy/shop.",
	}
	res := p.ProcessLessons(context.Background(), []RawLesson{raw}, "acme", true)

	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want one", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "web-root path") || !strings.Contains(res.Errors[0], "home-directory path") {
		t.Errorf("error %q does not list both violations", res.Errors[0])
	}
}

func TestProcessLessons_BadEntryDoesNotSinkBatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := NewPipeline(store, nil, nil)

	res := p.ProcessLessons(context.Background(), []RawLesson{
		{Type: "manual"}, // missing content
		{Type: "manual", Content: "A valid lesson about go routines and deadlocks."},
	}, "acme", false)

	if res.Created != 1 {
		t.Errorf("created = %d, want the valid entry processed", res.Created)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "entry 0") {
		t.Errorf("errors = %v, want one error naming entry 0", res.Errors)
	}
}

func TestProcessLessons_ProjectContentAllowedInProjectPool(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := NewPipeline(store, nil, nil)

	res := p.ProcessLessons(context.Background(), []RawLesson{
		{Type: "project-detail", Content: "Config lives in /var/www/shop/config/app.php."},
	}, "shop", false)

	if res.Created != 1 || len(res.Errors) != 0 {
		t.Errorf("result = %+v, project pool should accept project paths", res)
	}
}
