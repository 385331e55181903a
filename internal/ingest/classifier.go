package ingest

import (
	"strings"
	"unicode/utf8"
)

// classifyWindow bounds how much text the classifier inspects. Lesson
// bodies can be long; the opening text carries the signal.
const classifyWindow = 1000

// subcategoryRule scores one candidate subcategory by keyword matches.
// Keyword length weights the score, so a specific multi-word phrase
// outranks a generic single word.
type subcategoryRule struct {
	name     string
	keywords []string
}

// subcategoryTable maps each known category to its candidate
// subcategories. Slice order is the tie-break: earlier entries win
// equal scores.
var subcategoryTable = map[string][]subcategoryRule{
	"testing": {
		{"unit-testing", []string{"unit test", "phpunit", "pest", "assertion", "mocking", "test double", "table-driven"}},
		{"integration-testing", []string{"integration test", "test database", "testcontainer", "fixture", "end to end setup"}},
		{"e2e-testing", []string{"e2e", "end-to-end", "browser test", "cypress", "playwright", "selenium"}},
		{"test-coverage", []string{"coverage", "code coverage", "coverage report"}},
	},
	"backend": {
		{"api-design", []string{"rest api", "endpoint", "api design", "versioning", "pagination", "http status"}},
		{"error-handling", []string{"error handling", "exception", "retry", "panic", "recover", "failure mode"}},
		{"background-jobs", []string{"queue", "background job", "worker", "cron", "scheduled task", "batch job"}},
		{"caching", []string{"cache", "caching", "memoiz", "invalidation", "ttl"}},
	},
	"frontend": {
		{"state-management", []string{"state management", "store", "redux", "signal", "reactive state"}},
		{"component-design", []string{"component", "props", "slot", "render", "reusable ui"}},
		{"styling", []string{"css", "tailwind", "stylesheet", "responsive", "layout"}},
	},
	"database": {
		{"query-optimization", []string{"query plan", "explain analyze", "slow query", "n+1", "index scan", "optimization"}},
		{"schema-migration", []string{"migration", "schema change", "alter table", "rollback", "versioned schema"}},
		{"data-modeling", []string{"normalization", "foreign key", "relationship", "data model", "constraint"}},
	},
	"security": {
		{"input-validation", []string{"sanitiz", "validation", "sql injection", "xss", "escaping", "untrusted input"}},
		{"authentication", []string{"authentication", "login", "token", "session", "oauth", "password"}},
		{"authorization", []string{"authorization", "permission", "role", "access control", "policy"}},
	},
	"performance": {
		{"profiling", []string{"profil", "benchmark", "flame graph", "bottleneck", "pprof"}},
		{"memory-usage", []string{"memory", "allocation", "leak", "garbage collect", "heap"}},
		{"concurrency", []string{"goroutine", "mutex", "race condition", "parallel", "deadlock", "channel"}},
	},
	"deployment": {
		{"ci-cd", []string{"pipeline", "continuous integration", "github actions", "build step", "deploy step"}},
		{"containerization", []string{"docker", "container", "image", "kubernetes", "compose"}},
		{"configuration", []string{"environment variable", "config file", "secret", "feature flag"}},
	},
	"tooling": {
		{"code-style", []string{"linter", "formatter", "style guide", "naming convention", "gofmt"}},
		{"editor-setup", []string{"editor", "ide", "extension", "snippet", "keybinding"}},
		{"build-tools", []string{"makefile", "build script", "task runner", "compilation"}},
	},
}

// ClassifySubcategory maps (category, text) to the best-matching
// subcategory, or "" when the category is unknown or no keyword
// matches. Matching is case-insensitive over the first
// classifyWindow characters of text.
func ClassifySubcategory(category, text string) string {
	rules, ok := subcategoryTable[category]
	if !ok {
		return ""
	}

	if len(text) > classifyWindow {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := classifyWindow
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	text = strings.ToLower(text)

	best := ""
	bestScore := 0
	for _, rule := range rules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				score += len(kw)
			}
		}
		// Strict > keeps the first-inserted rule on ties.
		if score > bestScore {
			best = rule.name
			bestScore = score
		}
	}
	return best
}

// KnownCategories returns the classifier's category names.
func KnownCategories() []string {
	cats := make([]string, 0, len(subcategoryTable))
	for c := range subcategoryTable {
		cats = append(cats, c)
	}
	return cats
}
