package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation is the outcome of a genericity check. Errors block the
// submission; warnings never do.
type Validation struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Patterns that indicate project-specific content leaking into the
// shared pool. This is an intentionally narrow heuristic, not a
// security boundary: no PII or secret scanning is attempted.
var (
	webRootPath = regexp.MustCompile(`/var/www/[^\s/]+(?:/[^\s]*)?`)
	homeDirPath = regexp.MustCompile(`/home/[^\s/]+/[^\s/]+`)
	localURL    = regexp.MustCompile(`https?://[^\s/]*\.(?:local|test|dev)(?:[/:][^\s]*)?`)
	quotedText  = regexp.MustCompile(`"([^"\n]+)"|'([^'\n]+)'`)
)

// placeholderNames are known generic stand-in names that usually mark
// copy-pasted project-specific examples.
var placeholderNames = []string{"myapp", "my-project", "example-app", "acme"}

// ValidateGenericity checks that content is fit for the shared
// cross-project pool. Only the generic namespace is validated;
// project-detail submissions bypass this entirely.
func ValidateGenericity(content string) Validation {
	v := Validation{Valid: true}

	if m := webRootPath.FindString(content); m != "" {
		v.Errors = append(v.Errors, fmt.Sprintf("content references a server web-root path: %s", m))
	}
	if m := homeDirPath.FindString(content); m != "" {
		v.Errors = append(v.Errors, fmt.Sprintf("content references a home-directory path: %s", m))
	}

	if m := localURL.FindString(content); m != "" {
		v.Warnings = append(v.Warnings, fmt.Sprintf("content references a local development URL: %s", m))
	}
	for _, match := range quotedText.FindAllStringSubmatch(content, -1) {
		quoted := match[1]
		if quoted == "" {
			quoted = match[2]
		}
		lower := strings.ToLower(quoted)
		if strings.Contains(lower, "project") {
			v.Warnings = append(v.Warnings, fmt.Sprintf("quoted string may name a specific project: %q", quoted))
			continue
		}
		for _, name := range placeholderNames {
			if strings.Contains(lower, name) {
				v.Warnings = append(v.Warnings, fmt.Sprintf("quoted string contains a placeholder name: %q", quoted))
				break
			}
		}
	}

	v.Valid = len(v.Errors) == 0
	return v
}
