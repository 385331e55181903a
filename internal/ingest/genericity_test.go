package ingest

import (
	"strings"
	"testing"
)

func TestValidateGenericity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name:      "clean generic content",
			content:   "Always wrap external calls with a context deadline.",
			wantValid: true,
		},
		{
			name:       "web root path",
			content:    "Deploy artifacts land in /var/www/acme/current on the app server.",
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "home directory path",
			content:    "Logs are written to /home/deploy/app-logs when the job runs.",
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:         "local development URL warns only",
			content:      "Point the client at https://api.myservice.test/v1 during development.",
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "quoted project name warns only",
			content:      `Rename the "billing-project" module before extracting it.`,
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "quoted placeholder name warns only",
			content:      `Replace "myapp" with the real service name in the config.`,
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:       "multiple violations collected",
			content:    "Copy /var/www/shop/config to /home/deploy/backup before upgrading.",
			wantValid:  false,
			wantErrors: 2,
		},
		{
			name:      "unquoted placeholder does not warn",
			content:   "The myapp binary reads its flags from the environment.",
			wantValid: true,
		},
		{
			name:      "empty content",
			content:   "",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := ValidateGenericity(tt.content)
			if v.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", v.Valid, tt.wantValid, v.Errors)
			}
			if len(v.Errors) != tt.wantErrors {
				t.Errorf("Errors = %v, want %d entries", v.Errors, tt.wantErrors)
			}
			if len(v.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d entries", v.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestValidateGenericity_ErrorNamesTheMatch(t *testing.T) {
	t.Parallel()

	v := ValidateGenericity("see /var/www/shop/index.php for details")
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if len(v.Errors) != 1 || !strings.Contains(v.Errors[0], "/var/www/shop") {
		t.Errorf("error %v does not name the offending path", v.Errors)
	}
}
