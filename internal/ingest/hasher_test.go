package ingest

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "known digest",
			content: "hello world",
			want:    "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:    "empty content",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "unicode content",
			content: "避免在迴圈內查詢資料庫",
			wantErr: false,
		},
		{
			name:    "invalid utf-8",
			content: string([]byte{0xff, 0xfe, 0xfd}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Hash(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}
			if len(got) != 64 {
				t.Errorf("digest length = %d, want 64", len(got))
			}
			if got != strings.ToLower(got) {
				t.Errorf("digest %q is not lowercase", got)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("Hash(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := Hash("same content")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := Hash("same content")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a != b {
		t.Errorf("same content produced different digests: %q vs %q", a, b)
	}

	c, err := Hash("same content ")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == c {
		t.Error("trailing whitespace should change the digest")
	}
}

func TestHashEqual(t *testing.T) {
	t.Parallel()

	h, err := Hash("content")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if !HashEqual(h, h) {
		t.Error("identical hashes compare unequal")
	}
	if HashEqual(h, "") {
		t.Error("empty hash compares equal")
	}
	other, err := Hash("other content")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if HashEqual(h, other) {
		t.Error("different hashes compare equal")
	}
}
