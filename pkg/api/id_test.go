package api

import (
	"strings"
	"testing"
)

func TestNewPostID(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		id := NewPostID()
		if !ValidatePostID(id) {
			t.Fatalf("NewPostID() = %q does not validate", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewPostIDUsesWholeAlphabet(t *testing.T) {
	// 500 IDs hold 12000 characters; every one of the 62 should appear.
	used := make(map[rune]bool)
	for range 500 {
		for _, c := range strings.TrimPrefix(NewPostID(), "post_") {
			used[c] = true
		}
	}
	if len(used) != len(alphabet) {
		t.Errorf("only %d of %d characters used", len(used), len(alphabet))
	}
}

func TestValidatePostID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"post_abcdefghijklmnopqrstuvwx", true},
		{"post_ABCDEFGHIJKLMNOPQRSTUVW1", true},
		{"post_short", false},
		{"post_abcdefghijklmnopqrstuvwxy", false},
		{"resp_abcdefghijklmnopqrstuvwx", false},
		{"post_abcdefghijklmnopqrstuv-x", false},
		{"post_abcdefghijklmnopqrstuvé", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidatePostID(tt.id); got != tt.want {
			t.Errorf("ValidatePostID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
