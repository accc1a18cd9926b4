package service

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Morning Yoga Flow", "morning-yoga-flow"},
		{"  Hello,   World!  ", "hello-world"},
		{"Episode #42: The Return", "episode-42-the-return"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER", "upper"},
		{"???", ""},
		{"", ""},
		{"trailing punctuation!!!", "trailing-punctuation"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugSuffix(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		suffix, err := SlugSuffix()
		if err != nil {
			t.Fatalf("suffix: %v", err)
		}
		if len(suffix) != slugSuffixLength {
			t.Fatalf("suffix %q has length %d, want %d", suffix, len(suffix), slugSuffixLength)
		}
		for _, r := range suffix {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
				t.Fatalf("suffix %q contains %q outside the allowed alphabet", suffix, r)
			}
		}
		seen[suffix] = true
	}
	if len(seen) < 2 {
		t.Error("suffixes never varied across 20 draws")
	}
}
