package domain

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "JEE Crash Course", "jee-crash-course"},
		{"punctuation runs", "NEET -- 2025 (Batch A)!", "neet-2025-batch-a"},
		{"leading and trailing", "  --Physics--  ", "physics"},
		{"accents", "Física Básica", "fisica-basica"},
		{"digits", "Class 12", "class-12"},
		{"nothing usable", "!!!", ""},
		{"non-latin dropped", "गणित Maths", "maths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("ab ", 60))
	if len(got) > MaxSlugLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "jee-2025", "class-12-physics"}
	invalid := []string{"", "-a", "a-", "a--b", "Upper", "with space", strings.Repeat("a", MaxSlugLength+1)}

	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}

func TestProperty_SlugifyOutputIsValidOrEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.String().Draw(t, "title")
		slug := Slugify(title)
		if slug != "" && !ValidSlug(slug) {
			t.Fatalf("Slugify(%q) = %q, which is not a valid slug", title, slug)
		}
		if Slugify(slug) != slug {
			t.Fatalf("Slugify is not idempotent on %q", slug)
		}
	})
}
