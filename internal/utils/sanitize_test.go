package utils

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello World", "Hello World"},
		{"surrounding whitespace", "  Hello World \n", "Hello World"},
		{"collapses runs", "Hello\t\t  World\n\nAgain", "Hello World Again"},
		{"drops control chars", "Hel\x00lo\x07", "Hello"},
		{"empty", "   \n\t  ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeText(tc.input); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
