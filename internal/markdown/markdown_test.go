package markdown

import "testing"

func TestEscapeV2(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "Hello world", "Hello world"},
		{"Punctuation", "Mr. Smith (CEO)!", `Mr\. Smith \(CEO\)\!`},
		{"Markup", "*bold* _it_ `code`", "\\*bold\\* \\_it\\_ \\`code\\`"},
		{"Backslash", `a\b`, `a\\b`},
		{"Multibyte", "Quantum Milestone: 1000-Qubit café", `Quantum Milestone: 1000\-Qubit café`},
		{"Empty", "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := EscapeV2(test.input); got != test.want {
				t.Fatalf("unexpected escape: got %q want %q", got, test.want)
			}
		})
	}
}

func TestEscapeLinkURL(t *testing.T) {
	got := EscapeLinkURL(`https://example.com/a_(b)\c`)
	want := `https://example.com/a_(b\)\\c`

	if got != want {
		t.Fatalf("unexpected escape: got %q want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 10); got != "héllo" {
		t.Fatalf("unexpected short truncate: %q", got)
	}
	if got := Truncate("héllo world", 5); got != "héll…" {
		t.Fatalf("unexpected truncate: %q", got)
	}
}
