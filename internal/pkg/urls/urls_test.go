package urls

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bare host gets root slash", "https://example.com", "https://example.com/"},
		{"root path unchanged", "https://example.com/", "https://example.com/"},
		{"path gets trailing slash", "https://example.com/pricing", "https://example.com/pricing/"},
		{"trailing slash unchanged", "https://example.com/pricing/", "https://example.com/pricing/"},
		{"query preserved", "https://example.com/pricing?plan=pro", "https://example.com/pricing/?plan=pro"},
		{"fragment preserved", "https://example.com/docs#install", "https://example.com/docs/#install"},
		{"unparseable passthrough", "http://%zz", "http://%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com",
		"https://example.com/pricing",
		"https://example.com/pricing?plan=pro&ref=x",
		"https://example.com/docs#install",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
