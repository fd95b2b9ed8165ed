package fetch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://Example.COM/Path", "https://example.com/Path"},
		{"strips query", "https://example.com/a?utm_source=x&ref=y", "https://example.com/a"},
		{"strips fragment", "https://example.com/a#section", "https://example.com/a"},
		{"strips trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in, nil)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_KeepQueryHosts(t *testing.T) {
	keep := []string{"www.youtube.com"}

	got, err := Normalize("https://www.youtube.com/watch?v=abc123", keep)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("expected query preserved for allow-listed host, got %q", got)
	}

	got, err = Normalize("https://example.com/watch?v=abc123", keep)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/watch" {
		t.Errorf("expected query stripped for other hosts, got %q", got)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, in := range []string{"ftp://example.com/file", "not a url at all", "mailto:x@y.z", "/relative/only"} {
		if _, err := Normalize(in, nil); err == nil {
			t.Errorf("Normalize(%q): expected error", in)
		}
	}
}
