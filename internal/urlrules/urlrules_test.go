package urlrules

import "testing"

func TestIsValidURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"plain https", "https://example.com/article/slug", true},
		{"no scheme", "example.com/article", false},
		{"no dot host", "https://localhost/article", false},
		{"placeholder dollar", "https://example.com/item/$1", false},
		{"placeholder brace", "https://example.com/item/{id}", false},
		{"placeholder percent-s", "https://example.com/item/%s", false},
		{"trailing articles", "https://example.com/articles", false},
		{"trailing articles slash", "https://example.com/articles/", false},
		{"pmc listing no id", "https://pmc.ncbi.nlm.nih.gov/articles/", false},
		{"pmc with id", "https://pmc.ncbi.nlm.nih.gov/articles/PMC1234567/", true},
		{"pubmed no id", "https://pubmed.ncbi.nlm.nih.gov/", false},
		{"pubmed with id", "https://pubmed.ncbi.nlm.nih.gov/35123456/", true},
		{"doi without prefix", "https://doi.org/somejournal/article", false},
		{"doi with prefix", "https://doi.org/10.1038/s41586-020-2649-2", true},
		{"arxiv without id", "https://arxiv.org/abs/quant-ph", false},
		{"arxiv with id", "https://arxiv.org/abs/2301.12345", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := IsValidURL(c.url)
			if got != c.want {
				t.Errorf("IsValidURL(%q) = %v, want %v", c.url, got, c.want)
			}
		})
	}
}

func TestCleanStripsTrackingParams(t *testing.T) {
	in := "https://example.com/post?utm_source=x&utm_medium=y&id=42&fbclid=abc"
	out := Clean(in)
	if out == in {
		t.Fatalf("expected cleaning to change the URL")
	}
	again := Clean(out)
	if again != out {
		t.Fatalf("Clean is not idempotent: Clean(%q) = %q, want %q", out, again, out)
	}
}

func TestCleanIsIdempotentOnPlainURL(t *testing.T) {
	in := "https://example.com/post?id=42"
	out := Clean(in)
	again := Clean(out)
	if again != out {
		t.Fatalf("Clean is not idempotent: Clean(%q) = %q, want %q", out, again, out)
	}
}
