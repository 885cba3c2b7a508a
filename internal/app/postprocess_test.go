package app

import (
	"strings"
	"testing"
)

func TestPostprocessReportAppendsFooter(t *testing.T) {
	md := "# Goal\n\n## 1. First\nbody\n\n## 2. Second\nbody\n\n## 3. Third\nbody\n"
	out := PostprocessReport(md, "gpt-4o-mini", "http://localhost:11434/v1", []string{"https://a.example/1", "https://b.example/2"})
	if !strings.Contains(out, "Reproducibility:") {
		t.Fatalf("expected reproducibility footer; got:\n%s", out)
	}
	if !strings.Contains(out, "model=gpt-4o-mini") {
		t.Fatalf("expected model field in footer")
	}
}

func TestPostprocessReportSkipsToCOnShortReport(t *testing.T) {
	md := "# Goal\n\nshort report with no headings to speak of.\n"
	out := PostprocessReport(md, "m", "", nil)
	if strings.Contains(out, "## Table of contents") {
		t.Fatalf("did not expect a ToC on a heading-sparse report; got:\n%s", out)
	}
	if !strings.Contains(out, "Reproducibility:") {
		t.Fatalf("expected footer regardless of ToC eligibility")
	}
}

func TestPostprocessReportAppendsEnrichedReferencesSection(t *testing.T) {
	md := "# Goal\n\n## 1. First\nbody with a finding.\n"
	out := PostprocessReport(md, "m", "", []string{"https://arxiv.org/pdf/1234.56789.pdf"})
	if !strings.Contains(out, "## References") {
		t.Fatalf("expected a References section; got:\n%s", out)
	}
	if !strings.Contains(out, "https://arxiv.org/abs/1234.56789") {
		t.Fatalf("expected arXiv URL canonicalized to its abs form; got:\n%s", out)
	}
	if !strings.Contains(out, "Accessed on") {
		t.Fatalf("expected an access-date stamp on the reference; got:\n%s", out)
	}
}
