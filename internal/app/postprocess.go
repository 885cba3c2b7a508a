package app

// PostprocessReport runs the deterministic, network-free Markdown
// enrichments over a synthesized report, in an order each step depends on:
// an auto-generated table of contents once the document has enough
// headings, a numbered References appendix built from the cited URLs (must
// land before the glossary so manageAppendices finds it and the glossary's
// own body-extraction excludes it), a glossary appendix when acronyms or
// recurring key terms are found, appendix relettering, and a
// reproducibility footer. The ToC, glossary and appendix steps are no-ops
// when their trigger condition isn't met or their output is already
// present; the References list (when citations exist) and the footer are
// appended on every call.
func PostprocessReport(markdown string, model, llmBaseURL string, citations []string) string {
	markdown = appendAutoToC(markdown, 6)
	markdown = appendReferencesSection(markdown, citations)
	markdown = appendGlossaryAppendix(markdown)
	markdown = manageAppendices(markdown)
	markdown = appendReproFooter(markdown, model, llmBaseURL, len(citations), false, false)
	return markdown
}

// ExportPDF renders the report to outPath as a simple PDF. It is the
// optional PDF-export path configured by Config.EnablePDF.
func ExportPDF(markdown, outPath string) error {
	return writeSimplePDF(markdown, outPath)
}
