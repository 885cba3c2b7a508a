// Package urlrules implements the URL validation and cleaning contract
// applied at every ingress point (search results, deep-fetch targets,
// synthesizer citations).
package urlrules

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\$[1-9]|\{id\}|\{slug\}|%s|:id|\[id\]|<id>|\{[^}]*\}|<[^>]*>|\$\d+`)

	trailingPathRe = regexp.MustCompile(`(?i)/(articles?|paper|doi|abstract|pmc|pubmed|content|view|detail|item|search|results|list|index|home)/?$`)

	pmcIDRe   = regexp.MustCompile(`/PMC\d+`)
	pubmedIDRe = regexp.MustCompile(`/\d+`)
	doiIDRe   = regexp.MustCompile(`10\.\d+/`)
	arxivIDRe = regexp.MustCompile(`\d{4}\.\d+`)

	trackingParamPrefixes = []string{"utm_", "fbclid", "gclid", "ref", "source"}
)

// IsValidURL reports whether u satisfies every rule in the validation
// contract: scheme, dot-containing host, no placeholder tokens, no
// trailing-directory-only path, and host-specific identifier patterns for
// the handful of hosts the spec calls out by name.
func IsValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := parsed.Hostname()
	if host == "" || !strings.Contains(host, ".") {
		return false
	}
	if placeholderRe.MatchString(raw) {
		return false
	}
	if trailingPathRe.MatchString(parsed.Path) {
		return false
	}
	if !hostSpecificRule(host, raw) {
		return false
	}
	return true
}

// hostSpecificRule applies the identifier patterns the spec requires for
// a handful of named hosts. Hosts outside this list are unconstrained.
func hostSpecificRule(host, raw string) bool {
	h := strings.ToLower(host)
	switch {
	case strings.Contains(h, "pmc.ncbi.nlm.nih.gov") || strings.Contains(h, "ncbi.nlm.nih.gov/pmc"):
		return pmcIDRe.MatchString(raw)
	case strings.Contains(h, "pubmed.ncbi.nlm.nih.gov"):
		return pubmedIDRe.MatchString(raw)
	case strings.Contains(h, "doi.org"):
		return doiIDRe.MatchString(raw)
	case strings.Contains(h, "arxiv.org"):
		return arxivIDRe.MatchString(raw)
	default:
		return true
	}
}

// Clean strips tracking query parameters and empty query strings. It is
// idempotent: Clean(Clean(u)) == Clean(u).
func Clean(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if parsed.RawQuery == "" {
		parsed.ForceQuery = false
		return parsed.String()
	}
	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if isTrackingParam(lower) {
			q.Del(key)
		}
	}
	parsed.RawQuery = q.Encode()
	if parsed.RawQuery == "" {
		// Avoid leaving a bare "?" on the cleaned URL.
		parsed.RawQuery = ""
	}
	return parsed.String()
}

func isTrackingParam(key string) bool {
	for _, p := range trackingParamPrefixes {
		if key == p || strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
