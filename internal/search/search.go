package search

import (
	"context"
	"net/url"
	"strings"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name for observability
}

// Provider is the WebSearch capability (spec.md §4.1/§9): given a query and
// a desired result count, return organic results.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// DomainPolicy allows providers to filter or block results/requests by host.
// Implementations should treat Denylist as taking precedence over Allowlist.
type DomainPolicy struct {
    Allowlist []string
    Denylist  []string
}

// isDomainBlocked reports whether rawURL's host is excluded by the given
// allow/deny lists: a denylist match always blocks; otherwise, a non-empty
// allowlist blocks any host not found on it. Matching is by exact host or
// subdomain, mirroring fetch.Client's own SkipDomains matching.
func isDomainBlocked(rawURL string, allowlist, denylist []string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}
	host := strings.ToLower(u.Hostname())
	if hostMatchesAny(host, denylist) {
		return true, nil
	}
	if len(allowlist) > 0 && !hostMatchesAny(host, allowlist) {
		return true, nil
	}
	return false, nil
}

func hostMatchesAny(host string, domains []string) bool {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
