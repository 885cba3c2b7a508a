package app

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// dnsCacheTTL matches spec.md §4.1/§5's shared-transport "DNS cache TTL
// 300s" requirement.
const dnsCacheTTL = 300 * time.Second

type dnsCacheEntry struct {
	addrs   []string
	expires time.Time
}

// dnsCache is a small TTL cache in front of the stdlib resolver so repeated
// requests to the same host across a run's lifetime (LLM, search, and
// page-fetch adapters alike) don't re-resolve DNS on every connection. No
// pack repo ships a DNS-caching resolver, so this is hand-rolled over the
// stdlib resolver; the pooling/keep-alive/per-host-cap settings below are
// plain http.Transport tuning, which is inherently stdlib territory.
type dnsCache struct {
	mu      sync.Mutex
	entries map[string]dnsCacheEntry
}

func newDNSCache() *dnsCache {
	return &dnsCache{entries: make(map[string]dnsCacheEntry)}
}

func (c *dnsCache) lookup(ctx context.Context, host string) ([]string, error) {
	c.mu.Lock()
	entry, ok := c.entries[host]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.addrs, nil
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[host] = dnsCacheEntry{addrs: addrs, expires: time.Now().Add(dnsCacheTTL)}
	c.mu.Unlock()
	return addrs, nil
}

// dialContext wraps dialer so addresses are resolved through the cache
// before dialing, falling back to the dialer's own resolution on any
// lookup failure. A literal IP address resolves to itself.
func (c *dnsCache) dialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return dialer.DialContext(ctx, network, addr)
		}
		addrs, err := c.lookup(ctx, host)
		if err != nil || len(addrs) == 0 {
			return dialer.DialContext(ctx, network, addr)
		}
		var lastErr error
		for _, a := range addrs {
			conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(a, port))
			if dialErr == nil {
				return conn, nil
			}
			lastErr = dialErr
		}
		return nil, lastErr
	}
}

// newTransport builds the *http.Transport shared by every capability
// adapter: a singleton connection pool with keep-alive, a per-host cap
// (perHostCap <= 0 means unlimited, matching http.Transport's own
// zero-means-unlimited convention), and the DNS cache above.
func newTransport(sslVerify bool, perHostCap int) *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	cache := newDNSCache()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           cache.dialContext(dialer),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,    // no global limit
		MaxIdleConnsPerHost:   1024, // large per-host pool
		MaxConnsPerHost:       perHostCap,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if !sslVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}

// newHighThroughputHTTPClient returns a standalone HTTP client tuned for
// high parallelism without client-side throttling, built on its own
// transport. If sslVerify is false, SSL certificate verification is
// disabled for self-signed certs.
func newHighThroughputHTTPClient(sslVerify bool) *http.Client {
	return &http.Client{Transport: newTransport(sslVerify, 0), Timeout: 60 * time.Second}
}

var (
	sharedTransportOnce sync.Once
	sharedTransportInst *http.Transport
)

// SharedTransport returns the process-wide *http.Transport every capability
// adapter (LLM, web search, page fetch) is built on: one connection pool,
// one DNS cache, and a per-host cap pinned to cfg.MaxConcurrentRequests, per
// spec.md §4.1/§5's shared-transport invariant. Built once; cfg values from
// the first call win for the lifetime of the process, matching the
// single-config-load lifecycle the rest of this engine assumes.
func SharedTransport(cfg Config) *http.Transport {
	sharedTransportOnce.Do(func() {
		sharedTransportInst = newTransport(cfg.SSLVerify, cfg.MaxConcurrentRequests)
	})
	return sharedTransportInst
}

// NewSharedHTTPClient builds an *http.Client for one capability adapter on
// top of SharedTransport(cfg), with its own request timeout layered on top
// (each capability has a different deadline: API_TIMEOUT, PAGE_FETCH_TIMEOUT,
// or a fixed search timeout).
func NewSharedHTTPClient(cfg Config, timeout time.Duration) *http.Client {
	return &http.Client{Transport: SharedTransport(cfg), Timeout: timeout}
}
