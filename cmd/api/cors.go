package main

import (
	"net/url"
	"strings"
)

// matchCORSOrigin reports whether origin is allowed by any configured
// pattern. Patterns are exact origins, "*", or a wildcard subdomain
// form like "https://*.example.com" (scheme must match, bare domain
// is not covered).
func matchCORSOrigin(origin string, patterns []string) bool {
	for _, p := range patterns {
		if p == "*" || p == origin {
			return true
		}
		i := strings.Index(p, "://*.")
		if i < 0 {
			continue
		}
		scheme := p[:i]
		domain := p[i+len("://*."):]

		u, err := url.Parse(origin)
		if err != nil || u.Scheme != scheme || u.Host == "" {
			continue
		}
		if strings.HasSuffix(u.Host, "."+domain) {
			return true
		}
	}
	return false
}
