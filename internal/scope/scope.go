package scope

import "strings"

// DomainOf returns the host component of rawURL: everything after the scheme
// separator up to the first '/'. Ports and userinfo are kept as written.
//
//	DomainOf("https://blog.example.com/a/b") == "blog.example.com"
//	DomainOf("example.com/a")                == "example.com"
func DomainOf(rawURL string) string {
	rest := rawURL
	if _, after, ok := strings.Cut(rest, "://"); ok {
		rest = after
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

// IsInScope reports whether rawURL belongs to the crawl of domain.
// The URL must mention "http" somewhere and its host must contain domain.
// An empty domain matches nothing.
func IsInScope(rawURL, domain string) bool {
	if domain == "" {
		return false
	}
	return strings.Contains(rawURL, "http") && strings.Contains(DomainOf(rawURL), domain)
}
