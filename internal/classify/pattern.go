package classify

import (
	"net/url"
	"path/filepath"
	"strings"
)

// PathFilter restricts a crawl to URL paths matching glob patterns.
// The zero value allows every URL.
type PathFilter struct {
	// Ignore patterns reject matching paths.
	Ignore []string

	// Follow patterns, when set, are the only paths allowed.
	Follow []string
}

// Allows reports whether rawURL passes the filter.
//
// Logic:
//  1. If the path matches any Ignore pattern, reject it
//  2. If Follow is set and the path matches none, reject it
//  3. Otherwise, allow it
func (p PathFilter) Allows(rawURL string) bool {
	if len(p.Ignore) == 0 && len(p.Follow) == 0 {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range p.Ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(p.Follow) == 0 {
		return true
	}
	for _, pattern := range p.Follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash also match the last path element.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
