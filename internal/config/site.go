package config

import "maps"

// SiteConfig holds site-specific configuration for a single domain.
// This allows customizing crawl behavior per site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// URLLimit overrides the global URL limit for this site.
	// If zero, the global URLLimit is used.
	URLLimit int `yaml:"urlLimit,omitempty"`

	// Capacity overrides the global worker count for this site.
	Capacity int `yaml:"capacity,omitempty"`

	// IgnoreExtensions are added to the built-in list of file extensions
	// that are never crawled.
	IgnoreExtensions []string `yaml:"ignoreExtensions,omitempty"`

	// SessionEndPhrases are added to the built-in list of logout markers.
	SessionEndPhrases []string `yaml:"sessionEndPhrases,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .crawlytics configuration file.
type File struct {
	// Sites maps domains to their site-specific configurations.
	// Keys are host names without the scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific domain.
// The domain is looked up as given and then in normalized form.
// It merges the site-specific configuration with defaults. List values
// replace the defaults; headers are merged key by key.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[domain]
	if !ok {
		siteConfig, ok = cf.Sites[NormalizeSiteKey(domain)]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.URLLimit != 0 {
		result.URLLimit = siteConfig.URLLimit
	}
	if siteConfig.Capacity != 0 {
		result.Capacity = siteConfig.Capacity
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnoreExtensions) > 0 {
		result.IgnoreExtensions = siteConfig.IgnoreExtensions
	}
	if len(siteConfig.SessionEndPhrases) > 0 {
		result.SessionEndPhrases = siteConfig.SessionEndPhrases
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}
