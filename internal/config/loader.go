package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".crawlytics"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
//
// Site keys are normalized with NormalizeSiteKey, so "https://Example.com/"
// and "example.com" name the same site; two keys that normalize to the same
// site are an error, as are negative URL limits or capacities.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if err := validateSite("defaults", cf.Defaults); err != nil {
		return nil, err
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for key, site := range cf.Sites {
		domain := NormalizeSiteKey(key)
		if domain == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSiteKey, key)
		}
		if _, dup := sites[domain]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSite, domain)
		}
		if err := validateSite(domain, site); err != nil {
			return nil, err
		}
		sites[domain] = site
	}
	cf.Sites = sites

	return &cf, nil
}

// NormalizeSiteKey turns a site key into the host form the crawler derives
// from the seed: the scheme and any path are removed and the host is
// lowercased. Ports are kept.
//
//	NormalizeSiteKey("https://Example.com/docs") == "example.com"
func NormalizeSiteKey(key string) string {
	key = strings.TrimSpace(key)
	if _, after, ok := strings.Cut(key, "://"); ok {
		key = after
	}
	host, _, _ := strings.Cut(key, "/")
	return strings.ToLower(host)
}

// validateSite rejects limits that cannot be applied to a crawl.
// Zero means "not set" and is allowed.
func validateSite(name string, site SiteConfig) error {
	if site.URLLimit < 0 {
		return fmt.Errorf("site %s: %w", name, ErrInvalidURLLimit)
	}
	if site.Capacity < 0 {
		return fmt.Errorf("site %s: %w", name, ErrInvalidCapacity)
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .crawlytics in the current directory
// 3. Look for .crawlytics in the user's home directory
// 4. Look for config.yaml in XDGConfigDir
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), XDGConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
