// Package config provides configuration structures and utilities for
// crawlytics. It defines the crawl limits, HTTP client settings, report
// output preferences and the per-site configuration file.
package config
