package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no seed URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL with --url")

	// ErrInvalidURLLimit is returned when the URL limit is negative.
	// Zero means no limit.
	ErrInvalidURLLimit = errors.New("invalid url limit: must be non-negative")

	// ErrInvalidCapacity is returned when the worker count is not positive.
	ErrInvalidCapacity = errors.New("invalid capacity: must be positive")

	// ErrInvalidTimeLimit is returned when the crawl time limit is not positive.
	ErrInvalidTimeLimit = errors.New("invalid time limit: must be positive")

	// ErrInvalidGracePeriod is returned when the grace period is negative.
	ErrInvalidGracePeriod = errors.New("invalid grace period: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrInvalidSiteKey is returned when a site key in the configuration
	// file has no host.
	ErrInvalidSiteKey = errors.New("invalid site key: expected a host name")

	// ErrDuplicateSite is returned when two site keys in the configuration
	// file name the same host.
	ErrDuplicateSite = errors.New("duplicate site configuration")
)
