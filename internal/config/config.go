package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/crawlytics/internal/fetcher"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "crawlytics"

	// DefaultURLLimit is the maximum number of URLs discovered per crawl.
	DefaultURLLimit = 1000

	// DefaultCapacity is the number of pages fetched concurrently.
	DefaultCapacity = 100

	// DefaultTimeLimit is the wall-clock budget of a crawl.
	DefaultTimeLimit = 20 * time.Minute

	// DefaultGracePeriod is how long running fetches may continue after the
	// time limit before the crawl is cut off.
	DefaultGracePeriod = 5 * time.Minute

	// DefaultBackoff is the pause after a connection failure.
	DefaultBackoff = 10 * time.Second

	// DefaultTimeout bounds every HTTP navigation, redirects included.
	DefaultTimeout = 30 * time.Second

	// DefaultTickInterval is the period of the crawl control loop.
	DefaultTickInterval = 250 * time.Millisecond

	// DefaultStatusInterval is the longest gap between two progress lines.
	DefaultStatusInterval = 20 * time.Second

	// DefaultUserAgent is the User-Agent header sent when none is configured.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultRedisStatusTTL is how long a status record stays in Redis
	// after its last update.
	DefaultRedisStatusTTL = time.Hour
)

// Config holds all configuration options for a crawl.
// This struct is populated from CLI flags and the configuration file and
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Target is the seed URL of the crawl.
	Target string

	// URLLimit is the maximum number of URLs the crawl discovers.
	// Zero means no limit.
	URLLimit int

	// Capacity is the maximum number of pages fetched concurrently.
	Capacity int

	// TimeLimit is the wall-clock budget of the crawl.
	TimeLimit time.Duration

	// GracePeriod is how long running fetches may continue once TimeLimit
	// is exhausted.
	GracePeriod time.Duration

	// Backoff is the pause after a connection failure.
	Backoff time.Duration

	// Timeout bounds every HTTP navigation.
	Timeout time.Duration

	// TickInterval is the period of the crawl control loop.
	TickInterval time.Duration

	// StatusInterval is the longest gap between two progress lines.
	StatusInterval time.Duration

	// ProxyAddress routes all traffic through a SOCKS5 proxy in
	// "host:port" format. Empty means direct connections.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .crawlytics in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/crawlytics on Linux).
	DBDir string

	// SaveToDB indicates whether to save crawl reports to the database.
	SaveToDB bool

	// RedisAddr enables publishing crawl status to Redis at this address.
	RedisAddr string

	// RedisStatusTTL is how long a status record stays in Redis.
	RedisStatusTTL time.Duration
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., limits, timeouts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		URLLimit:       DefaultURLLimit,
		Capacity:       DefaultCapacity,
		TimeLimit:      DefaultTimeLimit,
		GracePeriod:    DefaultGracePeriod,
		Backoff:        DefaultBackoff,
		Timeout:        DefaultTimeout,
		TickInterval:   DefaultTickInterval,
		StatusInterval: DefaultStatusInterval,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		RedisStatusTTL: DefaultRedisStatusTTL,
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for crawlytics.
// On Linux: ~/.local/share/crawlytics
// On macOS: ~/Library/Application Support/crawlytics
// On Windows: %LOCALAPPDATA%\crawlytics
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for crawlytics.
// On Linux: ~/.config/crawlytics
// On macOS: ~/Library/Application Support/crawlytics
// On Windows: %APPDATA%\crawlytics
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first failing rule as a sentinel error.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}

	if c.URLLimit < 0 {
		return ErrInvalidURLLimit
	}

	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}

	if c.TimeLimit <= 0 {
		return ErrInvalidTimeLimit
	}

	if c.GracePeriod < 0 {
		return ErrInvalidGracePeriod
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" && !isValidHostPort(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	return nil
}

// ApplySite overrides crawl settings with the non-zero values of site.
// Values explicitly set on the command line should be re-applied by the
// caller afterwards.
func (c *Config) ApplySite(site SiteConfig) {
	if site.URLLimit != 0 {
		c.URLLimit = site.URLLimit
	}
	if site.Capacity != 0 {
		c.Capacity = site.Capacity
	}
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
}

// isValidHostPort checks if the address is in valid "host:port" format.
func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
