package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/crawlytics/internal/config"
	"github.com/spf13/cobra"
)

// argumentError marks a command line that could not be parsed or is
// missing a required argument. Such errors exit with status 0.
type argumentError struct {
	err error
}

func (e *argumentError) Error() string {
	return e.err.Error()
}

func (e *argumentError) Unwrap() error {
	return e.err
}

// NewRootCmd creates the root command for crawlytics.
// Running it without a subcommand crawls the site given by --url.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlytics",
		Short: "Crawl a website and list every URL it links to",
		Long: `crawlytics crawls a website starting from a seed URL and fetches all the
URLs present on the site.

Only links that stay on the seed's domain are followed. Logout links are
recorded but never followed, so an authenticated crawl keeps its session.
The crawl ends when no work is left, when the URL limit is reached, or when
the time limit and its grace period have passed.

Examples:
  # Crawl a site with the default limit of 1000 URLs
  crawlytics -u https://www.example.com

  # Crawl at most 200 URLs with 20 concurrent fetches
  crawlytics -u https://www.example.com -l 200 --capacity 20

  # Crawl through a local SOCKS5 proxy and write a Markdown report
  crawlytics -u http://example.com --proxy 127.0.0.1:9050 --markdown -o report.md

  # Publish progress to Redis so that 'crawlytics status' can read it
  crawlytics -u https://www.example.com --redis localhost:6379`,
		Version:       getVersion(),
		Args:          noPositionalArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addCrawlFlags(cmd)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &argumentError{err: err}
	})

	// Add subcommands
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addCrawlFlags registers the flags of the crawl command.
func addCrawlFlags(cmd *cobra.Command) {
	// Target flags
	cmd.Flags().StringP("url", "u", "",
		"Seed URL to crawl (http:// is added when no scheme is given)")
	cmd.Flags().IntP("url_limit", "l", config.DefaultURLLimit,
		"Maximum number of URLs to crawl (0 means no limit)")

	// Crawl behavior flags
	cmd.Flags().IntP("capacity", "n", config.DefaultCapacity,
		"Maximum number of pages fetched concurrently")
	cmd.Flags().Duration("time-limit", config.DefaultTimeLimit,
		"Wall-clock budget of the crawl")
	cmd.Flags().Duration("grace", config.DefaultGracePeriod,
		"How long running fetches may continue after the time limit")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP navigation, redirects included")
	cmd.Flags().String("proxy", "",
		"Route all requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .crawlytics in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the report in the crawl history database")

	// Status side channel
	cmd.Flags().String("redis", "",
		"Publish crawl progress to the Redis server at this address")
}

// noPositionalArgs rejects positional arguments; the seed is given with --url.
func noPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &argumentError{err: fmt.Errorf("unexpected argument %q (use --url to give the seed URL)", args[0])}
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	var argErr *argumentError
	if errors.As(err, &argErr) {
		fmt.Fprintln(os.Stderr, "Run 'crawlytics --help' for usage.")
		return 0
	}
	return 1
}
