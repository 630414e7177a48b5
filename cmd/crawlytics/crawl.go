package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nao1215/crawlytics/internal/classify"
	"github.com/nao1215/crawlytics/internal/config"
	"github.com/nao1215/crawlytics/internal/crawler"
	"github.com/nao1215/crawlytics/internal/database"
	"github.com/nao1215/crawlytics/internal/fetcher"
	"github.com/nao1215/crawlytics/internal/log"
	"github.com/nao1215/crawlytics/internal/model"
	"github.com/nao1215/crawlytics/internal/report"
	"github.com/nao1215/crawlytics/internal/scope"
	"github.com/nao1215/crawlytics/internal/status"
	"github.com/spf13/cobra"
)

// errNoURL is returned when the crawl command runs without --url.
var errNoURL = errors.New("the following argument is required: -u/--url")

// runCrawlCmd executes the crawl.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, site, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling crawl...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, site, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// normalizeSeed adds the http scheme to inputs that do not start with
// "http", so "example.com" becomes "http://example.com".
func normalizeSeed(input string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "http") {
		return input
	}
	return "http://" + input
}

// buildConfig creates a Config from the configuration file and cobra
// command flags. Site settings from the file override the defaults, and
// flags given on the command line override both.
func buildConfig(cmd *cobra.Command) (*config.Config, config.SiteConfig, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()

	rawURL, err := flags.GetString("url")
	if err != nil {
		return nil, config.SiteConfig{}, err
	}
	cfg.Target = normalizeSeed(rawURL)
	if cfg.Target == "" {
		return nil, config.SiteConfig{}, &argumentError{err: errNoURL}
	}

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, config.SiteConfig{}, err
	}
	if err := loadSiteConfigs(cfg); err != nil {
		return nil, config.SiteConfig{}, err
	}

	site := cfg.SiteConfigs.GetSiteConfig(scope.DomainOf(cfg.Target))
	cfg.ApplySite(site)

	if flags.Changed("url_limit") {
		if cfg.URLLimit, err = flags.GetInt("url_limit"); err != nil {
			return nil, config.SiteConfig{}, err
		}
	}
	if flags.Changed("capacity") {
		if cfg.Capacity, err = flags.GetInt("capacity"); err != nil {
			return nil, config.SiteConfig{}, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, config.SiteConfig{}, err
		}
	}

	if cfg.TimeLimit, err = flags.GetDuration("time-limit"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.GracePeriod, err = flags.GetDuration("grace"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, config.SiteConfig{}, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, config.SiteConfig{}, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	if cfg.RedisAddr, err = flags.GetString("redis"); err != nil {
		return nil, config.SiteConfig{}, err
	}

	return cfg, site, nil
}

// loadSiteConfigs loads the configuration file into cfg.SiteConfigs.
// If the user explicitly specified a config file path, a missing file is
// an error. Otherwise an empty configuration is used.
func loadSiteConfigs(cfg *config.Config) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SiteConfigs = file
	case cfg.ConfigFilePath != "":
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}
	return nil
}

// newCrawler wires the HTTP client, fetcher, classifier and reporters
// described by cfg and site into a Crawler.
func newCrawler(cfg *config.Config, site config.SiteConfig, logger *slog.Logger, reporter status.Reporter) (*crawler.Crawler, error) {
	client, err := fetcher.NewHTTPClient(fetcher.ClientConfig{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
		Cookie:       site.Cookie,
		Headers:      site.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	f := fetcher.New(client,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	)

	classifier := classify.New(
		classify.WithExtraIgnoreExtensions(site.IgnoreExtensions...),
		classify.WithExtraSessionEndPhrases(site.SessionEndPhrases...),
	)

	return crawler.New(f,
		crawler.WithURLLimit(cfg.URLLimit),
		crawler.WithCapacity(cfg.Capacity),
		crawler.WithTimeLimit(cfg.TimeLimit),
		crawler.WithGracePeriod(cfg.GracePeriod),
		crawler.WithBackoff(cfg.Backoff),
		crawler.WithTickInterval(cfg.TickInterval),
		crawler.WithStatusInterval(cfg.StatusInterval),
		crawler.WithLogger(logger),
		crawler.WithReporter(reporter),
		crawler.WithClassifier(classifier),
		crawler.WithPathFilter(classify.PathFilter{
			Ignore: site.IgnorePatterns,
			Follow: site.FollowPatterns,
		}),
	), nil
}

// runCrawl crawls cfg.Target, writes the report and stores it in the
// history database. Progress lines go to progress so that a report
// written to stdout stays machine readable.
func runCrawl(ctx context.Context, cfg *config.Config, site config.SiteConfig, logger *slog.Logger, stdout, progress io.Writer) error {
	reporters := []status.Reporter{status.NewConsoleReporter(progress)}
	if cfg.RedisAddr != "" {
		redisReporter := status.NewRedisReporter(cfg.RedisAddr, status.DefaultKeyPrefix, cfg.RedisStatusTTL)
		defer redisReporter.Close()
		reporters = append(reporters, redisReporter)
	}

	c, err := newCrawler(cfg, site, logger, status.NewMultiReporter(reporters...))
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"seed", cfg.Target,
		"url_limit", cfg.URLLimit,
		"capacity", cfg.Capacity,
		"save_to_db", cfg.SaveToDB,
	)

	crawlReport, crawlErr := c.Crawl(ctx, cfg.Target)
	if crawlReport == nil {
		return crawlErr
	}

	if err := outputReport(cfg, crawlReport, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		// The crawl context may be cancelled; the partial result is still saved.
		if err := saveCrawlReport(context.WithoutCancel(ctx), cfg.DBDir, crawlReport, logger); err != nil {
			logger.Error("failed to save crawl report", "domain", crawlReport.Domain, "error", err)
		}
	}

	return crawlErr
}

// newReportWriter returns the writer for the report format chosen in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport outputs the crawl report in the requested format, to
// cfg.ReportFile when set and to stdout otherwise.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may reveal private pages of an authenticated crawl, so
		// only the owner may read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(crawlReport)
	return err
}

// saveCrawlReport stores the report in the history database in dbDir.
func saveCrawlReport(ctx context.Context, dbDir string, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveCrawlReport(ctx, crawlReport)
	if err != nil {
		return err
	}

	logger.Info("crawl report saved to database", "domain", crawlReport.Domain, "id", id)
	return nil
}
