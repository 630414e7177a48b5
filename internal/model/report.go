package model

import (
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Termination reasons recorded in CrawlReport.Reason.
const (
	// ReasonQuiescent means the crawl ran out of work.
	ReasonQuiescent = "quiescent"

	// ReasonURLLimit means the URL limit stopped the crawl and in-flight
	// tasks were allowed to finish.
	ReasonURLLimit = "url-limit"

	// ReasonTimeLimit means the time limit stopped the crawl and in-flight
	// tasks finished within the grace period.
	ReasonTimeLimit = "time-limit"

	// ReasonGraceExpired means tasks were still running when the grace
	// deadline passed.
	ReasonGraceExpired = "grace-expired"

	// ReasonCancelled means the caller cancelled the crawl.
	ReasonCancelled = "cancelled"
)

// CrawlReport is the result of one crawl session.
//
// Design decision: Visited holds every URL accepted into the frontier,
// whether or not its fetch succeeded, because that is the set the crawl
// deduplicated against. PagesFetched counts only successful fetches.
type CrawlReport struct {
	// === Session ===

	// SessionID uniquely identifies the crawl.
	SessionID string `json:"session_id"`

	// Seed is the start URL as given by the caller.
	Seed string `json:"seed"`

	// Domain is the scope of the crawl, taken from the redirect-resolved seed.
	Domain string `json:"domain"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the crawl.
	Elapsed time.Duration `json:"elapsed"`

	// === Limits ===

	// URLLimit is the configured maximum number of URLs (<= 0 means unlimited).
	URLLimit int `json:"url_limit"`

	// Capacity is the worker pool size.
	Capacity int `json:"capacity"`

	// === Results ===

	// Visited is the sorted set of URLs the crawl accepted.
	Visited []string `json:"visited"`

	// PagesFetched is the number of pages fetched successfully.
	PagesFetched int `json:"pages_fetched"`

	// FetchedLinks is the number of links accepted into the frontier,
	// excluding the seed.
	FetchedLinks int `json:"fetched_links"`

	// LogoutPage is the first session-ending link seen, if any.
	LogoutPage string `json:"logout_page,omitempty"`

	// Fingerprint is a SHA3-256 digest of Visited, used to detect changes
	// between crawls.
	Fingerprint string `json:"fingerprint"`

	// === Termination ===

	// State is the final state of the crawl session.
	State string `json:"state"`

	// Reason explains why the crawl ended.
	Reason string `json:"reason"`

	// Forced is true if tasks were still running when the crawl ended.
	Forced bool `json:"forced"`

	// ErrorMessage is set when the crawl ended with an error.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCrawlReport creates an empty report for a crawl of seed.
func NewCrawlReport(sessionID, seed string) *CrawlReport {
	return &CrawlReport{
		SessionID: sessionID,
		Seed:      seed,
		StartedAt: time.Now(),
		Visited:   make([]string, 0),
	}
}

// SetVisited stores a sorted copy of urls and updates the fingerprint.
func (r *CrawlReport) SetVisited(urls []string) {
	visited := slices.Clone(urls)
	slices.Sort(visited)
	visited = slices.Compact(visited)
	if visited == nil {
		visited = make([]string, 0)
	}
	r.Visited = visited
	r.Fingerprint = ComputeFingerprint(visited)
}

// TotalVisited returns the number of visited URLs.
func (r *CrawlReport) TotalVisited() int {
	return len(r.Visited)
}

// HasVisited reports whether url is part of the visited set.
func (r *CrawlReport) HasVisited(url string) bool {
	_, found := slices.BinarySearch(r.Visited, url)
	return found
}

// ComputeFingerprint returns a hex SHA3-256 digest of urls.
// The digest does not depend on the order of urls.
func ComputeFingerprint(urls []string) string {
	sorted := slices.Clone(urls)
	slices.Sort(sorted)

	h := sha3.New256()
	for _, u := range sorted {
		h.Write([]byte(u))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HostCount is the number of visited URLs on one host.
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// HostCounts groups the visited URLs by host, largest group first.
// Hosts with equal counts are ordered by name.
func (r *CrawlReport) HostCounts() []HostCount {
	counts := make(map[string]int)
	for _, u := range r.Visited {
		counts[hostOf(u)]++
	}

	out := make([]HostCount, 0, len(counts))
	for host, n := range counts {
		out = append(out, HostCount{Host: host, Count: n})
	}
	slices.SortFunc(out, func(a, b HostCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Host, b.Host)
	})
	return out
}

// hostOf returns the host component of a URL without parsing it strictly,
// so that URLs the crawl accepted as written are never dropped.
func hostOf(rawURL string) string {
	rest := rawURL
	if _, after, ok := strings.Cut(rest, "://"); ok {
		rest = after
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, "?")
	return host
}
