package classify

import (
	"path"
	"slices"
	"strings"
)

// minExtensionCheckLength is the shortest href the extension check applies to.
const minExtensionCheckLength = 5

// extensionWindow is how many trailing characters the extension check inspects.
const extensionWindow = 4

// Decision is the outcome of classifying an href.
type Decision int

const (
	// Follow means the href should be resolved and scope checked.
	Follow Decision = iota
	// Ignore means the href is discarded.
	Ignore
	// SessionEnd means the href looks like a logout link. It is discarded,
	// and the crawler may record it as the session's logout page.
	SessionEnd
)

// String returns a lowercase name for the decision.
func (d Decision) String() string {
	switch d {
	case Follow:
		return "follow"
	case Ignore:
		return "ignore"
	case SessionEnd:
		return "session-end"
	default:
		return "unknown"
	}
}

// Classifier holds the lists an href is checked against.
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	ignoreExtensions  []string
	sessionEndPhrases []string
	nonPageSchemes    []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithExtraIgnoreExtensions adds extensions to the default ignore list.
func WithExtraIgnoreExtensions(exts ...string) Option {
	return func(c *Classifier) {
		for _, ext := range exts {
			ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if ext != "" && !slices.Contains(c.ignoreExtensions, ext) {
				c.ignoreExtensions = append(c.ignoreExtensions, ext)
			}
		}
	}
}

// WithExtraSessionEndPhrases adds phrases to the default session-end list.
func WithExtraSessionEndPhrases(phrases ...string) Option {
	return func(c *Classifier) {
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && !slices.Contains(c.sessionEndPhrases, p) {
				c.sessionEndPhrases = append(c.sessionEndPhrases, p)
			}
		}
	}
}

// New creates a Classifier with the default lists plus any extras.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		ignoreExtensions:  slices.Clone(DefaultIgnoreExtensions),
		sessionEndPhrases: slices.Clone(DefaultSessionEndPhrases),
		nonPageSchemes:    slices.Clone(DefaultNonPageSchemes),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides what to do with href.
//
// Checks run in this order, the first match deciding:
//  1. empty hrefs and hrefs carrying a fragment ('#') anywhere are ignored,
//     so an absolute link such as "http://a.test/page#top" is dropped too;
//  2. hrefs containing a non-page scheme (javascript:, mailto:, tel:)
//     anywhere are ignored, not only as a prefix: "/docs/tel:123" is
//     ignored as well;
//  3. session-end phrases, matched case-insensitively, yield SessionEnd;
//  4. an href of at least 5 characters with no '=' or '?' is ignored when
//     any blacklisted extension occurs in its last 4 characters.
func (c *Classifier) Classify(href string) Decision {
	href = strings.TrimSpace(href)
	if href == "" || strings.Contains(href, "#") {
		return Ignore
	}

	lower := strings.ToLower(href)
	for _, scheme := range c.nonPageSchemes {
		if strings.Contains(lower, scheme) {
			return Ignore
		}
	}

	for _, phrase := range c.sessionEndPhrases {
		if strings.Contains(lower, phrase) {
			return SessionEnd
		}
	}

	if c.hasIgnoredExtension(href) {
		return Ignore
	}

	return Follow
}

// hasIgnoredExtension applies the trailing-extension check.
// Hrefs with a query marker are never rejected here.
func (c *Classifier) hasIgnoredExtension(href string) bool {
	if len(href) < minExtensionCheckLength || strings.ContainsAny(href, "=?") {
		return false
	}
	tail := href[len(href)-extensionWindow:]
	for _, ext := range c.ignoreExtensions {
		if strings.Contains(tail, ext) {
			return true
		}
	}
	return false
}

// IsKnownPageExtension reports whether rawURL's path ends in an extension
// of a server-rendered page such as .php or .aspx.
func IsKnownPageExtension(rawURL string) bool {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	return ext != "" && slices.Contains(KnownPageExtensions, ext)
}
