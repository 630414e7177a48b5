// Package scope turns raw hrefs into absolute URLs and decides whether a URL
// belongs to the site being crawled.
//
// Scope is substring based: a URL is in scope when the session domain occurs
// anywhere in the URL's host component. Subdomains are therefore included,
// and so is any unrelated host that merely contains the domain string
// (for example "notexample.com" for the domain "example.com").
package scope
