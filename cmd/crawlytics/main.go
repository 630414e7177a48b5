// Package main provides the entry point for the crawlytics CLI.
//
// crawlytics crawls a website from a seed URL and lists every URL of the
// same site it can reach, within a URL limit and a time limit.
//
// Usage:
//
//	crawlytics -u https://example.com [-l 1000]
//	crawlytics history example.com
//
// See --help for all available options.
package main

// main is the entry point for crawlytics.
func main() {
	Execute()
}
