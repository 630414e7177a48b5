// Package status publishes progress of a running crawl.
//
// Reporters receive a Status snapshot whenever the crawl driver decides the
// picture has changed. The console reporter prints a one-line summary; the
// Redis reporter stores the latest snapshot under the session id so that
// other processes can poll it.
package status
