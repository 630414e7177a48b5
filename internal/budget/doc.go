// Package budget enforces the page-count and wall-clock limits of a crawl.
//
// A Controller moves through two paths:
//
//	Running -> LimitReached -> Draining -> Terminated
//	Running -> TimedOut     -> Draining -> Terminated
//
// The count path stops new claims but lets in-flight tasks finish normally.
// The time path additionally asks tasks to abandon link following and sets
// a grace deadline after which the crawl is terminated regardless of
// outstanding work.
package budget
