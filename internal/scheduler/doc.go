// Package scheduler runs crawl tasks on a fixed-size pool of workers.
//
// The pool does not pull work on its own. The crawl driver calls Dispatch on
// every tick of its control loop, which moves as many pending URLs from the
// frontier to the workers as there are idle slots, and uses Quiescent to
// detect that the crawl has run out of work.
package scheduler
