// Package frontier tracks which URLs a crawl has seen and which are waiting
// for a worker.
//
// Every URL passes through TryClaim exactly once before it can be enqueued,
// which makes the Frontier the single deduplication point of a crawl.
package frontier
