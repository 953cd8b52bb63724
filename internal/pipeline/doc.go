// Package pipeline provides a framework for executing filter steps in sequence.
//
// Every document moves through the same stages: it is read, parsed into a
// markup tree, stripped of links the policy does not allow, optionally has
// its URL hosts normalized, is rendered back, and is optionally written to
// an output directory. Each stage is implemented as a Step that receives the
// document's report and fills in its part.
//
// Steps share no state except the report, so the BatchProcessor can run one
// pipeline per document concurrently, using errgroup to bound concurrency.
package pipeline
