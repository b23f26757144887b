// Package batch drives multi-episode production on top of the pipeline. Each
// episode is one task tracked in the task store; a failing episode never takes
// down its siblings.
package batch
