// Package stage defines the closed, ordered set of production stages and the
// handler contract the pipeline orchestrator drives. Handler dispatch is a
// fixed table resolved at registry construction time, never a runtime string
// lookup.
package stage
