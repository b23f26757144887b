// Package pipeline drives one project through the production stage registry.
// The orchestrator tracks which stages are already complete, skips them on
// re-runs, aborts on the first stage failure, and always leaves a production
// report describing partial progress.
package pipeline
