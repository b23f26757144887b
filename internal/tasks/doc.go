// Package tasks persists batch task records in SQLite. Task status only moves
// forward (pending → running → completed/failed/cancelled); the store rejects
// regressions so no observer ever sees a task move backwards.
package tasks
