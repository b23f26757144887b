// Package project defines the declarative unit of work: a named project with
// an ordered list of scenes. Projects are read-only input to the pipeline
// orchestrator; they are created by the CLI or the batch producer and persisted
// as YAML documents.
package project
