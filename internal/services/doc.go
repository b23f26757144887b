// Package services holds cross-cutting helpers shared by the orchestrators:
// the error classification sentinels and context annotation used for
// structured logging.
package services
