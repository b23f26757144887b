// Package subtitles renders the combined SRT document for a project. Cue
// boundaries are the cumulative sum of preceding scenes' durations, in scene
// order.
package subtitles
