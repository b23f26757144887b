package subtitles

import (
	"fmt"
	"math"
	"strings"

	"reelforge/internal/project"
)

// Cue is one subtitle entry: a sequential index, start/end offsets in seconds,
// and the dialogue text (possibly empty for scenes without dialogue).
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp renders an offset in seconds as the SRT timestamp format
// HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// CuesFromScenes computes one cue per scene with boundaries at the cumulative
// duration of all preceding scenes.
func CuesFromScenes(scenes []project.Scene) []Cue {
	cues := make([]Cue, 0, len(scenes))
	var elapsed float64
	for i, scene := range scenes {
		start := elapsed
		elapsed += scene.Duration
		cues = append(cues, Cue{
			Index: i + 1,
			Start: start,
			End:   elapsed,
			Text:  scene.Dialogue,
		})
	}
	return cues
}

// Render produces the SRT document: sequential index, timestamp range,
// dialogue line, blank separator.
func Render(cues []Cue) string {
	var b strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&b, "%d\n", cue.Index)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(cue.Start), FormatTimestamp(cue.End))
		if cue.Text != "" {
			b.WriteString(cue.Text)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
