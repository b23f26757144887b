package stage

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage names one step of production. The set is closed and totally ordered;
// later stages may assume artifacts from earlier stages exist on disk.
type Stage string

const (
	Script     Stage = "script"
	Storyboard Stage = "storyboard"
	Images     Stage = "images"
	Video      Stage = "video"
	Voice      Stage = "voice"
	Music      Stage = "music"
	Subtitles  Stage = "subtitles"
	Edit       Stage = "edit"
	Color      Stage = "color"
	Output     Stage = "output"
)

var registryOrder = []Stage{
	Script,
	Storyboard,
	Images,
	Video,
	Voice,
	Music,
	Subtitles,
	Edit,
	Color,
	Output,
}

var stageIndex = func() map[Stage]int {
	index := make(map[Stage]int, len(registryOrder))
	for i, s := range registryOrder {
		index[s] = i
	}
	return index
}()

var titleCaser = cases.Title(language.English)

// All returns the full registry order.
func All() []Stage {
	cp := make([]Stage, len(registryOrder))
	copy(cp, registryOrder)
	return cp
}

// Parse converts a string into a known Stage.
func Parse(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageIndex[normalized]
	return normalized, ok
}

// ParseList converts a comma-separated stage list into stages sorted by
// registry order with duplicates removed.
func ParseList(value string) ([]Stage, error) {
	parts := strings.Split(value, ",")
	seen := make(map[Stage]struct{}, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, ok := Parse(part)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", strings.TrimSpace(part))
		}
		seen[s] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no stages in %q", value)
	}
	return Sort(seen), nil
}

// Sort returns the members of a stage set in registry order.
func Sort(set map[Stage]struct{}) []Stage {
	ordered := make([]Stage, 0, len(set))
	for _, s := range registryOrder {
		if _, ok := set[s]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Index returns the position of a stage in registry order.
func Index(s Stage) (int, bool) {
	i, ok := stageIndex[s]
	return i, ok
}

// Label returns the human-readable stage name used in CLI output and logs.
func (s Stage) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

func (s Stage) String() string {
	return string(s)
}
