// Package export collects finished episode renders into a single delivery
// directory.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Episodes copies every final render matching the format out of the episodes'
// output directories into destDir. Returns a map from source render to its
// destination path. Episodes without matching renders contribute nothing.
func Episodes(destDir, format string, episodeDirs []string) (map[string]string, error) {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if format == "" {
		format = "mp4"
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	exported := make(map[string]string)
	for _, episodeDir := range episodeDirs {
		pattern := filepath.Join(episodeDir, "output", "*."+format)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("scan episode output: %w", err)
		}
		for _, source := range matches {
			dest := filepath.Join(destDir, filepath.Base(source))
			if err := copyFile(source, dest); err != nil {
				return nil, err
			}
			exported[source] = dest
		}
	}
	return exported, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open render %q: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create export file %q: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy render to %q: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("finish export file %q: %w", dest, err)
	}
	return nil
}
