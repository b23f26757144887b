package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"reelforge/internal/pipeline"
	"reelforge/internal/tasks"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func colorizeTaskStatus(status tasks.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	var color string
	switch status {
	case tasks.StatusCompleted:
		color = ansiGreen
	case tasks.StatusRunning:
		color = ansiBlue
	case tasks.StatusFailed:
		color = ansiRed
	case tasks.StatusCancelled:
		color = ansiYellow
	default:
		return string(status)
	}
	return color + string(status) + ansiReset
}

func colorizeStageStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch status {
	case pipeline.StatusSuccess:
		return ansiGreen + status + ansiReset
	case pipeline.StatusError:
		return ansiRed + status + ansiReset
	default:
		return status
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
