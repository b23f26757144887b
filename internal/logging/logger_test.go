package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "pipeline")
	logger.Info("stage completed", logging.String("stage", "images"), logging.Int("files", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline: stage completed") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "stage=images") || !strings.Contains(line, "files=3") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("report written", logging.String("path", "/tmp/report.json"))

	out := buf.String()
	for _, want := range []string{`"msg":"report written"`, `"level":"info"`, `"path":"/tmp/report.json"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %q", want, out)
		}
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithProject(t.Context(), "demo")
	ctx = services.WithStage(ctx, "subtitles")
	ctx = services.WithTaskID(ctx, "demo-ep02")

	logging.WithContext(ctx, base).Info("cue written")

	line := buf.String()
	for _, want := range []string{"project=demo", "stage=subtitles", "task_id=demo-ep02"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %q", want, line)
		}
	}
}
