package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFileName is the production report written under the project root
// after every run, successful or aborted.
const ReportFileName = "production_report.json"

// Report captures the outcome of a pipeline run for downstream tooling.
type Report struct {
	Project       string                 `json:"project"`
	CompletedAt   time.Time              `json:"completed_at"`
	TotalDuration float64                `json:"total_duration"`
	Scenes        int                    `json:"scenes"`
	Stages        map[string]StageResult `json:"stages"`
}

// WriteReport serializes the report to the project root.
func WriteReport(root string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal production report: %w", err)
	}
	path := filepath.Join(root, ReportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write production report: %w", err)
	}
	return nil
}

// LoadReport reads a production report from a project root.
func LoadReport(root string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(root, ReportFileName))
	if err != nil {
		return nil, fmt.Errorf("read production report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse production report: %w", err)
	}
	return &report, nil
}
