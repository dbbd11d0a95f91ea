// Package json persists triage run reports as indented JSON files.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
)

// Writer renders run reports into JSON files.
type Writer struct{}

// NewWriter creates a new JSON writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write persists a run report to disk and returns the file path.
func (w *Writer) Write(ctx context.Context, report pipeline.RunReport, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("%s.json", report.RunID))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create json file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report to json: %w", err)
	}

	return filePath, nil
}
