// Package markdown renders triage run reports as human-readable
// Markdown summaries.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
)

// Writer renders run reports into Markdown files.
type Writer struct{}

// NewWriter constructs a Markdown writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write persists a Markdown summary to disk and returns the file path.
func (w *Writer) Write(ctx context.Context, report pipeline.RunReport, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s.md", report.RunID))

	content := buildContent(report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(report pipeline.RunReport) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Photo Triage Report\n\n")
	builder.WriteString(fmt.Sprintf("- Run: %s\n", report.RunID))
	builder.WriteString(fmt.Sprintf("- Images: %d\n", report.NumImages))
	builder.WriteString(fmt.Sprintf("- Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	builder.WriteString(fmt.Sprintf("- Cost: $%.4f\n\n", report.Cost.Total.EstimatedCostUSD))

	builder.WriteString("## Results\n\n")
	builder.WriteString(fmt.Sprintf("- Average quality: %.2f/5\n", report.Stats.AverageQuality))
	builder.WriteString(fmt.Sprintf("- Average aesthetic: %.2f/5\n", report.Stats.AverageAesthetic))
	builder.WriteString(fmt.Sprintf("- Selected: %d\n", report.Stats.Selected))
	builder.WriteString(fmt.Sprintf("- Flagged for review: %d\n", report.Stats.Flagged))
	builder.WriteString(fmt.Sprintf("- Duplicate groups: %d (%d redundant images)\n\n",
		report.Stats.DuplicateGroups, report.Stats.RedundantImages))

	if len(report.Stats.CategoryDistribution) > 0 {
		builder.WriteString("### Categories\n\n")
		for _, name := range sortedKeys(report.Stats.CategoryDistribution) {
			builder.WriteString(fmt.Sprintf("- %s: %d\n", name, report.Stats.CategoryDistribution[name]))
		}
		builder.WriteString("\n")
	}

	if len(report.Cost.PerAgent) > 0 {
		builder.WriteString("## Cost\n\n")
		builder.WriteString("| Agent | Calls | Tokens | Cost |\n")
		builder.WriteString("|-------|-------|--------|------|\n")
		for _, usage := range report.Cost.PerAgent {
			builder.WriteString(fmt.Sprintf("| %s | %d | %d | $%.4f |\n",
				caser.String(usage.Agent), usage.Calls, usage.TotalTokens, usage.EstimatedCostUSD))
		}
		builder.WriteString(fmt.Sprintf("\nTotal: $%.4f ($%.4f per image)\n\n",
			report.Cost.Total.EstimatedCostUSD, report.Cost.Total.CostPerItemUSD))
	}

	builder.WriteString("## Stages\n\n")
	for _, name := range sortedStageNames(report.StageStates) {
		builder.WriteString(fmt.Sprintf("- %s: %s\n", caser.String(name), report.StageStates[name]))
	}
	builder.WriteString("\n")

	if len(report.Validations) > 0 {
		builder.WriteString("## Validation\n\n")
		for _, v := range report.Validations {
			builder.WriteString(fmt.Sprintf("### %s (%s)\n", caser.String(v.Agent), v.Status))
			builder.WriteString(v.Summary)
			builder.WriteString("\n")
			for _, issue := range v.Issues {
				builder.WriteString(fmt.Sprintf("- %s\n", issue))
			}
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStageNames(m map[string]pipeline.StageState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
