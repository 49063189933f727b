package tui

import (
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"

	"recast/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// ReportRows summarises a finished run.
func ReportRows(report processor.Report, elapsed time.Duration) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files", Value: fmt.Sprintf("%d", len(report.Results))},
		{Label: "Created", Value: fmt.Sprintf("%d", report.Created)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", report.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", report.Failed)},
		{Label: "Size before", Value: units.HumanSize(float64(report.BytesBefore))},
		{Label: "Size after", Value: units.HumanSize(float64(report.BytesAfter))},
	}
	if report.BytesBefore > 0 {
		rows = append(rows, SummaryRow{Label: "Ratio", Value: fmt.Sprintf("%.1f%%", report.Ratio())})
	}
	rows = append(rows, SummaryRow{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()})
	return rows
}

// RenderResults lists every job in input order with its steps. Previews
// are printed after the steps of their job.
func RenderResults(report processor.Report) string {
	var b strings.Builder
	for _, res := range report.Results {
		name := res.Display
		if name == "" {
			name = res.Path
		}

		switch res.Outcome {
		case processor.Success:
			b.WriteString(createdStyle.Render("✔ " + name))
		case processor.Skipped:
			b.WriteString(skippedStyle.Render(fmt.Sprintf("- %s (skipped: %s)", name, res.Reason)))
		default:
			b.WriteString(failedStyle.Render(fmt.Sprintf("✘ %s: %v", name, res.Err)))
		}
		b.WriteString("\n")

		for _, step := range res.Steps {
			b.WriteString(dimStyle.Render("    " + step))
			b.WriteString("\n")
		}
		if res.Preview != "" {
			b.WriteString(res.Preview)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
