package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/prunefiles/internal/pruner"
)

// colorScheme defines consistent colors for the run summary.
// Green: kept files
// Red: removed or failed files
// Yellow: skipped and excluded files
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for run summaries.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// outcomeCounts tallies a Result.
type outcomeCounts struct {
	kept     int
	removed  int
	skipped  int
	failed   int
	pending  int
	excluded int
}

func countOutcomes(result *pruner.Result) outcomeCounts {
	var c outcomeCounts
	if result.Plan != nil {
		c.kept = len(result.Plan.Keep)
		c.excluded = len(result.Plan.Excluded)
	}
	for _, removal := range result.Removals {
		switch removal.Outcome {
		case pruner.OutcomeDeleted:
			c.removed++
		case pruner.OutcomeSkipped:
			c.skipped++
		case pruner.OutcomeFailed:
			c.failed++
		default:
			c.pending++
		}
	}
	return c
}

// formatPlainCounts formats counts without color. Zero-valued failure
// counters are omitted.
// Format: "kept: N, removed: N, skipped: N, excluded: N"
func formatPlainCounts(c outcomeCounts) string {
	parts := []string{
		fmt.Sprintf("kept: %d", c.kept),
		fmt.Sprintf("removed: %d", c.removed),
		fmt.Sprintf("skipped: %d", c.skipped),
		fmt.Sprintf("excluded: %d", c.excluded),
	}
	if c.failed > 0 {
		parts = append(parts, fmt.Sprintf("failed: %d", c.failed))
	}
	if c.pending > 0 {
		parts = append(parts, fmt.Sprintf("not attempted: %d", c.pending))
	}
	return strings.Join(parts, ", ")
}

// formatColorizedCounts formats counts with the summary color scheme.
// Colors are automatically disabled when output is not a TTY via fatih/color's built-in detection.
func formatColorizedCounts(c outcomeCounts) string {
	scheme := newColorScheme()

	metric := func(labelColor *color.Color, label string, value int, valueColor *color.Color) string {
		return fmt.Sprintf("%s: %s", labelColor.Sprint(label), valueColor.Sprintf("%d", value))
	}

	parts := []string{
		metric(scheme.success, "kept", c.kept, scheme.value),
		metric(scheme.fail, "removed", c.removed, scheme.value),
		metric(scheme.warn, "skipped", c.skipped, scheme.value),
		metric(scheme.label, "excluded", c.excluded, scheme.value),
	}
	if c.failed > 0 {
		parts = append(parts, metric(scheme.fail, "failed", c.failed, scheme.fail))
	}
	if c.pending > 0 {
		parts = append(parts, metric(scheme.warn, "not attempted", c.pending, scheme.warn))
	}
	return strings.Join(parts, ", ")
}
