package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/harrison/prunefiles/internal/models"
	"github.com/harrison/prunefiles/internal/pruner"
)

// TextRenderer prints the Excluded, Keep and Remove sections followed by a
// one-line summary:
//
//	Excluded:
//	   /data/notes.txt
//	Keep:
//	   ("a_3") /data/a_3.log
//	Remove:
//	   ("a_1") /data/a_1.log by keep-count <= 2
//	       Skipped by --dry-run
type TextRenderer struct {
	colorOutput bool
}

// NewTextRenderer creates a TextRenderer. Without colorOutput no ANSI codes
// are written regardless of the terminal.
func NewTextRenderer(colorOutput bool) *TextRenderer {
	return &TextRenderer{colorOutput: colorOutput}
}

// paint applies attrs when color output is on.
func (r *TextRenderer) paint(s string, attrs ...color.Attribute) string {
	if !r.colorOutput {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Render implements Renderer.
func (r *TextRenderer) Render(w io.Writer, result *pruner.Result) error {
	if result == nil || result.Plan == nil {
		return nil
	}
	plan := result.Plan

	var sb strings.Builder

	if len(plan.Excluded) > 0 {
		sb.WriteString(r.paint("Excluded", color.FgYellow) + ":\n")
		for _, rec := range plan.Excluded {
			fmt.Fprintf(&sb, "   %s\n", r.paint(rec.Path, color.FgGreen))
		}
	}

	if len(plan.Keep) > 0 {
		sb.WriteString(r.paint("Keep", color.FgCyan) + ":\n")
		for _, rec := range plan.Keep {
			fmt.Fprintf(&sb, "   %s\n", r.recordLine(rec))
		}
	}

	if len(result.Removals) > 0 {
		sb.WriteString(r.paint("Remove", color.FgRed) + ":\n")
		for _, removal := range result.Removals {
			fmt.Fprintf(&sb, "   %s by %s\n", r.recordLine(removal.Record), removal.Record.PrimaryReason())
			switch removal.Outcome {
			case pruner.OutcomeSkipped:
				fmt.Fprintf(&sb, "       Skipped by %s\n", r.paint("--dry-run", color.FgYellow))
			case pruner.OutcomeFailed:
				fmt.Fprintf(&sb, "       %s: %v\n", r.paint("Failed", color.FgRed, color.Bold), removal.Err)
			case pruner.OutcomePending:
				fmt.Fprintf(&sb, "       %s\n", r.paint("Not attempted", color.FgYellow))
			}
		}
	}

	sb.WriteString(r.summary(result))

	_, err := io.WriteString(w, sb.String())
	return err
}

// recordLine formats `(<orderby>) <path>`.
func (r *TextRenderer) recordLine(rec *models.FileRecord) string {
	return fmt.Sprintf("(%s) %s",
		r.paint(rec.OrderBy.Repr(), color.FgBlue),
		r.paint(rec.Path, color.FgGreen))
}

func (r *TextRenderer) summary(result *pruner.Result) string {
	plan := result.Plan
	verb := "removed"
	if result.DryRun {
		verb = "would remove"
	}
	return fmt.Sprintf("Kept %d file(s) (%s), %s %d file(s) (%s), excluded %d\n",
		len(plan.Keep), humanize.Bytes(uint64(plan.KeepBytes)),
		verb, len(plan.Remove), humanize.Bytes(uint64(plan.RemoveBytes)),
		len(plan.Excluded))
}
