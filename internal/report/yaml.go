package report

import (
	"fmt"
	"io"

	"github.com/harrison/prunefiles/internal/matcher"
	"github.com/harrison/prunefiles/internal/models"
	"github.com/harrison/prunefiles/internal/pruner"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a Result.
type Document struct {
	RunID    string        `yaml:"run_id"`
	Folder   string        `yaml:"folder"`
	DryRun   bool          `yaml:"dry_run"`
	Excluded []string      `yaml:"excluded"`
	Keep     []KeptFile    `yaml:"keep"`
	Remove   []RemovedFile `yaml:"remove"`
	Totals   Totals        `yaml:"totals"`
}

// KeptFile is an entry of Document.Keep.
type KeptFile struct {
	Path    string        `yaml:"path"`
	OrderBy matcher.Value `yaml:"orderby"`
	Size    int64         `yaml:"size"`
}

// RemovedFile is an entry of Document.Remove.
type RemovedFile struct {
	Path    string        `yaml:"path"`
	OrderBy matcher.Value `yaml:"orderby"`
	Size    int64         `yaml:"size"`
	Reason  string        `yaml:"reason"`
	Reasons []string      `yaml:"reasons"`
	Outcome string        `yaml:"outcome"`
	Error   string        `yaml:"error,omitempty"`
}

// Totals summarizes a Document.
type Totals struct {
	Kept        int   `yaml:"kept"`
	KeptBytes   int64 `yaml:"kept_bytes"`
	Removed     int   `yaml:"removed"`
	RemoveBytes int64 `yaml:"removed_bytes"`
	Excluded    int   `yaml:"excluded"`
}

// YAMLRenderer writes a Document.
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAMLRenderer.
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render implements Renderer.
func (r *YAMLRenderer) Render(w io.Writer, result *pruner.Result) error {
	if result == nil || result.Plan == nil {
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(result)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// NewDocument converts result. Sizes come from the records' cached stat.
func NewDocument(result *pruner.Result) *Document {
	plan := result.Plan
	doc := &Document{
		RunID:    result.RunID,
		Folder:   plan.Folder,
		DryRun:   result.DryRun,
		Excluded: make([]string, 0, len(plan.Excluded)),
		Keep:     make([]KeptFile, 0, len(plan.Keep)),
		Remove:   make([]RemovedFile, 0, len(result.Removals)),
		Totals: Totals{
			Kept:        len(plan.Keep),
			KeptBytes:   plan.KeepBytes,
			Removed:     len(plan.Remove),
			RemoveBytes: plan.RemoveBytes,
			Excluded:    len(plan.Excluded),
		},
	}

	for _, rec := range plan.Excluded {
		doc.Excluded = append(doc.Excluded, rec.Path)
	}
	for _, rec := range plan.Keep {
		doc.Keep = append(doc.Keep, KeptFile{Path: rec.Path, OrderBy: rec.OrderBy, Size: cachedSize(rec)})
	}
	for _, removal := range result.Removals {
		rf := RemovedFile{
			Path:    removal.Record.Path,
			OrderBy: removal.Record.OrderBy,
			Size:    cachedSize(removal.Record),
			Reason:  removal.Record.PrimaryReason(),
			Reasons: removal.Record.PruneReasons,
			Outcome: removal.Outcome.String(),
		}
		if removal.Err != nil {
			rf.Error = removal.Err.Error()
		}
		doc.Remove = append(doc.Remove, rf)
	}
	return doc
}

func cachedSize(rec *models.FileRecord) int64 {
	size, _ := rec.Size()
	return size
}
