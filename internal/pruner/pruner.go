// Package pruner decides which files of a directory to keep and removes
// the rest.
//
// A run has two phases. Plan lists the directory, applies the matcher,
// sorts by the resulting keys and lets every limiter mark records; it has
// no side effects beyond reading. Execute removes the records Plan marked,
// or only reports them in dry-run mode.
package pruner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/harrison/prunefiles/internal/limiter"
	"github.com/harrison/prunefiles/internal/matcher"
	"github.com/harrison/prunefiles/internal/models"
	"github.com/spf13/afero"
)

// Logger receives progress messages from a run. A nil Logger is allowed.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// Options configures a Pruner. The matcher and limiters are built and
// validated by the caller.
type Options struct {
	// Folder is the directory whose immediate files are pruned.
	Folder string

	// Matcher filters files by name. Nil means every file matches.
	Matcher matcher.Matcher

	// OrderBy names the captured field used as sort key. Empty keeps the
	// file stem. Requires a Matcher declaring the field.
	OrderBy string

	// Reverse sorts descending, so the records kept are those that sort first.
	Reverse bool

	// Limiters are applied in order; the first reason a record gets is the
	// one reported.
	Limiters []limiter.Limiter

	// DryRun reports removals without deleting anything.
	DryRun bool
}

// Pruner runs the prune pipeline over one directory.
type Pruner struct {
	fs     afero.Fs
	opts   Options
	logger Logger
}

// New creates a Pruner. It fails with a *matcher.MatchFieldError if
// OrderBy names a field the matcher does not declare.
func New(fsys afero.Fs, opts Options, logger Logger) (*Pruner, error) {
	if opts.Folder == "" {
		return nil, errors.New("folder is required")
	}
	if opts.OrderBy != "" {
		if err := matcher.CheckField(opts.Matcher, opts.OrderBy); err != nil {
			return nil, fmt.Errorf("invalid orderby: %w", err)
		}
	}
	return &Pruner{fs: fsys, opts: opts, logger: logger}, nil
}

// Plan is the outcome of the decision phase.
type Plan struct {
	Folder   string
	Excluded []*models.FileRecord // Rejected by the matcher, never limited
	Keep     []*models.FileRecord // Matched and within every limit
	Remove   []*models.FileRecord // Matched and marked by at least one limiter

	KeepBytes   int64
	RemoveBytes int64
}

// Outcome is what happened to a record selected for removal.
type Outcome int

const (
	// OutcomePending means the record was not reached.
	OutcomePending Outcome = iota
	// OutcomeDeleted means the file was removed.
	OutcomeDeleted
	// OutcomeSkipped means removal was suppressed by dry-run.
	OutcomeSkipped
	// OutcomeFailed means removal was attempted and failed.
	OutcomeFailed
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Removal pairs a record of Plan.Remove with its outcome.
type Removal struct {
	Record  *models.FileRecord
	Outcome Outcome
	Err     error
}

// Result is the outcome of a full run.
type Result struct {
	RunID    string
	DryRun   bool
	Plan     *Plan
	Removals []Removal // Same order as Plan.Remove
}

// Run plans and executes in one call. On an Execute failure the partial
// Result is returned together with the error.
func (p *Pruner) Run(ctx context.Context) (*Result, error) {
	plan, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, plan)
}

// Plan runs the decision phase: list, sort by name, match, exclude, sort by
// key, limit and partition.
func (p *Pruner) Plan(ctx context.Context) (*Plan, error) {
	p.logDebug(fmt.Sprintf("Listing %s", p.opts.Folder))
	records, err := p.collect()
	if err != nil {
		return nil, err
	}
	p.logDebug(fmt.Sprintf("Found %d file(s)", len(records)))

	// Name order is the tie-break for equal keys below.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	if err := p.applyMatcher(records); err != nil {
		return nil, err
	}

	plan := &Plan{Folder: p.opts.Folder}
	matched := make([]*models.FileRecord, 0, len(records))
	for _, r := range records {
		if r.IsMatch {
			matched = append(matched, r)
		} else {
			plan.Excluded = append(plan.Excluded, r)
		}
	}
	if len(plan.Excluded) > 0 {
		p.logDebug(fmt.Sprintf("Excluded %d file(s) not matching %q", len(plan.Excluded), p.opts.Matcher.Pattern()))
	}

	p.sortByKey(matched)
	for _, r := range matched {
		p.logTrace(fmt.Sprintf("Order key %s for %s", r.OrderBy.Repr(), r.Name))
	}

	for _, l := range p.opts.Limiters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.Apply(matched); err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				return nil, newFilesystemError("stat", pathErr.Path, err)
			}
			return nil, fmt.Errorf("%s limiter failed: %w", l.Name(), err)
		}
		p.logDebug(fmt.Sprintf("Applied %s limiter", l.Name()))
	}

	for _, r := range matched {
		size, err := r.Size()
		if err != nil {
			return nil, newFilesystemError("stat", r.Path, err)
		}
		if r.Pruned() {
			plan.Remove = append(plan.Remove, r)
			plan.RemoveBytes += size
		} else {
			plan.Keep = append(plan.Keep, r)
			plan.KeepBytes += size
		}
	}

	p.logInfo(fmt.Sprintf("Plan for %s: keep %d, remove %d, excluded %d",
		p.opts.Folder, len(plan.Keep), len(plan.Remove), len(plan.Excluded)))
	return plan, nil
}

// Execute removes every record of plan.Remove in order, or marks it skipped
// in dry-run mode. The first failed removal stops the run; records after it
// stay OutcomePending. A cancelled ctx stops the run between files.
func (p *Pruner) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{
		RunID:    uuid.NewString(),
		DryRun:   p.opts.DryRun,
		Plan:     plan,
		Removals: make([]Removal, len(plan.Remove)),
	}
	for i, r := range plan.Remove {
		result.Removals[i] = Removal{Record: r}
	}

	for i := range result.Removals {
		removal := &result.Removals[i]
		if p.opts.DryRun {
			removal.Outcome = OutcomeSkipped
			p.logDebug(fmt.Sprintf("Would remove %s (%s)", removal.Record.Path, removal.Record.PrimaryReason()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("prune interrupted after %d removal(s): %w", i, err)
		}

		if err := p.fs.Remove(removal.Record.Path); err != nil {
			fsErr := newFilesystemError("remove", removal.Record.Path, err)
			removal.Outcome = OutcomeFailed
			removal.Err = fsErr
			return result, fsErr
		}
		removal.Outcome = OutcomeDeleted
		p.logDebug(fmt.Sprintf("Removed %s (%s)", removal.Record.Path, removal.Record.PrimaryReason()))
	}

	return result, nil
}

// collect lists the regular files directly inside the folder. Symlinks are
// followed to decide whether they point at a regular file.
func (p *Pruner) collect() ([]*models.FileRecord, error) {
	entries, err := afero.ReadDir(p.fs, p.opts.Folder)
	if err != nil {
		return nil, newFilesystemError("list", p.opts.Folder, err)
	}

	records := make([]*models.FileRecord, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(p.opts.Folder, entry.Name())
		mode := entry.Mode()
		if mode&os.ModeSymlink != 0 {
			target, err := p.fs.Stat(path)
			if err != nil {
				p.logWarn(fmt.Sprintf("Skipping dangling symlink %s: %v", path, err))
				continue
			}
			mode = target.Mode()
		}
		if !mode.IsRegular() {
			continue
		}
		records = append(records, models.NewFileRecord(p.fs, path))
	}
	return records, nil
}

// applyMatcher sets IsMatch and, when OrderBy is configured, the sort key
// of every record.
func (p *Pruner) applyMatcher(records []*models.FileRecord) error {
	if p.opts.Matcher == nil {
		return nil
	}
	for _, r := range records {
		caps, ok := p.opts.Matcher.Match(r.Name)
		r.IsMatch = ok
		if !ok || p.opts.OrderBy == "" {
			continue
		}
		v, err := caps.Value(p.opts.OrderBy)
		if err != nil {
			return fmt.Errorf("orderby for %s: %w", r.Name, err)
		}
		r.OrderBy = v
	}
	return nil
}

// sortByKey stable-sorts records by OrderBy, ascending unless Reverse is
// set. Equal keys keep their name order in both directions.
func (p *Pruner) sortByKey(records []*models.FileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if p.opts.Reverse {
			return records[j].OrderBy.Less(records[i].OrderBy)
		}
		return records[i].OrderBy.Less(records[j].OrderBy)
	})
}

func (p *Pruner) logTrace(msg string) {
	if p.logger != nil {
		p.logger.LogTrace(msg)
	}
}

func (p *Pruner) logDebug(msg string) {
	if p.logger != nil {
		p.logger.LogDebug(msg)
	}
}

func (p *Pruner) logInfo(msg string) {
	if p.logger != nil {
		p.logger.LogInfo(msg)
	}
}

func (p *Pruner) logWarn(msg string) {
	if p.logger != nil {
		p.logger.LogWarn(msg)
	}
}
