package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/harrison/prunefiles/internal/limiter"
	"github.com/harrison/prunefiles/internal/matcher"
	"github.com/harrison/prunefiles/internal/pruner"
	"github.com/spf13/afero"
)

// Sentinel causes carried by ConfigurationError.
var (
	ErrMissingFolder         = errors.New("folder does not exist")
	ErrNotDirectory          = errors.New("folder is not a directory")
	ErrInvalidKeepCount      = errors.New("keep-count must be > 0")
	ErrInvalidSize           = errors.New("keep-size must be a valid size")
	ErrOrderByWithoutPattern = errors.New("orderby requires match-format or match-regex")
	ErrInvalidPattern        = errors.New("invalid pattern")
	ErrInvalidOutput         = errors.New("output must be one of: text, yaml")
	ErrInvalidLogLevel       = errors.New("log-level must be one of: trace, debug, info, warn, error")
)

// ConfigurationError reports an invalid option. It is always detected
// before the target directory is listed.
type ConfigurationError struct {
	Option string // Flag name without dashes, e.g. "keep-count"
	Err    error  // Cause; one of the sentinels above, possibly wrapped
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Option == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid --%s: %v", e.Option, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Config holds the options of one prunefiles invocation.
type Config struct {
	// Folder is the directory to prune.
	Folder string

	// MatchFormat is a parse-style template; exclusive with MatchRegex.
	MatchFormat string

	// MatchRegex is a regular expression; exclusive with MatchFormat.
	MatchRegex string

	// MatchCaseSensitive disables case-insensitive matching.
	MatchCaseSensitive bool

	// OrderBy names the captured field used as sort key.
	OrderBy string

	// OrderReverse sorts descending.
	OrderReverse bool

	// KeepCount is the number of files kept; nil disables the count limiter.
	KeepCount *int

	// KeepSize is the size budget as typed by the user ("10MB"); nil
	// disables the size limiter.
	KeepSize *string

	// DryRun reports without deleting.
	DryRun bool

	// Output is the report format: text or yaml.
	Output string

	// ReportFile additionally writes the report to this path.
	ReportFile string

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string

	// NoLock skips the per-directory prune lock.
	NoLock bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Output:   "text",
		LogLevel: "info",
	}
}

// Validate checks every option that can be checked without touching the
// target directory. It compiles the pattern, so an unknown orderby field
// is reported here as a *matcher.MatchFieldError.
func (c *Config) Validate() error {
	if c.KeepCount != nil && *c.KeepCount <= 0 {
		return &ConfigurationError{Option: "keep-count", Err: fmt.Errorf("%w, got %d", ErrInvalidKeepCount, *c.KeepCount)}
	}

	if c.KeepSize != nil {
		if _, err := c.KeepSizeBytes(); err != nil {
			return err
		}
	}

	m, err := c.Matcher()
	if err != nil {
		return err
	}
	if c.OrderBy != "" {
		if m == nil {
			return &ConfigurationError{Option: "orderby", Err: ErrOrderByWithoutPattern}
		}
		if err := matcher.CheckField(m, c.OrderBy); err != nil {
			return &ConfigurationError{Option: "orderby", Err: err}
		}
	}

	switch c.Output {
	case "text", "yaml":
	default:
		return &ConfigurationError{Option: "output", Err: fmt.Errorf("%w, got %q", ErrInvalidOutput, c.Output)}
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return &ConfigurationError{Option: "log-level", Err: fmt.Errorf("%w, got %q", ErrInvalidLogLevel, c.LogLevel)}
	}

	return nil
}

// ValidateFolder checks that Folder exists and is a directory.
func (c *Config) ValidateFolder(fs afero.Fs) error {
	info, err := fs.Stat(c.Folder)
	if err != nil {
		return &ConfigurationError{Option: "folder", Err: fmt.Errorf("%w: %s", ErrMissingFolder, c.Folder)}
	}
	if !info.IsDir() {
		return &ConfigurationError{Option: "folder", Err: fmt.Errorf("%w: %s", ErrNotDirectory, c.Folder)}
	}
	return nil
}

// KeepSizeBytes parses KeepSize. Decimal and binary suffixes are accepted
// ("10MB" is 10,000,000 bytes, "10MiB" is 10,485,760); a bare number is a
// byte count.
func (c *Config) KeepSizeBytes() (int64, error) {
	if c.KeepSize == nil {
		return 0, nil
	}
	raw := strings.TrimSpace(*c.KeepSize)
	n, err := humanize.ParseBytes(raw)
	if err != nil || raw == "" {
		return 0, &ConfigurationError{Option: "keep-size", Err: fmt.Errorf("%w, got %q", ErrInvalidSize, *c.KeepSize)}
	}
	if n > math.MaxInt64 {
		return 0, &ConfigurationError{Option: "keep-size", Err: fmt.Errorf("%w, %q is too large", ErrInvalidSize, *c.KeepSize)}
	}
	return int64(n), nil
}

// Matcher builds the configured matcher, or nil when no pattern is set.
func (c *Config) Matcher() (matcher.Matcher, error) {
	m, err := matcher.New(matcher.Spec{
		Format:        c.MatchFormat,
		Regex:         c.MatchRegex,
		CaseSensitive: c.MatchCaseSensitive,
	})
	switch {
	case errors.Is(err, matcher.ErrConflictingPatterns):
		return nil, &ConfigurationError{Err: err}
	case err != nil && c.MatchFormat != "":
		return nil, &ConfigurationError{Option: "match-format", Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
	case err != nil:
		return nil, &ConfigurationError{Option: "match-regex", Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
	}
	return m, nil
}

// Limiters builds the configured limiters in their fixed order: count
// first, then size.
func (c *Config) Limiters() ([]limiter.Limiter, error) {
	var limiters []limiter.Limiter

	if c.KeepCount != nil {
		l, err := limiter.NewCountLimiter(*c.KeepCount, "")
		if err != nil {
			return nil, &ConfigurationError{Option: "keep-count", Err: err}
		}
		limiters = append(limiters, l)
	}

	if c.KeepSize != nil {
		maxBytes, err := c.KeepSizeBytes()
		if err != nil {
			return nil, err
		}
		l, err := limiter.NewSizeLimiter(maxBytes, fmt.Sprintf("keep-size <= %s", *c.KeepSize))
		if err != nil {
			return nil, &ConfigurationError{Option: "keep-size", Err: err}
		}
		limiters = append(limiters, l)
	}

	return limiters, nil
}

// PrunerOptions translates the configuration into pruner options.
func (c *Config) PrunerOptions() (pruner.Options, error) {
	m, err := c.Matcher()
	if err != nil {
		return pruner.Options{}, err
	}
	limiters, err := c.Limiters()
	if err != nil {
		return pruner.Options{}, err
	}
	return pruner.Options{
		Folder:   c.Folder,
		Matcher:  m,
		OrderBy:  c.OrderBy,
		Reverse:  c.OrderReverse,
		Limiters: limiters,
		DryRun:   c.DryRun,
	}, nil
}
