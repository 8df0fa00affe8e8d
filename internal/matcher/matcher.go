// Package matcher classifies file names against a user supplied pattern and
// extracts named fields used as sort keys.
//
// Two variants exist: a parse-style template matcher ("backup_{n:d}.tar")
// and a regular expression matcher ("^backup_(?P<n>\d+)\.tar$"). Both match
// the whole file name and are case-insensitive unless configured otherwise.
// A nil Matcher means "no pattern": every file matches.
package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrFieldNotFound is returned when a requested field is not a named
// capture of the pattern.
var ErrFieldNotFound = errors.New("field not found in pattern")

// ErrConflictingPatterns is returned when both a template and a regex are configured.
var ErrConflictingPatterns = errors.New("match-format and match-regex are mutually exclusive")

// Matcher matches a file name and extracts named captures.
type Matcher interface {
	// Match reports whether name conforms to the pattern. On success the
	// returned Captures hold every named field of the pattern.
	Match(name string) (*Captures, bool)

	// Fields returns the named fields declared by the pattern, sorted.
	Fields() []string

	// Pattern returns the source pattern as given by the user.
	Pattern() string
}

// MatchFieldError reports a field name that the pattern does not declare.
type MatchFieldError struct {
	Field   string   // Requested field
	Pattern string   // Pattern the field was looked up in
	Known   []string // Fields the pattern does declare
}

// Error implements the error interface for MatchFieldError.
func (e *MatchFieldError) Error() string {
	known := "none"
	if len(e.Known) > 0 {
		known = strings.Join(e.Known, ", ")
	}
	return fmt.Sprintf("field %q not found in pattern %q (named fields: %s)", e.Field, e.Pattern, known)
}

// Unwrap returns ErrFieldNotFound so callers can use errors.Is.
func (e *MatchFieldError) Unwrap() error {
	return ErrFieldNotFound
}

// Captures is the result of a successful match.
type Captures struct {
	pattern string
	values  map[string]Value
}

func newCaptures(pattern string, size int) *Captures {
	return &Captures{pattern: pattern, values: make(map[string]Value, size)}
}

// Value returns the captured value of field.
func (c *Captures) Value(field string) (Value, error) {
	v, ok := c.values[field]
	if !ok {
		return Value{}, &MatchFieldError{Field: field, Pattern: c.pattern, Known: c.Fields()}
	}
	return v, nil
}

// Fields returns the captured field names, sorted.
func (c *Captures) Fields() []string {
	fields := make([]string, 0, len(c.values))
	for name := range c.values {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Options configures matcher construction.
type Options struct {
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// Spec selects at most one matcher variant.
type Spec struct {
	Format        string // parse-style template
	Regex         string // regular expression
	CaseSensitive bool
}

// New builds the matcher described by spec. It returns (nil, nil) when no
// pattern is configured.
func New(spec Spec) (Matcher, error) {
	opts := Options{CaseSensitive: spec.CaseSensitive}
	switch {
	case spec.Format != "" && spec.Regex != "":
		return nil, ErrConflictingPatterns
	case spec.Format != "":
		m, err := NewTemplate(spec.Format, opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	case spec.Regex != "":
		m, err := NewRegex(spec.Regex, opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}

// CheckField verifies that m declares field. A nil matcher declares no fields.
func CheckField(m Matcher, field string) error {
	if m == nil {
		return &MatchFieldError{Field: field}
	}
	fields := m.Fields()
	i := sort.SearchStrings(fields, field)
	if i < len(fields) && fields[i] == field {
		return nil
	}
	return &MatchFieldError{Field: field, Pattern: m.Pattern(), Known: fields}
}
