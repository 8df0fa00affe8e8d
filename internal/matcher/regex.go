package matcher

import (
	"fmt"
	"regexp"
	"sort"
)

// RegexMatcher matches names against a regular expression anchored to the
// whole name. Captures are always strings.
type RegexMatcher struct {
	pattern string
	re      *regexp.Regexp
	fields  []string
}

// NewRegex compiles pattern. Both (?P<name>...) and (?<name>...) groups are
// accepted as named fields.
func NewRegex(pattern string, opts Options) (*RegexMatcher, error) {
	expr := "^(?:" + pattern + ")$"
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid match-regex %q: %w", pattern, err)
	}

	var fields []string
	seen := make(map[string]bool)
	for _, name := range re.SubexpNames() {
		if name != "" && !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	return &RegexMatcher{pattern: pattern, re: re, fields: fields}, nil
}

// Match implements Matcher.
func (m *RegexMatcher) Match(name string) (*Captures, bool) {
	sub := m.re.FindStringSubmatch(name)
	if sub == nil {
		return nil, false
	}

	caps := newCaptures(m.pattern, len(m.fields))
	for i, field := range m.re.SubexpNames() {
		if field == "" {
			continue
		}
		// A repeated group name keeps the first group that participated.
		if _, seen := caps.values[field]; seen && sub[i] == "" {
			continue
		}
		caps.values[field] = StringValue(sub[i])
	}
	return caps, true
}

// Fields implements Matcher.
func (m *RegexMatcher) Fields() []string {
	return m.fields
}

// Pattern implements Matcher.
func (m *RegexMatcher) Pattern() string {
	return m.pattern
}
