package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidTemplate is returned for malformed match-format templates.
var ErrInvalidTemplate = errors.New("invalid match-format template")

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fieldType describes how a {name:type} field is matched and converted.
type fieldType struct {
	expr    string
	convert func(string) (Value, error)
}

// fieldTypes maps the supported format types to their expression and
// conversion. The empty type matches any non-empty text, lazily.
var fieldTypes = map[string]fieldType{
	"":  {expr: `.+?`, convert: toString},
	"w": {expr: `\w+`, convert: toString},
	"W": {expr: `\W+`, convert: toString},
	"l": {expr: `[[:alpha:]]+`, convert: toString},
	"D": {expr: `\D+`, convert: toString},
	"S": {expr: `\S+`, convert: toString},
	"s": {expr: `\s+`, convert: toString},
	"d": {expr: `[-+]?\d+`, convert: toInt},
	"n": {expr: `[-+]?\d{1,3}(?:,\d{3})+|[-+]?\d+`, convert: toGroupedInt},
	"f": {expr: `[-+]?(?:\d+\.\d*|\.\d+)(?:[eE][-+]?\d+)?`, convert: toFloat},
	"g": {expr: `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`, convert: toFloat},
}

type templateField struct {
	name    string
	group   string
	convert func(string) (Value, error)
}

// TemplateMatcher matches names against a parse-style template such as
// "backup_{date}_{n:d}.tar.gz". Literal text must match exactly (modulo
// case folding); fields capture the text between literals.
type TemplateMatcher struct {
	pattern string
	re      *regexp.Regexp
	fields  []templateField
	names   []string
}

// NewTemplate compiles tmpl.
//
// Supported syntax: {} anonymous field, {name} string field,
// {name:type} typed field, {{ and }} literal braces. Field names must be
// identifiers and may appear once.
func NewTemplate(tmpl string, opts Options) (*TemplateMatcher, error) {
	body, fields, err := compileTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	flags := "(?s)"
	if !opts.CaseSensitive {
		flags = "(?is)"
	}
	re, err := regexp.Compile(flags + "^" + body + "$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTemplate, tmpl, err)
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	sort.Strings(names)

	return &TemplateMatcher{pattern: tmpl, re: re, fields: fields, names: names}, nil
}

// compileTemplate translates the template into a regular expression body
// and the list of named fields it declares.
func compileTemplate(tmpl string) (string, []templateField, error) {
	var sb strings.Builder
	var literal strings.Builder
	var fields []templateField
	seen := make(map[string]bool)

	flush := func() {
		sb.WriteString(regexp.QuoteMeta(literal.String()))
		literal.Reset()
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			literal.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			literal.WriteByte('}')
			i++
		case c == '}':
			return "", nil, fmt.Errorf("%w %q: single '}' at offset %d", ErrInvalidTemplate, tmpl, i)
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", nil, fmt.Errorf("%w %q: unterminated field at offset %d", ErrInvalidTemplate, tmpl, i)
			}
			spec := tmpl[i+1 : i+1+end]
			i += end + 1

			name, typ, _ := strings.Cut(spec, ":")
			ft, ok := fieldTypes[typ]
			if !ok {
				return "", nil, fmt.Errorf("%w %q: unsupported field type %q", ErrInvalidTemplate, tmpl, typ)
			}

			flush()
			if name == "" {
				sb.WriteString("(?:" + ft.expr + ")")
				continue
			}
			if !fieldNameRe.MatchString(name) {
				return "", nil, fmt.Errorf("%w %q: invalid field name %q", ErrInvalidTemplate, tmpl, name)
			}
			if seen[name] {
				return "", nil, fmt.Errorf("%w %q: field %q declared twice", ErrInvalidTemplate, tmpl, name)
			}
			seen[name] = true

			group := fmt.Sprintf("f%d", len(fields))
			sb.WriteString("(?P<" + group + ">" + ft.expr + ")")
			fields = append(fields, templateField{name: name, group: group, convert: ft.convert})
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	return sb.String(), fields, nil
}

// Match implements Matcher. A field whose text cannot be converted to its
// declared type (e.g. an integer overflow) makes the name a non-match.
func (m *TemplateMatcher) Match(name string) (*Captures, bool) {
	sub := m.re.FindStringSubmatch(name)
	if sub == nil {
		return nil, false
	}

	caps := newCaptures(m.pattern, len(m.fields))
	for _, f := range m.fields {
		raw := sub[m.re.SubexpIndex(f.group)]
		v, err := f.convert(raw)
		if err != nil {
			return nil, false
		}
		caps.values[f.name] = v
	}
	return caps, true
}

// Fields implements Matcher.
func (m *TemplateMatcher) Fields() []string {
	return m.names
}

// Pattern implements Matcher.
func (m *TemplateMatcher) Pattern() string {
	return m.pattern
}

func toString(s string) (Value, error) {
	return StringValue(s), nil
}

func toInt(s string) (Value, error) {
	i, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
	if err != nil {
		return Value{}, err
	}
	return IntValue(i), nil
}

func toGroupedInt(s string) (Value, error) {
	return toInt(strings.ReplaceAll(s, ",", ""))
}

func toFloat(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, err
	}
	return FloatValue(f), nil
}
