package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Match is one occurrence that satisfied a matcher. Text is the literal
// substring found (a capture group when the pattern declares one).
type Match struct {
	Text string
}

// Matcher evaluates a predicate over the whole artifact text.
type Matcher interface {
	Match(text string) []Match
	Describe() string
}

type containsMatcher struct {
	needles []string
	fold    bool
	each    bool
}

// Contains matches once when any needle is a case-sensitive substring of the text.
func Contains(needles ...string) Matcher {
	return &containsMatcher{needles: needles}
}

// ContainsFold is Contains with case-insensitive comparison.
func ContainsFold(needles ...string) Matcher {
	return &containsMatcher{needles: needles, fold: true}
}

// Literals matches once per needle present in the text, in needle order.
func Literals(needles ...string) Matcher {
	return &containsMatcher{needles: needles, each: true}
}

func (m *containsMatcher) Match(text string) []Match {
	haystack := text
	if m.fold {
		haystack = strings.ToLower(text)
	}
	var out []Match
	for _, n := range m.needles {
		needle := n
		if m.fold {
			needle = strings.ToLower(n)
		}
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			continue
		}
		found := n
		if len(haystack) == len(text) {
			found = text[idx : idx+len(needle)]
		}
		out = append(out, Match{Text: found})
		if !m.each {
			break
		}
	}
	return out
}

func (m *containsMatcher) Describe() string {
	switch {
	case m.each:
		return "each of " + quoteAll(m.needles)
	case m.fold:
		return "contains (case-insensitive) any of " + quoteAll(m.needles)
	default:
		return "contains any of " + quoteAll(m.needles)
	}
}

type prefixMatcher struct {
	prefixes []string
}

// Prefix matches once per prefix the text starts with.
func Prefix(prefixes ...string) Matcher {
	return &prefixMatcher{prefixes: prefixes}
}

func (m *prefixMatcher) Match(text string) []Match {
	var out []Match
	for _, p := range m.prefixes {
		if p != "" && strings.HasPrefix(text, p) {
			out = append(out, Match{Text: p})
		}
	}
	return out
}

func (m *prefixMatcher) Describe() string {
	return "starts with any of " + quoteAll(m.prefixes)
}

type PatternOption func(*patternOptions)

type patternOptions struct {
	ignoreCase bool
	multiline  bool
}

// IgnoreCase makes the pattern case-insensitive.
func IgnoreCase() PatternOption {
	return func(o *patternOptions) { o.ignoreCase = true }
}

// Multiline anchors ^ and $ at line boundaries instead of the text boundaries.
func Multiline() PatternOption {
	return func(o *patternOptions) { o.multiline = true }
}

type patternMatcher struct {
	re   *regexp.Regexp
	expr string
	opts patternOptions
	all  bool
}

// NewPattern compiles a pattern matcher that fires at most once.
func NewPattern(expr string, opts ...PatternOption) (Matcher, error) {
	return newPatternMatcher(expr, false, opts)
}

// NewEach compiles a pattern matcher that yields one match per occurrence.
func NewEach(expr string, opts ...PatternOption) (Matcher, error) {
	return newPatternMatcher(expr, true, opts)
}

// Pattern is NewPattern for built-in tables; it panics on an invalid expression.
func Pattern(expr string, opts ...PatternOption) Matcher {
	m, err := NewPattern(expr, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Each is NewEach for built-in tables; it panics on an invalid expression.
func Each(expr string, opts ...PatternOption) Matcher {
	m, err := NewEach(expr, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func newPatternMatcher(expr string, all bool, opts []PatternOption) (*patternMatcher, error) {
	var o patternOptions
	for _, opt := range opts {
		opt(&o)
	}
	flags := ""
	if o.ignoreCase {
		flags += "i"
	}
	if o.multiline {
		flags += "m"
	}
	full := expr
	if flags != "" {
		full = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(full)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("pattern %q matches the empty string", expr)
	}
	return &patternMatcher{re: re, expr: expr, opts: o, all: all}, nil
}

func (m *patternMatcher) Match(text string) []Match {
	if !m.all {
		sub := m.re.FindStringSubmatchIndex(text)
		if sub == nil {
			return nil
		}
		return []Match{{Text: matchText(text, sub)}}
	}
	var out []Match
	for _, sub := range m.re.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Match{Text: matchText(text, sub)})
	}
	return out
}

// matchText prefers the first capture group when it participated in the match.
func matchText(text string, sub []int) string {
	if len(sub) >= 4 && sub[2] >= 0 {
		return strings.TrimSpace(text[sub[2]:sub[3]])
	}
	return strings.TrimSpace(text[sub[0]:sub[1]])
}

func (m *patternMatcher) Describe() string {
	var mods []string
	if m.opts.ignoreCase {
		mods = append(mods, "case-insensitive")
	}
	if m.opts.multiline {
		mods = append(mods, "multiline")
	}
	if m.all {
		mods = append(mods, "every occurrence")
	}
	desc := fmt.Sprintf("pattern /%s/", m.expr)
	if len(mods) > 0 {
		desc += " (" + strings.Join(mods, ", ") + ")"
	}
	return desc
}

type absentMatcher struct {
	inner Matcher
}

// Absent fires once when inner finds nothing anywhere in the text.
func Absent(inner Matcher) Matcher {
	return &absentMatcher{inner: inner}
}

func (m *absentMatcher) Match(text string) []Match {
	if len(m.inner.Match(text)) > 0 {
		return nil
	}
	return []Match{{}}
}

func (m *absentMatcher) Describe() string {
	return "no " + m.inner.Describe()
}

type allMatcher struct {
	parts []Matcher
}

// All fires once when every part matches. The reported match is the first
// part's first match.
func All(parts ...Matcher) Matcher {
	return &allMatcher{parts: parts}
}

func (m *allMatcher) Match(text string) []Match {
	if len(m.parts) == 0 {
		return nil
	}
	var first Match
	for i, p := range m.parts {
		got := p.Match(text)
		if len(got) == 0 {
			return nil
		}
		if i == 0 {
			first = got[0]
		}
	}
	return []Match{first}
}

func (m *allMatcher) Describe() string {
	descs := make([]string, 0, len(m.parts))
	for _, p := range m.parts {
		descs = append(descs, p.Describe())
	}
	return strings.Join(descs, " AND ")
}

type whereMatcher struct {
	inner Matcher
	keep  func(string) bool
	desc  string
}

// Where keeps only the inner matches whose text satisfies keep.
func Where(inner Matcher, desc string, keep func(string) bool) Matcher {
	return &whereMatcher{inner: inner, keep: keep, desc: desc}
}

func (m *whereMatcher) Match(text string) []Match {
	var out []Match
	for _, match := range m.inner.Match(text) {
		if m.keep(match.Text) {
			out = append(out, match)
		}
	}
	return out
}

func (m *whereMatcher) Describe() string {
	return m.inner.Describe() + " where " + m.desc
}

func quoteAll(values []string) string {
	q := make([]string, 0, len(values))
	for _, v := range values {
		q = append(q, fmt.Sprintf("%q", v))
	}
	return strings.Join(q, ", ")
}
