// Package glob implements the wildcard matcher shared by branch filters,
// tag filters, and refname substitution templates: compiled Patterns with
// ordinal captures, and Sequences of positive/negative Patterns.
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled glob expression. It is immutable after Compile.
type Pattern struct {
	source    string
	re        *regexp.Regexp
	anchored  bool // source contained '/': match whole candidate
	dirOnly   bool // source had a trailing '/': candidate must end in '/'
	ncaptures int
}

// Compile parses a single glob expression (no leading '!', no semicolons)
// into a Pattern. Character ranges ("[...]") are rejected: the grammar
// does not support them.
func Compile(source string) (*Pattern, error) {
	if strings.ContainsRune(source, '[') {
		return nil, fmt.Errorf("glob: unsupported range syntax in %q", source)
	}
	p := &Pattern{source: source, anchored: strings.Contains(source, "/")}
	body := source
	if strings.HasSuffix(body, "/") && body != "/" {
		p.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}
	var b strings.Builder
	if err := compileSegment(&b, body, &p.ncaptures); err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^" + b.String() + "$")
	if err != nil {
		return nil, fmt.Errorf("glob: %q: %w", source, err)
	}
	p.re = re
	return p, nil
}

// compileSegment translates one glob fragment (no capture tracking for
// nested alternatives, see compileAlternation) into a regex fragment,
// incrementing *n for every capturing group it opens at this level.
func compileSegment(b *strings.Builder, s string, n *int) error {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			b.WriteString("(.*)")
			*n++
			i += 2
		case c == '*':
			atStart := i == 0 || s[i-1] == '/'
			atEnd := i+1 == len(s) || s[i+1] == '/'
			if atStart && atEnd {
				b.WriteString("([^/]+)")
			} else {
				b.WriteString("([^/]*)")
			}
			*n++
			i++
		case c == '?':
			b.WriteString("([^/])")
			*n++
			i++
		case c == '{':
			end, err := matchingBrace(s, i)
			if err != nil {
				return err
			}
			alt, err := compileAlternation(s[i+1:end])
			if err != nil {
				return err
			}
			b.WriteString("(" + alt + ")")
			*n++
			i = end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return nil
}

// compileAlternation compiles the comma-separated alternatives of a
// "{a,b,c}" group into a non-capturing regex fragment: wildcards nested
// inside an alternative do NOT get their own ordinal capture, since the
// whole alternation counts as a single capture bound to the chosen
// alternative's matched text.
func compileAlternation(s string) (string, error) {
	parts := splitTopLevel(s, ',')
	var out []string
	for _, part := range parts {
		var b strings.Builder
		discard := 0
		if err := compileSegmentNonCapturing(&b, part, &discard); err != nil {
			return "", err
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "|"), nil
}

// compileSegmentNonCapturing is compileSegment with every capturing
// group replaced by its non-capturing equivalent, for use inside an
// alternation's alternatives (which may themselves nest braces).
func compileSegmentNonCapturing(b *strings.Builder, s string, n *int) error {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			b.WriteString("(?:.*)")
			i += 2
		case c == '*':
			atStart := i == 0 || s[i-1] == '/'
			atEnd := i+1 == len(s) || s[i+1] == '/'
			if atStart && atEnd {
				b.WriteString("(?:[^/]+)")
			} else {
				b.WriteString("(?:[^/]*)")
			}
			i++
		case c == '?':
			b.WriteString("(?:[^/])")
			i++
		case c == '{':
			end, err := matchingBrace(s, i)
			if err != nil {
				return err
			}
			alt, err := compileAlternation(s[i+1:end])
			if err != nil {
				return err
			}
			b.WriteString("(?:" + alt + ")")
			i = end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return nil
}

func matchingBrace(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("glob: unbalanced '{' in %q", s)
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// Match tests candidate against the pattern. When the source pattern had
// no '/', it is tried against the whole candidate and then against every
// '/'-separated component of it (it matches "any single path component
// anywhere"); only a "**" can match across a '/', so the whole-candidate
// attempt is what lets "**" bind a slash-containing name. Captures are
// returned in source order.
func (p *Pattern) Match(candidate string) (bool, []string) {
	if p.dirOnly && !strings.HasSuffix(candidate, "/") {
		return false, nil
	}
	cand := candidate
	if p.dirOnly {
		cand = strings.TrimSuffix(cand, "/")
	}
	if p.anchored {
		m := p.re.FindStringSubmatch(cand)
		if m == nil {
			return false, nil
		}
		return true, m[1:]
	}
	if m := p.re.FindStringSubmatch(cand); m != nil {
		return true, m[1:]
	}
	for _, comp := range strings.Split(cand, "/") {
		if m := p.re.FindStringSubmatch(comp); m != nil {
			return true, m[1:]
		}
	}
	return false, nil
}

// NumCaptures reports how many ordinal captures this pattern binds.
func (p *Pattern) NumCaptures() int { return p.ncaptures }

// String returns the original source text.
func (p *Pattern) String() string { return p.source }
