package glob

import "strings"

// entry is one member of a compiled Sequence.
type entry struct {
	pattern  *Pattern
	negative bool
}

// Sequence is a semicolon-separated list of Patterns, each optionally
// negated with a leading '!'.
type Sequence struct {
	entries   []entry
	positives int
}

// CompileSequence parses a semicolon-separated pattern sequence. An empty
// source compiles to a sequence that matches everything (the all-negative
// fallback rule applies vacuously: zero positives, zero negatives).
func CompileSequence(source string) (*Sequence, error) {
	seq := &Sequence{}
	source = strings.TrimSpace(source)
	if source == "" {
		return seq, nil
	}
	for _, tok := range strings.Split(source, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		neg := strings.HasPrefix(tok, "!")
		if neg {
			tok = tok[1:]
		}
		p, err := Compile(tok)
		if err != nil {
			return nil, err
		}
		seq.entries = append(seq.entries, entry{pattern: p, negative: neg})
		if !neg {
			seq.positives++
		}
	}
	return seq, nil
}

// Match evaluates the sequence against candidate: a no-match if any
// negative entry matches; otherwise the first matching positive entry's
// captures; if the sequence has no positive entries and none of its
// (zero or more) negatives matched, it is treated as matching everything
// with no captures.
func (s *Sequence) Match(candidate string) (bool, []string) {
	for _, e := range s.entries {
		if e.negative {
			if ok, _ := e.pattern.Match(candidate); ok {
				return false, nil
			}
		}
	}
	for _, e := range s.entries {
		if !e.negative {
			if ok, captures := e.pattern.Match(candidate); ok {
				return true, captures
			}
		}
	}
	if s.positives == 0 {
		return true, nil
	}
	return false, nil
}
