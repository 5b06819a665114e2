// Package vars implements the variable environment used to resolve
// $NAME/${NAME}/$(NAME) and positional $n/${n}/$(n) references inside
// refname and pattern templates.
package vars

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Environment stores raw variable values and resolves references against
// them, memoizing per-name results and detecting reference cycles with a
// DFS visited set. Refname and pattern contexts memoize separately: a
// semicolon-separated list value stays literal in the former and becomes
// a brace alternation in the latter, so the two expansions of the same
// name can differ.
type Environment struct {
	raw             map[string]string
	resolved        map[string]string
	resolvedPattern map[string]string
}

// New creates an empty environment.
func New() *Environment {
	return &Environment{
		raw:             map[string]string{},
		resolved:        map[string]string{},
		resolvedPattern: map[string]string{},
	}
}

// Define sets name to value, invalidating any memoized resolution (the
// Config Model only calls Define during the resolution phase, plus one
// late $rev binding per branch allocation, so this is cheap).
func (e *Environment) Define(name, value string) {
	e.raw[name] = value
	e.resolved = map[string]string{}
	e.resolvedPattern = map[string]string{}
}

// Has reports whether name was ever defined.
func (e *Environment) Has(name string) bool {
	_, ok := e.raw[name]
	return ok
}

// Resolve returns the fully-expanded value of name in refname context,
// recursively substituting any variable references it contains. An
// undefined name resolves to "". A reference cycle is reported as an
// error.
func (e *Environment) Resolve(name string) (string, error) {
	return e.resolve(name, false)
}

// ResolvePattern is Resolve in pattern context: every variable reference
// whose expansion contains semicolons is wrapped as a "{v1,v2,...}"
// brace alternation at its reference site. The wrap happens per
// reference, not on the final string, so "${A}/z" with A="x;y" expands
// to "{x,y}/z" rather than "{x,y/z}".
func (e *Environment) ResolvePattern(name string) (string, error) {
	return e.resolve(name, true)
}

func (e *Environment) resolve(name string, patternContext bool) (string, error) {
	cache := e.resolved
	if patternContext {
		cache = e.resolvedPattern
	}
	if v, ok := cache[name]; ok {
		return v, nil
	}
	visiting := map[string]bool{}
	v, err := e.resolveDFS(name, visiting, patternContext)
	if err != nil {
		return "", err
	}
	cache[name] = v
	return v, nil
}

func (e *Environment) resolveDFS(name string, visiting map[string]bool, patternContext bool) (string, error) {
	if visiting[name] {
		return "", fmt.Errorf("vars: cycle detected resolving $%s", name)
	}
	raw, ok := e.raw[name]
	if !ok {
		return "", nil
	}
	visiting[name] = true
	defer delete(visiting, name)

	var out strings.Builder
	pos := 0
	for pos < len(raw) {
		ref, width, isVar := scanRef(raw[pos:])
		if ref == "" {
			out.WriteByte(raw[pos])
			pos++
			continue
		}
		if isVar {
			val, err := e.resolveDFS(ref, visiting, patternContext)
			if err != nil {
				return "", err
			}
			if patternContext {
				val = wrapList(val)
			}
			out.WriteString(val)
		}
		// Numeric refs are not meaningful inside a raw variable value
		// (captures only exist at substitution time); leave as literal.
		if !isVar {
			out.WriteString(raw[pos : pos+width])
		}
		pos += width
	}
	return out.String(), nil
}

// wrapList turns a semicolon-separated value into a brace alternation;
// a value with no semicolons passes through unchanged.
func wrapList(val string) string {
	if !strings.Contains(val, ";") {
		return val
	}
	return "{" + strings.Join(strings.Split(val, ";"), ",") + "}"
}

// refRE recognizes $NAME, ${NAME}, $(NAME) and the numeric equivalents,
// including the bare $n form. Group 1/2/3/4 hold the bare-name, bare-
// numeric, braced, and parenthesized identifier; one of them is
// non-empty for any match.
var refRE = regexp.MustCompile(`^\$(?:([A-Za-z_][A-Za-z0-9_]*)|([0-9]+)|\{([^}]*)\}|\(([^)]*)\))`)

// scanRef looks for a variable/capture reference at the start of s,
// returning its identifier, the byte width consumed, and whether the
// identifier is alphabetic (a variable) as opposed to numeric (a
// capture ordinal). ref == "" means no reference starts here.
func scanRef(s string) (ref string, width int, isVar bool) {
	m := refRE.FindStringSubmatchIndex(s)
	if m == nil {
		return "", 0, false
	}
	width = m[1]
	for i := 1; i <= 4; i++ {
		if m[2*i] >= 0 {
			ref = s[m[2*i]:m[2*i+1]]
			break
		}
	}
	if ref == "" {
		return "", 0, false
	}
	if _, err := strconv.Atoi(ref); err == nil {
		return ref, width, false
	}
	return ref, width, true
}

// Substitute expands a refname or revision-ref template: variable
// references resolve through the environment, numeric references bind
// to the 1-based ordinal in captures (out-of-range yields ""). When
// patternContext is true, a referenced variable whose expansion contains
// semicolons is wrapped as a "{v1,v2,...}" brace alternation at its
// reference site; refname templates (patternContext == false) keep
// semicolons literal. In refname context the wildcard glyphs "*" and
// "**" are a positional convenience: the Nth glyph in the template binds
// the Nth capture, so "$Branches/*" is equivalent to "$Branches/$1" for
// a single-wildcard source pattern.
func (e *Environment) Substitute(template string, captures []string, patternContext bool) (string, error) {
	var out strings.Builder
	pos := 0
	glyph := 0
	for pos < len(template) {
		if !patternContext && template[pos] == '*' {
			width := 1
			if pos+1 < len(template) && template[pos+1] == '*' {
				width = 2
			}
			if glyph < len(captures) {
				out.WriteString(captures[glyph])
			}
			glyph++
			pos += width
			continue
		}
		ref, width, isVar := scanRef(template[pos:])
		if ref == "" {
			out.WriteByte(template[pos])
			pos++
			continue
		}
		if isVar {
			val, err := e.resolve(ref, patternContext)
			if err != nil {
				return "", err
			}
			if patternContext {
				val = wrapList(val)
			}
			out.WriteString(val)
		} else {
			n, _ := strconv.Atoi(ref)
			if n >= 1 && n <= len(captures) {
				out.WriteString(captures[n-1])
			}
		}
		pos += width
	}
	return out.String(), nil
}
