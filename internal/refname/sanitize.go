// Package refname turns a raw substituted refname into one Git will
// accept: Replace-rule character substitution followed by the "refs/"
// prefix requirement, plus a validity predicate matching the rules
// git-check-ref-format enforces.
package refname

import "strings"

// Replace is one character-replacement rule, applied left to right.
type Replace struct {
	Chars string
	With  string
}

// Sanitize applies rules in inheritance order (hardcoded, Default,
// Project — the caller is responsible for ordering them before calling),
// collapses any run of slashes left by a variable value and a template's
// own separator butting together (e.g. "$Branches/x" with
// "$Branches"="refs/heads/"), then ensures the result is prefixed with
// "refs/".
func Sanitize(name string, rules []Replace) string {
	out := name
	for _, r := range rules {
		out = strings.ReplaceAll(out, r.Chars, r.With)
	}
	for strings.Contains(out, "//") {
		out = strings.ReplaceAll(out, "//", "/")
	}
	if !strings.HasPrefix(out, "refs/") {
		out = "refs/" + strings.TrimPrefix(out, "/")
	}
	return out
}

// forbidden sequences a Git refname can never contain, regardless of
// Replace rules: see git-check-ref-format(1).
var forbiddenSubstrings = []string{"..", "//", "@{", "\\"}
var forbiddenBytes = " ~^:?*[\x7f"

// IsValid reports whether name is a syntactically acceptable Git
// refname. Every refname the allocator hands the Git writer must pass
// this predicate.
func IsValid(name string) bool {
	if !strings.HasPrefix(name, "refs/") {
		return false
	}
	if name == "" || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.HasSuffix(name, ".lock") {
		return false
	}
	for _, bad := range forbiddenSubstrings {
		if strings.Contains(name, bad) {
			return false
		}
	}
	for _, b := range []byte(name) {
		if strings.IndexByte(forbiddenBytes, b) >= 0 {
			return false
		}
		if b < 0x20 {
			return false
		}
	}
	for _, component := range strings.Split(name, "/") {
		if component == "" {
			return false
		}
		if strings.HasPrefix(component, ".") {
			return false
		}
	}
	return true
}
