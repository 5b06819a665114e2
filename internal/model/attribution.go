package model

import (
	"regexp"
	"strings"
)

// Attribution pins an HG changeset to a normalized Git author/committer
// identity: a display name and an email address.
type Attribution struct {
	Name  string
	Email string
}

var angleForm = regexp.MustCompile(`^(.*?)\s*<([^>]*)>\s*$`)
var parenForm = regexp.MustCompile(`^(.*?)\s*\(([^)]*)\)\s*$`)
var bareEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)

// ParseAttribution extracts a name/email pair from an HG username string.
// Accepted forms, tried in order: "Name <email>", "Name (email)",
// '"Name" <email>', a bare email address, and a bare name. Surrounding
// quotes and whitespace are stripped. When no email can be isolated, one
// is synthesized from the name as "<user>@localhost".
func ParseAttribution(raw string) Attribution {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Attribution{Name: "", Email: "unknown@localhost"}
	}
	if m := angleForm.FindStringSubmatch(s); m != nil {
		name := unquote(strings.TrimSpace(m[1]))
		email := strings.TrimSpace(m[2])
		if name == "" {
			name = localPart(email)
		}
		return Attribution{Name: name, Email: email}
	}
	if m := parenForm.FindStringSubmatch(s); m != nil {
		name := unquote(strings.TrimSpace(m[1]))
		email := strings.TrimSpace(m[2])
		if name == "" {
			name = localPart(email)
		}
		return Attribution{Name: name, Email: email}
	}
	if bareEmail.MatchString(s) {
		at := strings.IndexByte(s, '@')
		return Attribution{Name: s[:at], Email: s}
	}
	name := unquote(s)
	return Attribution{Name: name, Email: localPart(name) + "@localhost"}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// localPart reduces a name or email to something usable as the local
// part of a synthesized address: lowercased, whitespace collapsed to
// single dots.
func localPart(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.Join(fields, ".")
}

// String renders the canonical "Name <email>" form.
func (a Attribution) String() string {
	return a.Name + " <" + a.Email + ">"
}
