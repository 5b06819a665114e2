// Package commit normalizes an HG changeset's author and message into
// well-formed Git commit fields.
package commit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alegrigoriev/hg2git/internal/model"
)

// Builder synthesizes commit messages and identities. Decorate, when
// true, appends an "HG-revision:" trailer to every message, as enabled
// by --decorate-commit-message=revision-id.
type Builder struct {
	Decorate bool
	// WhoAmI supplies a last-resort local identity when an HG username
	// is entirely empty, typically fqme.WhoAmI. nil disables the
	// fallback and falls straight through to the synthesized
	// <user>@localhost form.
	WhoAmI func() (name, email string, err error)
}

// Identity returns the Git author/committer identity for an HG
// username. Author and committer are always set identically, so one
// Attribution serves both roles.
func (b *Builder) Identity(hgUsername string) model.Attribution {
	if strings.TrimSpace(hgUsername) == "" && b.WhoAmI != nil {
		if name, email, err := b.WhoAmI(); err == nil {
			return model.Attribution{Name: name, Email: email}
		}
	}
	return model.ParseAttribution(hgUsername)
}

// Message composes the Git commit message: the HG message verbatim when
// non-empty, otherwise a synthesized summary of the file operations, with
// an optional HG-revision trailer appended either way.
func Message(hgMessage string, files []model.FileOp, decorate bool, revision string) string {
	msg := hgMessage
	if msg == "" {
		msg = synthesize(files)
	}
	if decorate {
		trailer := "HG-revision: " + revision
		if msg == "" {
			msg = trailer
		} else {
			msg = msg + "\n\n" + trailer
		}
	}
	return msg
}

// synthesize builds "Added: w\nModified: x\nDeleted: y\nRenamed: a → b"
// lines, sections in that fixed order, paths sorted within each section.
func synthesize(files []model.FileOp) string {
	var added, modified, deleted, renamed []string
	for _, f := range files {
		switch f.Kind {
		case model.OpAdd:
			added = append(added, f.Path)
		case model.OpModify:
			modified = append(modified, f.Path)
		case model.OpDelete:
			deleted = append(deleted, f.Path)
		case model.OpRename:
			renamed = append(renamed, fmt.Sprintf("%s → %s", f.OldPath, f.Path))
		}
	}
	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(deleted)
	sort.Strings(renamed)

	var lines []string
	for _, p := range added {
		lines = append(lines, "Added: "+p)
	}
	for _, p := range modified {
		lines = append(lines, "Modified: "+p)
	}
	for _, p := range deleted {
		lines = append(lines, "Deleted: "+p)
	}
	for _, p := range renamed {
		lines = append(lines, "Renamed: "+p)
	}
	return strings.Join(lines, "\n")
}

// IsEmptyChange reports whether a changeset carries neither file
// operations nor a message. Such changesets are suppressed by default;
// a changeset with a message but no file operations is still emitted.
func IsEmptyChange(hgMessage string, files []model.FileOp) bool {
	return hgMessage == "" && len(files) == 0
}
