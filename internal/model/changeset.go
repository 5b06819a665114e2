package model

// FileOpKind enumerates the kinds of change a changeset can carry for a
// single path.
type FileOpKind int

const (
	OpAdd FileOpKind = iota
	OpModify
	OpDelete
	OpRename
)

// FileOp is one file-level change within a changeset. OldPath is only
// meaningful for OpRename.
type FileOp struct {
	Kind    FileOpKind
	Path    string
	OldPath string
	Mode    uint32
}

// TagChange is one line of .hgtags delta at a given revision: a tag name
// either (re)pointed at an HG revision, or removed.
type TagChange struct {
	Name     string
	Revision string // empty when Removed is true
	Removed  bool
}

// Changeset is the unit the HG reader hands the pipeline: an opaque
// revision id, its parents in the HG DAG, the branch it was committed
// on, and everything needed to synthesize a Git commit from it.
type Changeset struct {
	Revision  string
	Parents   []string // 0, 1, or 2 entries
	Branch    string
	Author    string
	Timestamp Date
	Message   string
	Files     []FileOp
	TagDelta  []TagChange // .hgtags changes introduced by this revision
}
