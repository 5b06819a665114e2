package convert

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/alegrigoriev/hg2git/internal/commit"
	"github.com/alegrigoriev/hg2git/internal/config"
	"github.com/alegrigoriev/hg2git/internal/gitsink"
	"github.com/alegrigoriev/hg2git/internal/hgsource"
	"github.com/alegrigoriev/hg2git/internal/model"
	"github.com/alegrigoriev/hg2git/internal/refname"
)

// branchHead is the per-(project, HG branch) state the pipeline tracks
// across the revision stream.
type branchHead struct {
	refname             string
	revisionRefTemplate string
	lastRevision        string
	lastCommit          string
}

// Stats counts what the pipeline did, for the end-of-run summary. A
// concurrent progress reporter may read these scalars without locking;
// an approximate instantaneous value is acceptable.
type Stats struct {
	Committed  int
	Skipped    int
	Suppressed int
}

// Pipeline drives changesets from a Reader into commits and ref updates
// on a Writer. It is not safe for concurrent use, and the pass over the
// stream is inherently sequential: a changeset cannot be committed
// before its parents are.
type Pipeline struct {
	Enabled      []*config.Project
	Allocator    *Allocator
	Commit       *commit.Builder
	Reader       hgsource.Reader
	Writer       gitsink.Writer
	EndRevision  string // "" disables the --end-revision stop
	DumpAll      bool   // --verbose=dump_all: emit otherwise-suppressed empty commits, log skips

	hgToGit     map[string]string
	branchHeads *linkedhashmap.Map // key: project+"\x00"+branch -> *branchHead
	tagRefs     map[string]string  // tag refname -> HG revision currently backing it
	Stats       Stats
	log         func(format string, args ...interface{})
}

// NewPipeline wires a Pipeline. log may be nil to discard diagnostics.
func NewPipeline(enabled []*config.Project, alloc *Allocator, cb *commit.Builder, reader hgsource.Reader, writer gitsink.Writer, log func(string, ...interface{})) *Pipeline {
	if log == nil {
		log = func(string, ...interface{}) {}
	}
	return &Pipeline{
		Enabled: enabled, Allocator: alloc, Commit: cb, Reader: reader, Writer: writer,
		hgToGit: map[string]string{}, branchHeads: linkedhashmap.New(), tagRefs: map[string]string{}, log: log,
	}
}

// Run drives the full revision stream to completion, or until
// EndRevision is reached.
func (pl *Pipeline) Run() error {
	for {
		cs, ok, err := pl.Reader.Next()
		if err != nil {
			return fmt.Errorf("source error: %w", err)
		}
		if !ok {
			return nil
		}
		if err := pl.processChangeset(cs); err != nil {
			return err
		}
		if pl.EndRevision != "" && cs.Revision == pl.EndRevision {
			return nil
		}
	}
}

func (pl *Pipeline) processChangeset(cs *model.Changeset) error {
	project, ok := config.OwnerForBranch(pl.Enabled, cs.Branch)
	if !ok {
		pl.Stats.Skipped++
		pl.log("skip: revision %s on branch %q matches no enabled project", cs.Revision, cs.Branch)
		return nil
	}

	headKey := project.Name + "\x00" + cs.Branch
	var head *branchHead
	if v, found := pl.branchHeads.Get(headKey); found {
		head = v.(*branchHead)
	} else {
		alloc, mapped, err := pl.Allocator.Allocate(project, cs.Branch, config.KindBranch)
		if err != nil {
			return fmt.Errorf("target error: %w", err)
		}
		if !mapped {
			head = &branchHead{}
		} else {
			head = &branchHead{refname: alloc.Refname, revisionRefTemplate: alloc.RevisionRefTemplate}
		}
		pl.branchHeads.Put(headKey, head)
	}

	unmapped := head.refname == ""
	if unmapped {
		pl.Stats.Skipped++
		pl.log("skip: revision %s maps to no refname on branch %q", cs.Revision, cs.Branch)
		// Parent chains still need this revision's identity to resolve
		// for any descendant that references it, but there is no Git
		// commit behind it: record no mapping and move on.
		return pl.processTagDelta(cs, project)
	}

	parents := pl.resolveParents(cs.Parents)
	if len(parents) > 2 {
		parents = parents[:2]
	}

	if commit.IsEmptyChange(cs.Message, cs.Files) && !pl.DumpAll {
		pl.Stats.Suppressed++
		pl.log("suppress: revision %s has no file operations and no message", cs.Revision)
		return pl.processTagDelta(cs, project)
	}

	author := pl.Commit.Identity(cs.Author)
	message := commit.Message(cs.Message, cs.Files, pl.Commit.Decorate, cs.Revision)

	gitID, err := pl.Writer.WriteCommit(parents, author, author, cs.Timestamp, message, cs.Files)
	if err != nil {
		return fmt.Errorf("target error: %w", err)
	}
	pl.hgToGit[cs.Revision] = gitID
	pl.Stats.Committed++

	if err := pl.Writer.UpdateRef(head.refname, gitID); err != nil {
		return fmt.Errorf("target error: %w", err)
	}
	head.lastRevision = cs.Revision
	head.lastCommit = gitID

	if head.revisionRefTemplate != "" {
		revRef := refname.Sanitize(RevisionRef(head.revisionRefTemplate, cs.Revision), project.Replace)
		if !refname.IsValid(revRef) {
			return fmt.Errorf("target error: revision ref %q is invalid", revRef)
		}
		if err := pl.Writer.UpdateRef(revRef, gitID); err != nil {
			return fmt.Errorf("target error: %w", err)
		}
	}

	return pl.processTagDelta(cs, project)
}

// resolveParents maps HG parent revisions to Git commit ids, in order,
// omitting any parent that was skipped or unmapped.
func (pl *Pipeline) resolveParents(hgParents []string) []string {
	var out []string
	for _, p := range hgParents {
		if gitID, ok := pl.hgToGit[p]; ok {
			out = append(out, gitID)
		}
	}
	return out
}

// processTagDelta applies the .hgtags changes a changeset introduces:
// added/retargeted tags are allocated a ref and pointed at the Git
// commit mapped from the tagged HG revision; removed tags delete their
// ref. HG tags are mutable, so a tag that was removed and later
// reappears simply retargets its ref here.
func (pl *Pipeline) processTagDelta(cs *model.Changeset, project *config.Project) error {
	for _, t := range cs.TagDelta {
		alloc, mapped, err := pl.Allocator.Allocate(project, t.Name, config.KindTag)
		if err != nil {
			return fmt.Errorf("target error: %w", err)
		}
		if !mapped {
			continue
		}
		if t.Removed {
			delete(pl.tagRefs, alloc.Refname)
			if err := pl.Writer.DeleteRef(alloc.Refname); err != nil {
				return fmt.Errorf("target error: %w", err)
			}
			continue
		}
		gitID, ok := pl.hgToGit[t.Revision]
		if !ok {
			// The tagged revision was skipped/unmapped; nothing to point at.
			continue
		}
		pl.tagRefs[alloc.Refname] = t.Revision
		if err := pl.Writer.UpdateRef(alloc.Refname, gitID); err != nil {
			return fmt.Errorf("target error: %w", err)
		}
	}
	return nil
}
