package convert

import (
	"testing"

	"github.com/alegrigoriev/hg2git/internal/commit"
	"github.com/alegrigoriev/hg2git/internal/config"
	"github.com/alegrigoriev/hg2git/internal/gitsink"
	"github.com/alegrigoriev/hg2git/internal/glob"
	"github.com/alegrigoriev/hg2git/internal/hgsource"
	"github.com/alegrigoriev/hg2git/internal/model"
	"github.com/alegrigoriev/hg2git/internal/refname"
)

func newPipelineProject(t *testing.T, name string) *config.Project {
	t.Helper()
	p := newTestProject(t, name)
	branchRef := "$Branches/$1"
	tagRef := "$Tags/$1"
	p.MapBranch = []config.MapRule{{Pattern: mustPattern(t, "*"), Refname: &branchRef}}
	p.MapTag = []config.MapRule{{Pattern: mustPattern(t, "*"), Refname: &tagRef}}
	seq, err := glob.CompileSequence("default")
	if err != nil {
		t.Fatal(err)
	}
	p.BranchFilter = seq
	return p
}

func date(t *testing.T, unix int64) model.Date {
	t.Helper()
	d, err := model.NewDateFromUnix(unix, "+0000")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestPipelineLinearHistory(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "Alice <alice@example.com>", Timestamp: date(t, 1000), Message: "first"},
		{Revision: "r2", Parents: []string{"r1"}, Branch: "default", Author: "Alice <alice@example.com>", Timestamp: date(t, 2000), Message: "second",
			Files: []model.FileOp{{Kind: model.OpAdd, Path: "a.txt"}}},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pl.Stats.Committed != 2 {
		t.Fatalf("expected 2 commits, got %d", pl.Stats.Committed)
	}
	if len(writer.Commits) != 2 {
		t.Fatalf("expected 2 writer commits, got %d", len(writer.Commits))
	}
	if len(writer.Commits[1].Parents) != 1 {
		t.Fatalf("expected second commit to have 1 parent, got %v", writer.Commits[1].Parents)
	}
	head, ok := writer.Refs["refs/heads/default"]
	if !ok {
		t.Fatal("expected refs/heads/default to be updated")
	}
	if head != "commit-2" {
		t.Fatalf("expected head at commit-2, got %q", head)
	}
}

func TestPipelineUnmappedParentDemotesMerge(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: "first"},
		// r2 is on a branch with no configured owner: it is skipped, and
		// never enters the HG-to-Git map.
		{Revision: "r2", Branch: "nobody", Author: "a", Timestamp: date(t, 1500), Message: "orphan"},
		{Revision: "r3", Parents: []string{"r1", "r2"}, Branch: "default", Author: "a", Timestamp: date(t, 2000), Message: "merge"},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pl.Stats.Skipped != 1 {
		t.Fatalf("expected 1 skip, got %d", pl.Stats.Skipped)
	}
	last := writer.Commits[len(writer.Commits)-1]
	if len(last.Parents) != 1 {
		t.Fatalf("expected merge to demote to 1 resolvable parent, got %v", last.Parents)
	}
}

func TestPipelineSuppressesEmptyChangeByDefault(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: ""},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pl.Stats.Suppressed != 1 {
		t.Fatalf("expected 1 suppressed change, got %d", pl.Stats.Suppressed)
	}
	if len(writer.Commits) != 0 {
		t.Fatalf("expected no commits written, got %d", len(writer.Commits))
	}
}

func TestPipelineDumpAllEmitsEmptyChange(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: ""},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)
	pl.DumpAll = true

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(writer.Commits) != 1 {
		t.Fatalf("expected 1 commit under dump_all, got %d", len(writer.Commits))
	}
}

func TestPipelineEndRevisionStopsEarly(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: "first"},
		{Revision: "r2", Parents: []string{"r1"}, Branch: "default", Author: "a", Timestamp: date(t, 2000), Message: "second"},
		{Revision: "r3", Parents: []string{"r2"}, Branch: "default", Author: "a", Timestamp: date(t, 3000), Message: "third"},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)
	pl.EndRevision = "r2"

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pl.Stats.Committed != 2 {
		t.Fatalf("expected 2 commits before stopping at r2, got %d", pl.Stats.Committed)
	}
}

func TestPipelineTagAllocationAndRemoval(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: "first",
			TagDelta: []model.TagChange{{Name: "v1.0", Revision: "r1"}}},
		{Revision: "r2", Parents: []string{"r1"}, Branch: "default", Author: "a", Timestamp: date(t, 2000), Message: "second",
			TagDelta: []model.TagChange{{Name: "v1.0", Removed: true}}},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)

	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := writer.Refs["refs/tags/v1.0"]; ok {
		t.Fatal("expected refs/tags/v1.0 to be deleted after removal")
	}
}

func TestPipelineAllocatedRevisionRefIsValid(t *testing.T) {
	proj := newPipelineProject(t, "main")
	reg := NewRefRegistry()
	alloc := NewAllocator(reg)
	cb := &commit.Builder{}
	reader := hgsource.NewMemory([]*model.Changeset{
		{Revision: "r1", Branch: "default", Author: "a", Timestamp: date(t, 1000), Message: "first"},
	})
	writer := gitsink.NewMemory()
	pl := NewPipeline([]*config.Project{proj}, alloc, cb, reader, writer, nil)
	if err := pl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for ref := range writer.Refs {
		if !refname.IsValid(ref) {
			t.Fatalf("allocated ref %q is not a valid refname", ref)
		}
	}
}
