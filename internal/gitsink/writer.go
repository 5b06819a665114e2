// Package gitsink defines the narrow interface the revision pipeline
// needs from a Git object writer. Actually writing blobs/trees/commits
// and updating refs in a real Git object database is left to the
// embedding caller; this package only states the contract and, for
// tests, a fixture that satisfies it.
package gitsink

import (
	"strconv"

	"github.com/alegrigoriev/hg2git/internal/model"
)

// Writer persists commits and updates refs in the target repository.
// Tree construction from the file list is delegated entirely to the
// implementation.
type Writer interface {
	// WriteCommit creates a commit object from the given parents and
	// file state, returning its object id.
	WriteCommit(parents []string, author, committer model.Attribution, when model.Date, message string, files []model.FileOp) (commitID string, err error)
	UpdateRef(ref, commitID string) error
	DeleteRef(ref string) error
}

// commitRecord is one commit as seen by Memory, kept for assertions in
// tests built on top of it.
type commitRecord struct {
	Parents   []string
	Author    model.Attribution
	Committer model.Attribution
	When      model.Date
	Message   string
	Files     []model.FileOp
}

// Memory is an in-memory Writer used by tests: it assigns sequential
// commit ids and tracks ref state without touching a real repository.
type Memory struct {
	Commits []commitRecord
	Refs    map[string]string
	counter int
}

// NewMemory builds an empty Memory writer.
func NewMemory() *Memory {
	return &Memory{Refs: map[string]string{}}
}

func (m *Memory) WriteCommit(parents []string, author, committer model.Attribution, when model.Date, message string, files []model.FileOp) (string, error) {
	m.counter++
	id := "commit-" + strconv.Itoa(m.counter)
	m.Commits = append(m.Commits, commitRecord{
		Parents: append([]string(nil), parents...), Author: author, Committer: committer,
		When: when, Message: message, Files: append([]model.FileOp(nil), files...),
	})
	return id, nil
}

func (m *Memory) UpdateRef(ref, commitID string) error {
	m.Refs[ref] = commitID
	return nil
}

func (m *Memory) DeleteRef(ref string) error {
	delete(m.Refs, ref)
	return nil
}
