// Package hgsource defines the narrow interface the revision pipeline
// needs from an HG repository reader. Walking an actual Mercurial store
// is left to the embedding caller; this package only states the
// contract and, for tests, a fixture that satisfies it.
package hgsource

import "github.com/alegrigoriev/hg2git/internal/model"

// Reader yields changesets in topological order consistent with their
// parent references.
type Reader interface {
	// Next returns the next changeset, or ok == false once the stream
	// is exhausted.
	Next() (cs *model.Changeset, ok bool, err error)
}

// Memory is an in-order, in-memory Reader used by tests to exercise the
// pipeline without a real Mercurial checkout.
type Memory struct {
	changesets []*model.Changeset
	pos        int
}

// NewMemory builds a Memory reader over changesets, which must already
// be in topological order.
func NewMemory(changesets []*model.Changeset) *Memory {
	return &Memory{changesets: changesets}
}

func (m *Memory) Next() (*model.Changeset, bool, error) {
	if m.pos >= len(m.changesets) {
		return nil, false, nil
	}
	cs := m.changesets[m.pos]
	m.pos++
	return cs, true, nil
}
