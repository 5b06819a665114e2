// Package convert implements the ref allocator and the revision
// pipeline: the part of the engine that actually drives changesets into
// Git commits and ref updates.
package convert

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// owner identifies who claimed a refname, for diagnostics and for
// collision lookups.
type owner struct {
	project string
	source  string
}

// RefRegistry maps claimed Git refnames to their owning (project,
// source-name) pair, resolving collisions with a "__<N>" suffix. It
// uses an insertion-ordered map so Refnames reports claims in the order
// refs were actually allocated, not in Go's unspecified map iteration
// order.
type RefRegistry struct {
	claims *linkedhashmap.Map
}

// NewRefRegistry creates an empty registry.
func NewRefRegistry() *RefRegistry {
	return &RefRegistry{claims: linkedhashmap.New()}
}

// Claim reserves a refname for (project, source), returning the actual
// name used: proposed itself if free, otherwise proposed with an
// increasing "__1", "__2", ... suffix until one is unused. Once claimed,
// a (project, source) pair always gets back the same refname for the
// remainder of the run.
func (r *RefRegistry) Claim(proposed, project, source string) string {
	if existing, ok := r.existingClaim(project, source); ok {
		return existing
	}
	name := proposed
	for i := 1; ; i++ {
		if _, found := r.claims.Get(name); !found {
			r.claims.Put(name, owner{project: project, source: source})
			return name
		}
		name = fmt.Sprintf("%s__%d", proposed, i)
	}
}

func (r *RefRegistry) existingClaim(project, source string) (string, bool) {
	for _, key := range r.claims.Keys() {
		o := mustOwner(r.claims, key)
		if o.project == project && o.source == source {
			return key.(string), true
		}
	}
	return "", false
}

func mustOwner(m *linkedhashmap.Map, key interface{}) owner {
	v, _ := m.Get(key)
	return v.(owner)
}

// Refnames returns every claimed refname in allocation order.
func (r *RefRegistry) Refnames() []string {
	out := make([]string, 0, r.claims.Size())
	for _, k := range r.claims.Keys() {
		out = append(out, k.(string))
	}
	return out
}
