package config

import (
	"github.com/alegrigoriev/hg2git/internal/glob"
	"github.com/alegrigoriev/hg2git/internal/refname"
	"github.com/alegrigoriev/hg2git/internal/vars"
)

// Kind distinguishes a branch mapping rule from a tag mapping rule.
type Kind int

const (
	KindBranch Kind = iota
	KindTag
)

// MapRule is one resolved MapBranch/MapTag entry: a compiled source
// pattern plus the (possibly absent) refname and revision-ref templates.
// A nil Refname means "explicitly unmapped": the name matched a rule
// that deliberately produces no Git ref.
type MapRule struct {
	Pattern     *glob.Pattern
	Refname     *string
	RevisionRef *string
}

// Project is a fully resolved project. Its fields are not reassigned
// after Resolve returns; the ref allocator does bind $rev in Vars.
type Project struct {
	Name                   string
	BranchFilter           *glob.Sequence
	Vars                   *vars.Environment
	Replace                []refname.Replace
	MapBranch              []MapRule
	MapTag                 []MapRule
	InheritDefault         bool
	InheritDefaultMappings bool
	ExplicitOnly           bool
	NeedsProjects          []string
}

// Config is the fully resolved configuration tree: one Project per XML
// Project element, in file order.
type Config struct {
	Projects []*Project
}

// ByName looks up a resolved project by name.
func (c *Config) ByName(name string) (*Project, bool) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
