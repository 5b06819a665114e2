package convert

import (
	"fmt"
	"strings"

	"github.com/alegrigoriev/hg2git/internal/config"
	"github.com/alegrigoriev/hg2git/internal/refname"
)

// Allocator maps (project, source name) pairs to unique Git refnames.
type Allocator struct {
	registry *RefRegistry
}

// NewAllocator creates an Allocator backed by registry.
func NewAllocator(registry *RefRegistry) *Allocator {
	return &Allocator{registry: registry}
}

// Allocation is the result of a successful Allocate call.
type Allocation struct {
	Refname string
	// RevisionRefTemplate has every capture and variable reference
	// already substituted except a single sentinel standing in for
	// $rev, which RevisionRef replaces per-commit. "" for tag
	// allocations, which have no revision ref.
	RevisionRefTemplate string
}

// revSentinel stands in for $rev during allocation-time substitution: a
// branch head's captures and variables are stable for its whole
// lifetime, but $rev is only known once a specific HG revision is being
// committed, so it is resolved later with a single string replacement
// instead of a second pass through the variable environment.
const revSentinel = "\x00REV\x00"

// Allocate finds the first matching MapBranch/MapTag rule for
// sourceName, substitutes its Refname template, sanitizes it, and
// claims a unique name in the registry. ok is false (with no error) when
// the matching rule explicitly leaves the name unmapped.
func (a *Allocator) Allocate(p *config.Project, sourceName string, kind config.Kind) (Allocation, bool, error) {
	rules := p.MapBranch
	if kind == config.KindTag {
		rules = p.MapTag
	}
	for _, rule := range rules {
		ok, captures := rule.Pattern.Match(sourceName)
		if !ok {
			continue
		}
		if rule.Refname == nil {
			return Allocation{}, false, nil
		}
		raw, err := p.Vars.Substitute(*rule.Refname, captures, false)
		if err != nil {
			return Allocation{}, false, fmt.Errorf("refname template %q: %w", *rule.Refname, err)
		}
		sanitized := refname.Sanitize(raw, p.Replace)
		if !refname.IsValid(sanitized) {
			return Allocation{}, false, fmt.Errorf("refname %q sanitizes to invalid %q", raw, sanitized)
		}
		claimed := a.registry.Claim(sanitized, p.Name, sourceName)

		tmpl := ""
		if kind == config.KindBranch {
			tmpl, err = a.revisionRefTemplate(rule, p, captures, claimed)
			if err != nil {
				return Allocation{}, false, err
			}
		}
		return Allocation{Refname: claimed, RevisionRefTemplate: tmpl}, true, nil
	}
	return Allocation{}, false, nil
}

// revisionRefTemplate resolves a MapBranch rule's RevisionRef template
// (if present), or else the default "refs/revisions/<branch>/r$rev"
// form, where <branch> is the allocated refname with its $Branches
// prefix stripped. Everything but $rev is substituted immediately, since
// captures and variables are fixed for the branch head's lifetime.
func (a *Allocator) revisionRefTemplate(rule config.MapRule, p *config.Project, captures []string, allocatedRef string) (string, error) {
	p.Vars.Define("rev", revSentinel)
	if rule.RevisionRef != nil {
		return p.Vars.Substitute(*rule.RevisionRef, captures, false)
	}
	branchesPrefix, err := p.Vars.Resolve("Branches")
	if err != nil {
		return "", err
	}
	branch := strings.TrimPrefix(allocatedRef, branchesPrefix)
	branch = strings.TrimPrefix(branch, "refs/heads/")
	return "refs/revisions/" + branch + "/r" + revSentinel, nil
}

// RevisionRef substitutes a revision-ref template (from Allocation) with
// the HG revision number, binding $rev. "" in means no revision ref
// applies (a tag allocation, or an unmapped name).
func RevisionRef(tmpl string, rev string) string {
	if tmpl == "" {
		return ""
	}
	return strings.ReplaceAll(tmpl, revSentinel, rev)
}
