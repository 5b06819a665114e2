package config

import (
	"strings"

	"github.com/alegrigoriev/hg2git/internal/glob"
)

// filterEntry is one compiled --project token.
type filterEntry struct {
	pattern  *glob.Pattern
	negative bool
}

// parseFilters splits the comma-separable, repeatable --project option
// into its entries, honoring a leading '!' per entry.
func parseFilters(raw []string) ([]filterEntry, error) {
	var out []filterEntry
	for _, group := range raw {
		for _, tok := range strings.Split(group, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			neg := strings.HasPrefix(tok, "!")
			if neg {
				tok = tok[1:]
			}
			pat, err := glob.Compile(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, filterEntry{pattern: pat, negative: neg})
		}
	}
	return out, nil
}

// Select applies the --project filters to cfg's projects: a project is
// enabled when at least one positive filter
// matches its name and no negative filter matches; with no positive
// filters given, every project with ExplicitOnly == false is enabled.
// NeedsProjects dependencies are then force-enabled transitively even
// when they were excluded.
func Select(cfg *Config, projectFilters []string) ([]*Project, error) {
	filters, err := parseFilters(projectFilters)
	if err != nil {
		return nil, err
	}
	hasPositive := false
	for _, f := range filters {
		if !f.negative {
			hasPositive = true
			break
		}
	}

	enabled := map[string]bool{}
	for _, p := range cfg.Projects {
		if matchesAny(filters, p.Name, false) {
			continue // a matching negative filter excludes regardless of positives
		}
		if hasPositive {
			if matchesAny(filters, p.Name, true) {
				enabled[p.Name] = true
			}
		} else if !p.ExplicitOnly {
			enabled[p.Name] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for name := range enabled {
			p, _ := cfg.ByName(name)
			for _, dep := range p.NeedsProjects {
				if !enabled[dep] {
					enabled[dep] = true
					changed = true
				}
			}
		}
	}

	var out []*Project
	for _, p := range cfg.Projects {
		if enabled[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchesAny(filters []filterEntry, name string, positive bool) bool {
	for _, f := range filters {
		if f.negative == !positive {
			if ok, _ := f.pattern.Match(name); ok {
				return true
			}
		}
	}
	return false
}

// OwnerForBranch returns the first enabled project (in configuration
// order) whose Branch filter matches branch; overlapping filters
// resolve in favor of whichever project comes first in the file.
func OwnerForBranch(enabled []*Project, branch string) (*Project, bool) {
	for _, p := range enabled {
		if ok, _ := p.BranchFilter.Match(branch); ok {
			return p, true
		}
	}
	return nil, false
}
