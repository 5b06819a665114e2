package config

import (
	"fmt"
	"strings"

	"github.com/alegrigoriev/hg2git/internal/glob"
	"github.com/alegrigoriev/hg2git/internal/refname"
	"github.com/alegrigoriev/hg2git/internal/vars"
)

// Overrides carries the CLI options that influence resolution:
// --branches, --tags, --no-default-config.
type Overrides struct {
	Branches        string
	Tags            string
	NoDefaultConfig bool
}

// Resolve walks the raw XML tree into a Config, layering hardcoded
// seeds, then the Default section, then each Project's own rules. A
// tree with no Project children (no --config at all, or one holding
// only a Default) gets a single implicit project named "*" that claims
// every branch, so a bare run still converts the whole repository.
func Resolve(root *xmlRoot, overrides Overrides) (*Config, error) {
	branchesSeed := "refs/heads/"
	if overrides.Branches != "" {
		branchesSeed = overrides.Branches
	}
	tagsSeed := "refs/tags/"
	if overrides.Tags != "" {
		tagsSeed = overrides.Tags
	}

	projects := root.Project
	if len(projects) == 0 {
		projects = []*xmlProject{{Name: "*"}}
	}

	seen := map[string]bool{}
	cfg := &Config{}
	for _, xp := range projects {
		if seen[xp.Name] {
			return nil, fmt.Errorf("config: duplicate project name %q", xp.Name)
		}
		seen[xp.Name] = true

		var def *xmlProject
		if !overrides.NoDefaultConfig {
			def = root.Default
		}
		p, err := resolveProject(xp, def, branchesSeed, tagsSeed)
		if err != nil {
			return nil, fmt.Errorf("config: project %q: %w", xp.Name, err)
		}
		cfg.Projects = append(cfg.Projects, p)
	}

	for _, p := range cfg.Projects {
		for _, dep := range p.NeedsProjects {
			if _, ok := cfg.ByName(dep); !ok {
				return nil, fmt.Errorf("config: project %q needs undefined project %q", p.Name, dep)
			}
		}
	}
	return cfg, nil
}

func resolveProject(xp *xmlProject, def *xmlProject, branchesSeed, tagsSeed string) (*Project, error) {
	p := &Project{Name: xp.Name}
	p.InheritDefault = yesNo(xp.InheritDefault, true)
	p.InheritDefaultMappings = yesNo(xp.InheritDefaultMappings, true)
	p.ExplicitOnly = yesNo(xp.ExplicitOnly, false)
	p.NeedsProjects = splitCommaList(xp.NeedsProjects)

	env := vars.New()
	// Step 1: hardcoded seeds, always present regardless of InheritDefault.
	env.Define("Branches", branchesSeed)
	env.Define("Tags", tagsSeed)

	// Default's Vars are defined first so the project's own Vars
	// (defined after) win on name collision.
	if p.InheritDefault && def != nil {
		defineVars(env, def.Vars)
	}
	defineVars(env, xp.Vars)

	// Force resolution of every defined name so a cycle is caught
	// during configuration resolution, not deep inside the revision
	// pipeline.
	for name := range allVarNames(def, xp, p.InheritDefault) {
		if _, err := env.Resolve(name); err != nil {
			return nil, err
		}
	}
	p.Vars = env

	// Replace rules: hardcoded (empty), then Default's, then the
	// project's own.
	if p.InheritDefault && def != nil {
		p.Replace = append(p.Replace, convertReplace(def.Replace)...)
	}
	p.Replace = append(p.Replace, convertReplace(xp.Replace)...)

	// MapBranch/MapTag merge in the opposite order from Vars/Replace:
	// the project's own rules first, Default's next, the hardcoded
	// catch-all last, so first-match favors the most specific tier.
	mapBranch, err := buildMapBranch(xp.MapBranch, env)
	if err != nil {
		return nil, err
	}
	p.MapBranch = mapBranch
	if p.InheritDefaultMappings {
		if def != nil {
			defMapBranch, err := buildMapBranch(def.MapBranch, env)
			if err != nil {
				return nil, err
			}
			p.MapBranch = append(p.MapBranch, defMapBranch...)
		}
		hardcoded, err := hardcodedMapBranch()
		if err != nil {
			return nil, err
		}
		p.MapBranch = append(p.MapBranch, hardcoded...)
	}

	mapTag, err := buildMapTag(xp.MapTag, env)
	if err != nil {
		return nil, err
	}
	p.MapTag = mapTag
	if p.InheritDefaultMappings {
		if def != nil {
			defMapTag, err := buildMapTag(def.MapTag, env)
			if err != nil {
				return nil, err
			}
			p.MapTag = append(p.MapTag, defMapTag...)
		}
		hardcoded, err := hardcodedMapTag()
		if err != nil {
			return nil, err
		}
		p.MapTag = append(p.MapTag, hardcoded...)
	}

	branchSrc := xp.Branch
	if branchSrc == "" {
		branchSrc = "*"
	}
	branchSrc, err = env.Substitute(branchSrc, nil, true)
	if err != nil {
		return nil, fmt.Errorf("branch filter: %w", err)
	}
	seq, err := glob.CompileSequence(branchSrc)
	if err != nil {
		return nil, fmt.Errorf("branch filter: %w", err)
	}
	p.BranchFilter = seq

	return p, nil
}

func yesNo(attr string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(attr)) {
	case "":
		return def
	case "no", "false":
		return false
	default:
		return true
	}
}

func splitCommaList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defineVars(env *vars.Environment, xv *xmlVars) {
	if xv == nil {
		return
	}
	for _, entry := range xv.Entries {
		env.Define(entry.XMLName.Local, entry.Value)
	}
}

func allVarNames(def, xp *xmlProject, inheritDefault bool) map[string]bool {
	names := map[string]bool{"Branches": true, "Tags": true}
	if inheritDefault && def != nil && def.Vars != nil {
		for _, e := range def.Vars.Entries {
			names[e.XMLName.Local] = true
		}
	}
	if xp.Vars != nil {
		for _, e := range xp.Vars.Entries {
			names[e.XMLName.Local] = true
		}
	}
	return names
}

func convertReplace(rules []xmlReplace) []refname.Replace {
	out := make([]refname.Replace, 0, len(rules))
	for _, r := range rules {
		out = append(out, refname.Replace{Chars: r.Chars, With: r.With})
	}
	return out
}

// buildMapBranch compiles each rule's source pattern after resolving
// any variable reference it contains in pattern context (a variable
// whose value is a semicolon-separated list expands to a brace
// alternation here, e.g. Branch="$Trunk"), so a MapBranch rule can
// itself be written in terms of project Vars.
func buildMapBranch(rules []xmlMapBranch, env *vars.Environment) ([]MapRule, error) {
	out := make([]MapRule, 0, len(rules))
	for _, r := range rules {
		src, err := env.Substitute(r.Branch, nil, true)
		if err != nil {
			return nil, fmt.Errorf("MapBranch %q: %w", r.Branch, err)
		}
		pat, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("MapBranch %q: %w", r.Branch, err)
		}
		out = append(out, MapRule{Pattern: pat, Refname: r.Refname, RevisionRef: r.RevisionRef})
	}
	return out, nil
}

func buildMapTag(rules []xmlMapTag, env *vars.Environment) ([]MapRule, error) {
	out := make([]MapRule, 0, len(rules))
	for _, r := range rules {
		src, err := env.Substitute(r.Tag, nil, true)
		if err != nil {
			return nil, fmt.Errorf("MapTag %q: %w", r.Tag, err)
		}
		pat, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("MapTag %q: %w", r.Tag, err)
		}
		out = append(out, MapRule{Pattern: pat, Refname: r.Refname})
	}
	return out, nil
}

// hardcodedMapBranch and hardcodedMapTag are the implicit catch-all map
// rules every project falls back to when InheritDefaultMappings has not
// suppressed them: any branch/tag name maps under the $Branches/$Tags
// namespace unchanged. The pattern must be "**", not "*": a plain
// "*" is a single, non-slash-crossing path component (glob.Pattern.Match
// can only match it against one "/"-separated component of the
// candidate), so a branch like "feature/a" would only ever capture
// "feature" and silently drop the rest of the name, whereas "**" matches
// the whole candidate first.
func hardcodedMapBranch() ([]MapRule, error) {
	pat, err := glob.Compile("**")
	if err != nil {
		return nil, err
	}
	ref := "$Branches/$1"
	return []MapRule{{Pattern: pat, Refname: &ref}}, nil
}

func hardcodedMapTag() ([]MapRule, error) {
	pat, err := glob.Compile("**")
	if err != nil {
		return nil, err
	}
	ref := "$Tags/$1"
	return []MapRule{{Pattern: pat, Refname: &ref}}, nil
}
