package config

import "testing"

const sampleConfig = `
<Projects>
  <Default>
    <Vars><Trunk>default-trunk</Trunk></Vars>
    <Replace Chars="A" With="a"/>
    <MapBranch Branch="default-*" Refname="$Branches/misc/$1"/>
  </Default>
  <Project Name="main" Branch="main;release-*">
    <Vars><Trunk>main-trunk</Trunk></Vars>
    <MapBranch Branch="release-*" Refname="$Branches/releases/$1"/>
    <MapBranch Branch="legacy" />
    <MapTag Tag="v*" Refname="$Tags/$1"/>
  </Project>
  <Project Name="tools" Branch="tools-*" ExplicitOnly="Yes" NeedsProjects="main">
  </Project>
</Projects>
`

func mustResolve(t *testing.T) *Config {
	t.Helper()
	root, err := ParseXML([]byte(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Resolve(root, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestProjectOwnVarsOverrideDefault(t *testing.T) {
	cfg := mustResolve(t)
	p, ok := cfg.ByName("main")
	if !ok {
		t.Fatal("main project missing")
	}
	v, err := p.Vars.Resolve("Trunk")
	if err != nil {
		t.Fatal(err)
	}
	if v != "main-trunk" {
		t.Fatalf("expected project Vars to win over Default, got %q", v)
	}
}

func TestMapBranchOrderingProjectThenDefaultThenHardcoded(t *testing.T) {
	cfg := mustResolve(t)
	p, _ := cfg.ByName("main")
	if len(p.MapBranch) != 4 {
		t.Fatalf("expected 4 MapBranch rules (own 2 + default 1 + hardcoded 1), got %d", len(p.MapBranch))
	}
	if p.MapBranch[0].Pattern.String() != "release-*" {
		t.Fatalf("expected project's own rule first, got %q", p.MapBranch[0].Pattern.String())
	}
	if p.MapBranch[2].Pattern.String() != "default-*" {
		t.Fatalf("expected Default's rule third, got %q", p.MapBranch[2].Pattern.String())
	}
}

func TestExplicitlyUnmappedRuleHasNilRefname(t *testing.T) {
	cfg := mustResolve(t)
	p, _ := cfg.ByName("main")
	if p.MapBranch[1].Refname != nil {
		t.Fatalf("expected the 'legacy' rule to be explicitly unmapped")
	}
}

func TestSelectorEnablesNeedsProjectsEvenWhenExplicitOnly(t *testing.T) {
	cfg := mustResolve(t)
	enabled, err := Select(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, p := range enabled {
		names[p.Name] = true
	}
	if !names["main"] {
		t.Fatal("expected main enabled by default")
	}
	if names["tools"] {
		t.Fatal("tools is ExplicitOnly and should not be enabled with no filters")
	}

	enabled, err = Select(cfg, []string{"tools"})
	if err != nil {
		t.Fatal(err)
	}
	names = map[string]bool{}
	for _, p := range enabled {
		names[p.Name] = true
	}
	if !names["tools"] || !names["main"] {
		t.Fatal("expected tools and its NeedsProjects dependency main both enabled")
	}
}

func TestParseXMLRejectsUnknownElement(t *testing.T) {
	_, err := ParseXML([]byte(`<Projects><Project Name="p"><MapBogus Branch="x"/></Project></Projects>`))
	if err == nil {
		t.Fatal("expected an error for an unknown element")
	}
}

func TestParseXMLRejectsUnknownAttribute(t *testing.T) {
	_, err := ParseXML([]byte(`<Projects><Project Name="p" Colour="red"/></Projects>`))
	if err == nil {
		t.Fatal("expected an error for an unknown attribute")
	}
}

func TestParseXMLRejectsNestedVariableElements(t *testing.T) {
	_, err := ParseXML([]byte(`<Projects><Project Name="p"><Vars><A><B>x</B></A></Vars></Project></Projects>`))
	if err == nil {
		t.Fatal("expected an error for a variable with child elements")
	}
}

func TestEmptyTreeGetsImplicitCatchAllProject(t *testing.T) {
	cfg, err := Resolve(Empty(), Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Projects) != 1 || cfg.Projects[0].Name != "*" {
		t.Fatalf("expected a single implicit project, got %+v", cfg.Projects)
	}
	p := cfg.Projects[0]
	if ok, _ := p.BranchFilter.Match("feature/anything"); !ok {
		t.Fatal("implicit project should claim every branch")
	}
	if len(p.MapBranch) != 1 || p.MapBranch[0].Refname == nil {
		t.Fatalf("expected only the hardcoded catch-all mapping, got %+v", p.MapBranch)
	}
}

func TestDuplicateProjectNamesRejected(t *testing.T) {
	src := `<Projects><Project Name="p"/><Project Name="p"/></Projects>`
	root, err := ParseXML([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(root, Overrides{}); err == nil {
		t.Fatal("expected an error for duplicate project names")
	}
}

func TestOwnerForBranchFirstMatchWins(t *testing.T) {
	cfg := mustResolve(t)
	enabled, _ := Select(cfg, []string{"main", "tools"})
	owner, ok := OwnerForBranch(enabled, "release-2.0")
	if !ok || owner.Name != "main" {
		t.Fatalf("expected main to own release-2.0, got %+v", owner)
	}
}
