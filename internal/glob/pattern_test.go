package glob

import (
	"reflect"
	"testing"
)

func assertTrue(t *testing.T, see bool) {
	t.Helper()
	if !see {
		t.Fatalf("expected true")
	}
}

func assertFalse(t *testing.T, see bool) {
	t.Helper()
	if see {
		t.Fatalf("expected false")
	}
}

func TestAlternationWithCaptures(t *testing.T) {
	p, err := Compile("releases/{1.0,2.0}/hotfix-*")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := p.Match("releases/2.0/hotfix-abc")
	assertTrue(t, ok)
	if !reflect.DeepEqual(captures, []string{"2.0", "abc"}) {
		t.Fatalf("unexpected captures: %#v", captures)
	}
}

func TestUnanchoredMatchesAnyComponent(t *testing.T) {
	p, err := Compile("feature-*")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := p.Match("team/feature-xyz")
	assertTrue(t, ok)
	if captures[0] != "xyz" {
		t.Fatalf("unexpected capture %q", captures[0])
	}
}

func TestDoubleStarCrossesSlashes(t *testing.T) {
	p, err := Compile("a/**/z")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := p.Match("a/b/c/z")
	assertTrue(t, ok)
	if captures[0] != "b/c" {
		t.Fatalf("unexpected capture %q", captures[0])
	}
}

func TestRangesRejected(t *testing.T) {
	_, err := Compile("rel-[0-9]")
	if err == nil {
		t.Fatal("expected an error for range syntax")
	}
}

func TestNestedAlternationSingleCapture(t *testing.T) {
	p, err := Compile("{a,{b,c}}-*")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := p.Match("b-1")
	assertTrue(t, ok)
	if len(captures) != 2 || captures[0] != "b" || captures[1] != "1" {
		t.Fatalf("unexpected captures: %#v", captures)
	}
}

func TestSequenceNegationScenario(t *testing.T) {
	seq, err := CompileSequence("main;!main-stale")
	if err != nil {
		t.Fatal(err)
	}
	ok, _ := seq.Match("main-stale")
	assertFalse(t, ok)
	ok, _ = seq.Match("main")
	assertTrue(t, ok)
}

func TestSequenceAllNegativeFallsThrough(t *testing.T) {
	seq, err := CompileSequence("!archived-*")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := seq.Match("develop")
	assertTrue(t, ok)
	if len(captures) != 0 {
		t.Fatalf("expected no captures, got %#v", captures)
	}
	ok, _ = seq.Match("archived-old")
	assertFalse(t, ok)
}

func TestStarIsZeroOrMoreEmbedded(t *testing.T) {
	p, err := Compile("rel-*-final")
	if err != nil {
		t.Fatal(err)
	}
	ok, captures := p.Match("rel--final")
	assertTrue(t, ok)
	if captures[0] != "" {
		t.Fatalf("expected empty capture, got %q", captures[0])
	}
}

func TestWholeSegmentStarRequiresOneChar(t *testing.T) {
	p, err := Compile("team/*")
	if err != nil {
		t.Fatal(err)
	}
	ok, _ := p.Match("team/")
	assertFalse(t, ok)
	ok, captures := p.Match("team/x")
	assertTrue(t, ok)
	if captures[0] != "x" {
		t.Fatalf("unexpected capture %q", captures[0])
	}
}
