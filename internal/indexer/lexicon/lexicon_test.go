package lexicon

import (
	"reflect"
	"testing"
)

func TestInternStable(t *testing.T) {
	l := New()
	a := l.Intern("quake")
	b := l.Intern("quake")
	if a != b {
		t.Fatalf("same term got IDs %d and %d", a, b)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestInternFirstSeenOrder(t *testing.T) {
	l := New()
	terms := []string{"los", "angeles", "times", "los", "quake", "times"}
	got := l.InternAll(terms)
	want := []TermID{0, 1, 2, 0, 3, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("InternAll = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(l.Terms(), []string{"los", "angeles", "times", "quake"}) {
		t.Errorf("Terms = %q", l.Terms())
	}
	for id, term := range l.Terms() {
		back, ok := l.Lookup(term)
		if !ok || back != TermID(id) {
			t.Errorf("Lookup(%q) = %d,%v want %d", term, back, ok, id)
		}
		fwd, ok := l.Term(TermID(id))
		if !ok || fwd != term {
			t.Errorf("Term(%d) = %q,%v want %q", id, fwd, ok, term)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	l := New()
	l.Intern("a")
	if _, ok := l.Lookup("b"); ok {
		t.Error("Lookup of unseen term succeeded")
	}
	if _, ok := l.Term(5); ok {
		t.Error("Term of out-of-range ID succeeded")
	}
	if _, ok := l.Term(-1); ok {
		t.Error("Term of negative ID succeeded")
	}
}

func TestFromTermsRoundTrip(t *testing.T) {
	orig := New()
	orig.InternAll([]string{"x", "y", "z"})
	rebuilt := FromTerms(orig.Terms())
	if !reflect.DeepEqual(rebuilt.Terms(), orig.Terms()) {
		t.Errorf("rebuilt %q, want %q", rebuilt.Terms(), orig.Terms())
	}
	if id, _ := rebuilt.Lookup("z"); id != 2 {
		t.Errorf("Lookup(z) = %d, want 2", id)
	}
}
