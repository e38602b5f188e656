package diff_test

import (
	"strings"
	"testing"

	"github.com/c360studio/ontosync/diff"
	"github.com/c360studio/ontosync/rdf"
)

func graphOf(t *testing.T, triples ...rdf.Triple) *rdf.Graph {
	t.Helper()
	g := rdf.NewGraph()
	for _, tr := range triples {
		if err := g.Add(tr); err != nil {
			t.Fatalf("Add(%s) failed: %v", tr, err)
		}
	}
	return g
}

func labelTriple(subject, label string) rdf.Triple {
	return rdf.Triple{
		Subject:   rdf.NewIRI("http://example.org/" + subject),
		Predicate: rdf.RDFSLabel,
		Object:    rdf.NewLiteral(label),
	}
}

func TestCompareEqualGraphs(t *testing.T) {
	a := graphOf(t, labelTriple("x", "X"), labelTriple("y", "Y"))
	b := graphOf(t, labelTriple("y", "Y"), labelTriple("x", "X"))

	r := diff.Compare(a, b)
	if !r.Equal() {
		t.Errorf("Equal() = false for identical graphs: +%v -%v", r.Added, r.Removed)
	}
	if r.Delta != 0 {
		t.Errorf("Delta = %d, want 0", r.Delta)
	}
}

func TestCompareGroundDifference(t *testing.T) {
	a := graphOf(t, labelTriple("x", "X"), labelTriple("extra", "E"))
	b := graphOf(t, labelTriple("x", "X"), labelTriple("other", "O"))

	r := diff.Compare(a, b)
	if len(r.Added) != 1 || r.Added[0] != labelTriple("extra", "E") {
		t.Errorf("Added = %v, want the statement only in the first graph", r.Added)
	}
	if len(r.Removed) != 1 || r.Removed[0] != labelTriple("other", "O") {
		t.Errorf("Removed = %v, want the statement only in the second graph", r.Removed)
	}
	if r.Delta != 0 {
		t.Errorf("Delta = %d, want 0", r.Delta)
	}
}

func TestCompareAgainstEmpty(t *testing.T) {
	a := graphOf(t, labelTriple("x", "X"))
	b := rdf.NewGraph()

	r := diff.Compare(a, b)
	if len(r.Added) != 1 || len(r.Removed) != 0 {
		t.Errorf("got +%d -%d, want +1 -0", len(r.Added), len(r.Removed))
	}
	if r.Delta != 1 {
		t.Errorf("Delta = %d, want +1", r.Delta)
	}
}

func TestCompareSymmetry(t *testing.T) {
	a := graphOf(t, labelTriple("x", "X"), labelTriple("only-a", "A"))
	b := graphOf(t, labelTriple("x", "X"), labelTriple("only-b", "B"))

	fwd := diff.Compare(a, b)
	rev := diff.Compare(b, a)
	if len(fwd.Added) != len(rev.Removed) || len(fwd.Removed) != len(rev.Added) {
		t.Fatalf("asymmetric reports: fwd +%d -%d, rev +%d -%d",
			len(fwd.Added), len(fwd.Removed), len(rev.Added), len(rev.Removed))
	}
	for i := range fwd.Added {
		if fwd.Added[i] != rev.Removed[i] {
			t.Errorf("Added[%d] = %s, reverse Removed[%d] = %s", i, fwd.Added[i], i, rev.Removed[i])
		}
	}
	if fwd.Delta != -rev.Delta {
		t.Errorf("Delta = %d, reverse Delta = %d", fwd.Delta, rev.Delta)
	}
}

func TestCompareMatchesBlankNodesStructurally(t *testing.T) {
	build := func(label string) *rdf.Graph {
		return graphOf(t,
			rdf.Triple{
				Subject:   rdf.NewIRI("http://example.org/C"),
				Predicate: rdf.RDFSSubClass,
				Object:    rdf.NewBlank(label),
			},
			rdf.Triple{
				Subject:   rdf.NewBlank(label),
				Predicate: rdf.RDFType,
				Object:    rdf.NewIRI("http://www.w3.org/2002/07/owl#Restriction"),
			},
		)
	}
	r := diff.Compare(build("b1"), build("genid99"))
	if !r.Equal() {
		t.Errorf("graphs differing only in blank labels should compare equal: +%v -%v", r.Added, r.Removed)
	}
}

func TestCompareDetectsBlankStructureChange(t *testing.T) {
	a := graphOf(t,
		rdf.Triple{
			Subject:   rdf.NewBlank("n"),
			Predicate: rdf.NewIRI("http://example.org/value"),
			Object:    rdf.NewLiteral("one"),
		},
	)
	b := graphOf(t,
		rdf.Triple{
			Subject:   rdf.NewBlank("n"),
			Predicate: rdf.NewIRI("http://example.org/value"),
			Object:    rdf.NewLiteral("two"),
		},
	)
	r := diff.Compare(a, b)
	if r.Equal() {
		t.Error("blank nodes with different neighborhoods compared equal")
	}
}

func TestCompareCountsInterchangeableBlankNodes(t *testing.T) {
	value := func(label string) rdf.Triple {
		return rdf.Triple{
			Subject:   rdf.NewBlank(label),
			Predicate: rdf.NewIRI("http://example.org/value"),
			Object:    rdf.NewLiteral("same"),
		}
	}
	// Two blank nodes with identical neighborhoods share one canonical
	// key; the pair must still not compare equal to a single node.
	two := graphOf(t, value("a"), value("b"))
	one := graphOf(t, value("c"))

	r := diff.Compare(two, one)
	if r.Equal() {
		t.Fatal("two interchangeable blank statements compared equal to one")
	}
	if len(r.Added) != 1 || len(r.Removed) != 0 {
		t.Errorf("got +%d -%d, want +1 -0: +%v -%v", len(r.Added), len(r.Removed), r.Added, r.Removed)
	}
	if r.Delta != 1 {
		t.Errorf("Delta = %d, want +1", r.Delta)
	}

	rev := diff.Compare(one, two)
	if len(rev.Added) != 0 || len(rev.Removed) != 1 {
		t.Errorf("reverse got +%d -%d, want +0 -1", len(rev.Added), len(rev.Removed))
	}
}

func TestRender(t *testing.T) {
	a := graphOf(t, labelTriple("x", "X"))
	b := graphOf(t, labelTriple("y", "Y"))
	r := diff.Compare(a, b)

	var buf strings.Builder
	if err := r.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "+ "+labelTriple("x", "X").NTriples()) {
		t.Errorf("missing added line in:\n%s", out)
	}
	if !strings.Contains(out, "- "+labelTriple("y", "Y").NTriples()) {
		t.Errorf("missing removed line in:\n%s", out)
	}
	if !strings.Contains(out, "1 added, 1 removed, statement count delta +0") {
		t.Errorf("missing summary line in:\n%s", out)
	}
}
