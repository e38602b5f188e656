package turtle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/c360studio/ontosync/canon"
	"github.com/c360studio/ontosync/rdf"
	"github.com/c360studio/ontosync/rdf/turtle"
)

func parse(t *testing.T, src string) *rdf.Graph {
	t.Helper()
	g, err := turtle.Codec{}.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v\nsource:\n%s", err, src)
	}
	return g
}

func TestParseBasics(t *testing.T) {
	g := parse(t, `
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix ex: <http://example.org/onto#> .

ex:Instance a owl:Class .
`)
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
	want := rdf.Triple{
		Subject:   rdf.NewIRI("http://example.org/onto#Instance"),
		Predicate: rdf.RDFType,
		Object:    rdf.OWLClass,
	}
	if !g.Has(want) {
		t.Errorf("missing triple %s in %v", want, g.Triples())
	}
}

func TestParsePredicateAndObjectLists(t *testing.T) {
	g := parse(t, `
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/onto#> .

ex:Volume rdfs:label "Volume"@en , "Volumen"@de ;
    rdfs:comment "Block storage volume." .
`)
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	vol := rdf.NewIRI("http://example.org/onto#Volume")
	labels := g.ObjectsOf(vol, rdf.RDFSLabel)
	if len(labels) != 2 {
		t.Errorf("labels = %v, want two language-tagged literals", labels)
	}
}

func TestParseLiterals(t *testing.T) {
	g := parse(t, `
@prefix ex: <http://example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

ex:s ex:int 42 ;
    ex:dec 3.14 ;
    ex:dbl 1.0e6 ;
    ex:flag true ;
    ex:typed "2024-01-01"^^xsd:date ;
    ex:long """line one
line two""" ;
    ex:escaped "tab\there" .
`)
	s := rdf.NewIRI("http://example.org/s")
	checks := []struct {
		pred string
		want rdf.Term
	}{
		{"int", rdf.NewTypedLiteral("42", rdf.XSDInteger)},
		{"dec", rdf.NewTypedLiteral("3.14", rdf.XSDDecimal)},
		{"dbl", rdf.NewTypedLiteral("1.0e6", rdf.XSDDouble)},
		{"flag", rdf.NewTypedLiteral("true", rdf.XSDBoolean)},
		{"typed", rdf.NewTypedLiteral("2024-01-01", "http://www.w3.org/2001/XMLSchema#date")},
		{"long", rdf.NewLiteral("line one\nline two")},
		{"escaped", rdf.NewLiteral("tab\there")},
	}
	for _, c := range checks {
		objs := g.ObjectsOf(s, rdf.NewIRI("http://example.org/"+c.pred))
		if len(objs) != 1 || objs[0] != c.want {
			t.Errorf("%s: got %v, want %v", c.pred, objs, c.want)
		}
	}
}

func TestParseBlankNodes(t *testing.T) {
	g := parse(t, `
@prefix ex: <http://example.org/> .

_:a ex:knows _:b .
ex:s ex:via [ ex:name "anon" ] .
`)
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	if n := len(g.BlankNodes()); n != 3 {
		t.Errorf("blank node count = %d, want 3", n)
	}
}

func TestParseCollection(t *testing.T) {
	g := parse(t, `
@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

ex:C owl:unionOf ( ex:A ex:B ) .
`)
	// union triple + 2x rdf:first + 2x rdf:rest
	if g.Len() != 5 {
		t.Fatalf("Len = %d, want 5", g.Len())
	}
	heads := g.ObjectsOf(rdf.NewIRI("http://example.org/C"), rdf.NewIRI("http://www.w3.org/2002/07/owl#unionOf"))
	if len(heads) != 1 || !heads[0].IsBlank() {
		t.Fatalf("unionOf object = %v, want a blank list head", heads)
	}
	firsts := g.ObjectsOf(heads[0], rdf.RDFFirst)
	if len(firsts) != 1 || firsts[0].Value != "http://example.org/A" {
		t.Errorf("rdf:first = %v, want ex:A", firsts)
	}
}

func TestParseEmptyCollection(t *testing.T) {
	g := parse(t, `
@prefix ex: <http://example.org/> .
ex:s ex:list ( ) .
`)
	objs := g.ObjectsOf(rdf.NewIRI("http://example.org/s"), rdf.NewIRI("http://example.org/list"))
	if len(objs) != 1 || objs[0] != rdf.RDFNil {
		t.Errorf("empty collection = %v, want rdf:nil", objs)
	}
}

func TestParseSparqlStyleDirectives(t *testing.T) {
	g := parse(t, `
PREFIX ex: <http://example.org/>
BASE <http://example.org/base#>

ex:s ex:p <#frag> .
`)
	objs := g.ObjectsOf(rdf.NewIRI("http://example.org/s"), rdf.NewIRI("http://example.org/p"))
	if len(objs) != 1 || objs[0].Value != "http://example.org/base#frag" {
		t.Errorf("resolved object = %v, want base#frag", objs)
	}
}

func TestUndefinedPrefixIsParseError(t *testing.T) {
	_, err := turtle.Codec{}.Parse([]byte("ex:A a ex:B .\n"))
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *rdf.ParseError", err)
	}
	if perr.Line != 1 {
		t.Errorf("Line = %d, want 1", perr.Line)
	}
	if !strings.Contains(perr.Msg, "undefined prefix") {
		t.Errorf("Msg = %q, want mention of undefined prefix", perr.Msg)
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	src := "@prefix ex: <http://example.org/> .\nex:s ex:p \"unterminated"
	_, err := turtle.Codec{}.Parse([]byte(src))
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *rdf.ParseError", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
}

func TestCommentsIgnored(t *testing.T) {
	g := parse(t, `
# leading comment
@prefix ex: <http://example.org/> . # trailing comment
ex:s ex:p ex:o . # done
`)
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestRoundTrip(t *testing.T) {
	src := `
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/onto#> .

ex:Instance a owl:Class ;
    rdfs:label "EC2 Instance"@en ;
    rdfs:comment "A virtual machine." ;
    rdfs:subClassOf [ a owl:Restriction ; owl:onProperty ex:runsOn ] .

ex:runsOn a owl:ObjectProperty ;
    rdfs:domain ex:Instance .
`
	g := parse(t, src)

	out, err := turtle.Codec{}.Serialize(g)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	g2, err := turtle.Codec{}.Parse(out)
	if err != nil {
		t.Fatalf("reparse failed: %v\noutput:\n%s", err, out)
	}
	if canon.Canonicalize(g) != canon.Canonicalize(g2) {
		t.Errorf("round trip changed the graph\noutput:\n%s", out)
	}
}

func TestSerializeDeterministic(t *testing.T) {
	g := parse(t, `
@prefix ex: <http://example.org/> .
ex:b ex:p ex:o .
ex:a ex:p ex:o .
`)
	out1, err := turtle.Codec{}.Serialize(g)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	out2, err := turtle.Codec{}.Serialize(g)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if string(out1) != string(out2) {
		t.Error("serialization is not deterministic")
	}
	if !strings.Contains(string(out1), "@prefix") {
		t.Errorf("output should declare prefixes:\n%s", out1)
	}
}
