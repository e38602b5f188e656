package rdfxml_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/c360studio/ontosync/canon"
	"github.com/c360studio/ontosync/rdf"
	"github.com/c360studio/ontosync/rdf/rdfxml"
	"github.com/c360studio/ontosync/rdf/turtle"
)

func parse(t *testing.T, src string) *rdf.Graph {
	t.Helper()
	g, err := rdfxml.Codec{}.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v\nsource:\n%s", err, src)
	}
	return g
}

func TestParseDescription(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <rdf:Description rdf:about="http://example.org/onto#Instance">
    <rdfs:label>EC2 Instance</rdfs:label>
  </rdf:Description>
</rdf:RDF>`)
	want := rdf.Triple{
		Subject:   rdf.NewIRI("http://example.org/onto#Instance"),
		Predicate: rdf.RDFSLabel,
		Object:    rdf.NewLiteral("EC2 Instance"),
	}
	if g.Len() != 1 || !g.Has(want) {
		t.Errorf("got %v, want exactly %s", g.Triples(), want)
	}
}

func TestParseTypedNodeElement(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto#Volume"/>
</rdf:RDF>`)
	want := rdf.Triple{
		Subject:   rdf.NewIRI("http://example.org/onto#Volume"),
		Predicate: rdf.RDFType,
		Object:    rdf.OWLClass,
	}
	if g.Len() != 1 || !g.Has(want) {
		t.Errorf("got %v, want exactly %s", g.Triples(), want)
	}
}

func TestParseResourceAndNodeID(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:about="http://example.org/s">
    <ex:sees rdf:resource="http://example.org/o"/>
    <ex:knows rdf:nodeID="n1"/>
  </rdf:Description>
  <rdf:Description rdf:nodeID="n1">
    <ex:name>anon</ex:name>
  </rdf:Description>
</rdf:RDF>`)
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	s := rdf.NewIRI("http://example.org/s")
	known := g.ObjectsOf(s, rdf.NewIRI("http://example.org/knows"))
	if len(known) != 1 || !known[0].IsBlank() {
		t.Fatalf("knows object = %v, want blank node", known)
	}
	// The same nodeID must map to the same blank node across elements.
	names := g.ObjectsOf(known[0], rdf.NewIRI("http://example.org/name"))
	if len(names) != 1 || names[0].Value != "anon" {
		t.Errorf("name of shared blank node = %v, want \"anon\"", names)
	}
}

func TestParseLangAndDatatype(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/" xml:lang="en">
  <rdf:Description rdf:about="http://example.org/s">
    <ex:label>hello</ex:label>
    <ex:label xml:lang="de">hallo</ex:label>
    <ex:count rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">7</ex:count>
  </rdf:Description>
</rdf:RDF>`)
	s := rdf.NewIRI("http://example.org/s")
	labels := g.ObjectsOf(s, rdf.NewIRI("http://example.org/label"))
	got := map[rdf.Term]bool{}
	for _, l := range labels {
		got[l] = true
	}
	if !got[rdf.NewLangLiteral("hello", "en")] {
		t.Errorf("missing inherited xml:lang literal, got %v", labels)
	}
	if !got[rdf.NewLangLiteral("hallo", "de")] {
		t.Errorf("missing overriding xml:lang literal, got %v", labels)
	}
	counts := g.ObjectsOf(s, rdf.NewIRI("http://example.org/count"))
	if len(counts) != 1 || counts[0] != rdf.NewTypedLiteral("7", rdf.XSDInteger) {
		t.Errorf("count = %v, want typed integer literal", counts)
	}
}

func TestParseNestedNodeElement(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto#A">
    <rdfs:subClassOf>
      <owl:Restriction>
        <owl:onProperty rdf:resource="http://example.org/onto#p"/>
      </owl:Restriction>
    </rdfs:subClassOf>
  </owl:Class>
</rdf:RDF>`)
	// owl:Class type + subClassOf + owl:Restriction type + onProperty
	if g.Len() != 4 {
		t.Fatalf("Len = %d, want 4:\n%v", g.Len(), g.Triples())
	}
	supers := g.ObjectsOf(rdf.NewIRI("http://example.org/onto#A"), rdf.RDFSSubClass)
	if len(supers) != 1 || !supers[0].IsBlank() {
		t.Errorf("subClassOf = %v, want an anonymous restriction", supers)
	}
}

func TestParseTypeResource(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:about="http://example.org/s">
    <ex:detail rdf:parseType="Resource">
      <ex:name>inner</ex:name>
    </ex:detail>
  </rdf:Description>
</rdf:RDF>`)
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	objs := g.ObjectsOf(rdf.NewIRI("http://example.org/s"), rdf.NewIRI("http://example.org/detail"))
	if len(objs) != 1 || !objs[0].IsBlank() {
		t.Fatalf("detail = %v, want blank node", objs)
	}
}

func TestParseTypeCollection(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <rdf:Description rdf:about="http://example.org/C">
    <owl:unionOf rdf:parseType="Collection">
      <rdf:Description rdf:about="http://example.org/A"/>
      <rdf:Description rdf:about="http://example.org/B"/>
    </owl:unionOf>
  </rdf:Description>
</rdf:RDF>`)
	if g.Len() != 5 {
		t.Fatalf("Len = %d, want 5:\n%v", g.Len(), g.Triples())
	}
	heads := g.ObjectsOf(rdf.NewIRI("http://example.org/C"), rdf.NewIRI("http://www.w3.org/2002/07/owl#unionOf"))
	if len(heads) != 1 || !heads[0].IsBlank() {
		t.Fatalf("unionOf = %v, want blank list head", heads)
	}
	firsts := g.ObjectsOf(heads[0], rdf.RDFFirst)
	if len(firsts) != 1 || firsts[0].Value != "http://example.org/A" {
		t.Errorf("rdf:first = %v, want ex:A", firsts)
	}
}

func TestRdfLiRejected(t *testing.T) {
	_, err := rdfxml.Codec{}.Parse([]byte(`<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="http://example.org/bag">
    <rdf:li>one</rdf:li>
  </rdf:Description>
</rdf:RDF>`))
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *rdf.ParseError", err)
	}
	if !strings.Contains(perr.Msg, "rdf:li") {
		t.Errorf("Msg = %q, want mention of rdf:li", perr.Msg)
	}
}

func TestMalformedXML(t *testing.T) {
	_, err := rdfxml.Codec{}.Parse([]byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="http://example.org/s">`))
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *rdf.ParseError", err)
	}
	if perr.Format != rdf.FormatRDFXML {
		t.Errorf("Format = %q, want %q", perr.Format, rdf.FormatRDFXML)
	}
}

func TestRoundTrip(t *testing.T) {
	g := parse(t, `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto#Instance">
    <rdfs:label xml:lang="en">EC2 Instance</rdfs:label>
    <rdfs:comment>A virtual machine.</rdfs:comment>
  </owl:Class>
  <owl:ObjectProperty rdf:about="http://example.org/onto#runsOn">
    <rdfs:domain rdf:resource="http://example.org/onto#Instance"/>
  </owl:ObjectProperty>
</rdf:RDF>`)

	out, err := rdfxml.Codec{}.Serialize(g)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	g2, err := rdfxml.Codec{}.Parse(out)
	if err != nil {
		t.Fatalf("reparse failed: %v\noutput:\n%s", err, out)
	}
	if canon.Canonicalize(g) != canon.Canonicalize(g2) {
		t.Errorf("round trip changed the graph\noutput:\n%s", out)
	}
}

func TestCrossFormatFingerprint(t *testing.T) {
	ttl := `
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/onto#> .

ex:Instance a owl:Class ;
    rdfs:label "EC2 Instance"@en .
`
	owl := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto#Instance">
    <rdfs:label xml:lang="en">EC2 Instance</rdfs:label>
  </owl:Class>
</rdf:RDF>`

	gt, err := turtle.Codec{}.Parse([]byte(ttl))
	if err != nil {
		t.Fatalf("turtle parse failed: %v", err)
	}
	gx := parse(t, owl)
	if canon.Canonicalize(gt) != canon.Canonicalize(gx) {
		t.Errorf("equivalent documents in different formats produced different fingerprints")
	}
}
