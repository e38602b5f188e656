package gate_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/ontosync/gate"
	"github.com/c360studio/ontosync/rdf"
)

func writeFiles(t *testing.T, ttl, owl string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ttlPath := filepath.Join(dir, "onto.ttl")
	owlPath := filepath.Join(dir, "onto.owl")
	if err := os.WriteFile(ttlPath, []byte(ttl), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(owlPath, []byte(owl), 0644); err != nil {
		t.Fatal(err)
	}
	return ttlPath, owlPath
}

func TestCheckDetectsMissingStatement(t *testing.T) {
	ttl := `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .

ex:thing rdfs:label "thing" .
`
	owl := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
</rdf:RDF>
`
	ttlPath, owlPath := writeFiles(t, ttl, owl)
	res, err := gate.Check(ttlPath, owlPath)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.OK {
		t.Error("OK = true for documents with different statements")
	}
	if len(res.Report.Added) != 1 || len(res.Report.Removed) != 0 {
		t.Errorf("report = +%d -%d, want +1 -0", len(res.Report.Added), len(res.Report.Removed))
	}
	if res.FirstCount != 1 || res.SecondCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", res.FirstCount, res.SecondCount)
	}
	if res.Fingerprint != "" {
		t.Errorf("Fingerprint = %q, want empty for failing gate", res.Fingerprint)
	}
}

func TestCheckAcceptsBlankNodeRenaming(t *testing.T) {
	ttl := `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .

ex:A rdfs:subClassOf [ a owl:Restriction ; owl:onProperty ex:p ] .
`
	owl := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <rdf:Description rdf:about="http://example.org/A">
    <rdfs:subClassOf rdf:nodeID="anon7"/>
  </rdf:Description>
  <rdf:Description rdf:nodeID="anon7">
    <rdf:type rdf:resource="http://www.w3.org/2002/07/owl#Restriction"/>
    <owl:onProperty rdf:resource="http://example.org/p"/>
  </rdf:Description>
</rdf:RDF>
`
	ttlPath, owlPath := writeFiles(t, ttl, owl)
	res, err := gate.Check(ttlPath, owlPath)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.OK {
		t.Errorf("OK = false for equivalent graphs: +%v -%v", res.Report.Added, res.Report.Removed)
	}
	if res.Fingerprint == "" {
		t.Error("missing fingerprint for passing gate")
	}
}

func TestCheckRejectsDuplicatedBlankStructure(t *testing.T) {
	// Both anonymous restrictions are structurally identical, so their
	// statements share canonical keys; the pair still must not pass
	// against a document holding only one restriction.
	two := `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .

ex:A rdfs:subClassOf [ a owl:Restriction ] , [ a owl:Restriction ] .
`
	one := `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .

ex:A rdfs:subClassOf [ a owl:Restriction ] .
`
	dir := t.TempDir()
	twoPath := filepath.Join(dir, "two.ttl")
	onePath := filepath.Join(dir, "one.ttl")
	if err := os.WriteFile(twoPath, []byte(two), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(onePath, []byte(one), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := gate.Check(twoPath, onePath)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.OK {
		t.Error("OK = true for graphs with different statement counts")
	}
	if res.FirstCount != 4 || res.SecondCount != 2 {
		t.Errorf("counts = %d/%d, want 4/2", res.FirstCount, res.SecondCount)
	}
}

func TestCheckUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onto.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := gate.Check(path, path)
	if err == nil {
		t.Fatal("Check accepted an unknown extension")
	}
}

func TestCheckParseErrorIsError(t *testing.T) {
	ttlPath, owlPath := writeFiles(t, "not turtle at all {{{", `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>
`)
	_, err := gate.Check(ttlPath, owlPath)
	if err == nil {
		t.Fatal("Check returned a verdict for an unparsable file")
	}
	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want *rdf.ParseError in chain", err)
	}
}
