package rdf

// Well-known vocabulary namespaces.
const (
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceOWL  = "http://www.w3.org/2002/07/owl#"
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
)

// Frequently used terms from the RDF, RDFS, and OWL vocabularies.
var (
	RDFType  = NewIRI(NamespaceRDF + "type")
	RDFFirst = NewIRI(NamespaceRDF + "first")
	RDFRest  = NewIRI(NamespaceRDF + "rest")
	RDFNil   = NewIRI(NamespaceRDF + "nil")

	RDFSLabel    = NewIRI(NamespaceRDFS + "label")
	RDFSComment  = NewIRI(NamespaceRDFS + "comment")
	RDFSDomain   = NewIRI(NamespaceRDFS + "domain")
	RDFSRange    = NewIRI(NamespaceRDFS + "range")
	RDFSSubClass = NewIRI(NamespaceRDFS + "subClassOf")

	OWLOntology         = NewIRI(NamespaceOWL + "Ontology")
	OWLClass            = NewIRI(NamespaceOWL + "Class")
	OWLObjectProperty   = NewIRI(NamespaceOWL + "ObjectProperty")
	OWLDatatypeProperty = NewIRI(NamespaceOWL + "DatatypeProperty")
	OWLVersionInfo      = NewIRI(NamespaceOWL + "versionInfo")

	XSDString  = NamespaceXSD + "string"
	XSDInteger = NamespaceXSD + "integer"
	XSDDecimal = NamespaceXSD + "decimal"
	XSDDouble  = NamespaceXSD + "double"
	XSDBoolean = NamespaceXSD + "boolean"
)

// DefaultPrefixes returns the standard namespace prefixes used when
// serializing. The map is a fresh copy; callers may extend it.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  NamespaceRDF,
		"rdfs": NamespaceRDFS,
		"owl":  NamespaceOWL,
		"xsd":  NamespaceXSD,
	}
}
