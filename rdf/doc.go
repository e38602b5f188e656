// Package rdf provides the triple data model shared by the ontology sync
// tooling: terms, graphs, and a registry of serialization formats.
//
// Format implementations live in subpackages (rdf/turtle, rdf/rdfxml) and
// register themselves via init(). Importers that need concrete formats must
// blank-import the subpackages they use.
package rdf
