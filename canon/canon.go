// Package canon computes canonical fingerprints of RDF graphs: digests that
// are invariant to statement order and blank-node renaming.
//
// Blank nodes are labeled by structural signatures computed with iterative
// refinement over their incident predicates and neighbors. Two blank nodes
// with identical neighborhoods receive the same signature, so they are
// treated as interchangeable. This is an approximation of full RDF graph
// canonicalization: for pathological graphs built entirely from symmetric
// blank-node cycles the digest can equate graphs a full canonical labeling
// would distinguish. Ontology files do not produce such graphs in practice.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/c360studio/ontosync/rdf"
)

// Fingerprint is a hex-encoded digest of a graph, comparable with ==.
type Fingerprint string

// Canonicalize returns the canonical fingerprint of a graph. Equal
// fingerprints mean the graphs are isomorphic up to blank-node renaming
// (subject to the approximation documented on the package).
func Canonicalize(g *rdf.Graph) Fingerprint {
	sigs := BlankSignatures(g)
	lines := make([]string, 0, g.Len())
	for _, t := range g.Triples() {
		lines = append(lines, CanonicalStatement(t, sigs))
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// CanonicalStatement renders a triple in N-Triples syntax with blank-node
// labels replaced by their structural signatures.
func CanonicalStatement(t rdf.Triple, sigs map[string]string) string {
	return canonTerm(t.Subject, sigs) + " " + canonTerm(t.Predicate, sigs) + " " + canonTerm(t.Object, sigs) + " ."
}

func canonTerm(t rdf.Term, sigs map[string]string) string {
	if t.IsBlank() {
		return "_:" + sigs[t.Value]
	}
	return t.NTriples()
}

// BlankSignatures computes a structural signature for every blank node in
// the graph, keyed by the node's load-scoped label. Signatures are
// deterministic and depend only on graph structure, never on labels or
// statement order.
func BlankSignatures(g *rdf.Graph) map[string]string {
	blanks := g.BlankNodes()
	if len(blanks) == 0 {
		return map[string]string{}
	}

	// Incident edge descriptors per blank node. Ground neighbors are
	// rendered fully; blank neighbors contribute a placeholder that the
	// refinement rounds replace with the neighbor's current color.
	type edge struct {
		desc     string // direction + predicate + ground neighbor, or prefix for blank neighbor
		neighbor string // blank neighbor label, "" for ground neighbors
	}
	edges := make(map[string][]edge, len(blanks))
	for _, t := range g.Triples() {
		if t.Subject.IsBlank() {
			e := edge{desc: "+ " + t.Predicate.NTriples() + " "}
			if t.Object.IsBlank() {
				e.neighbor = t.Object.Value
			} else {
				e.desc += t.Object.NTriples()
			}
			edges[t.Subject.Value] = append(edges[t.Subject.Value], e)
		}
		if t.Object.IsBlank() {
			e := edge{desc: "- " + t.Predicate.NTriples() + " "}
			if t.Subject.IsBlank() {
				e.neighbor = t.Subject.Value
			} else {
				e.desc += t.Subject.NTriples()
			}
			edges[t.Object.Value] = append(edges[t.Object.Value], e)
		}
	}

	// Initial color: digest of the sorted incident descriptors with blank
	// neighbors anonymized.
	colors := make(map[string]string, len(blanks))
	for _, b := range blanks {
		descs := make([]string, 0, len(edges[b]))
		for _, e := range edges[b] {
			if e.neighbor != "" {
				descs = append(descs, e.desc+"*")
			} else {
				descs = append(descs, e.desc)
			}
		}
		colors[b] = digest(descs)
	}

	// Iterative refinement: fold neighbor colors in until the partition
	// stabilizes. One round per blank node bounds the work; stable
	// partitions exit early.
	for round := 0; round < len(blanks); round++ {
		next := make(map[string]string, len(blanks))
		changed := false
		for _, b := range blanks {
			descs := make([]string, 0, len(edges[b])+1)
			descs = append(descs, "self "+colors[b])
			for _, e := range edges[b] {
				if e.neighbor != "" {
					descs = append(descs, e.desc+colors[e.neighbor])
				} else {
					descs = append(descs, e.desc)
				}
			}
			next[b] = digest(descs)
		}
		if partitionOf(blanks, next) != partitionOf(blanks, colors) {
			changed = true
		}
		colors = next
		if !changed {
			break
		}
	}
	return colors
}

// partitionOf summarizes which blank nodes share a color, ignoring the
// color values themselves.
func partitionOf(blanks []string, colors map[string]string) string {
	groups := make(map[string][]string)
	for _, b := range blanks {
		groups[colors[b]] = append(groups[colors[b]], b)
	}
	keys := make([]string, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		keys = append(keys, strings.Join(members, ","))
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

func digest(parts []string) string {
	sort.Strings(parts)
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
