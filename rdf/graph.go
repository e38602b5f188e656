package rdf

import (
	"fmt"
	"sort"
)

// Graph is a duplicate-collapsing set of triples. Statement order carries no
// meaning; the insertion order is retained only so blank-node tie-breaking
// downstream stays deterministic. A Graph is built once by a parser and
// treated as immutable afterwards.
type Graph struct {
	set   map[Triple]struct{}
	order []Triple
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{set: make(map[Triple]struct{})}
}

// Add inserts a triple, collapsing duplicates. It returns an error if the
// triple violates the positional term constraints.
func (g *Graph) Add(t Triple) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid triple %s: %w", t, err)
	}
	if _, ok := g.set[t]; ok {
		return nil
	}
	g.set[t] = struct{}{}
	g.order = append(g.order, t)
	return nil
}

// Has reports whether the graph contains the triple.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.set[t]
	return ok
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int { return len(g.set) }

// Triples returns the triples in insertion order. The slice is a copy.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.order))
	copy(out, g.order)
	return out
}

// SortedTriples returns the triples sorted by their N-Triples rendering.
func (g *Graph) SortedTriples() []Triple {
	out := g.Triples()
	sort.Slice(out, func(i, j int) bool {
		return out[i].NTriples() < out[j].NTriples()
	})
	return out
}

// SubjectsWith returns the distinct subjects of triples matching the given
// predicate and object, in first-appearance order.
func (g *Graph) SubjectsWith(predicate, object Term) []Term {
	seen := make(map[Term]struct{})
	var out []Term
	for _, t := range g.order {
		if t.Predicate == predicate && t.Object == object {
			if _, ok := seen[t.Subject]; !ok {
				seen[t.Subject] = struct{}{}
				out = append(out, t.Subject)
			}
		}
	}
	return out
}

// ObjectsOf returns the objects of triples with the given subject and
// predicate, in first-appearance order.
func (g *Graph) ObjectsOf(subject, predicate Term) []Term {
	var out []Term
	for _, t := range g.order {
		if t.Subject == subject && t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// HasMatch reports whether any triple has the given subject and predicate.
func (g *Graph) HasMatch(subject, predicate Term) bool {
	for _, t := range g.order {
		if t.Subject == subject && t.Predicate == predicate {
			return true
		}
	}
	return false
}

// BlankNodes returns the distinct blank-node labels in first-appearance
// order, scanning subjects before objects within each triple.
func (g *Graph) BlankNodes() []string {
	seen := make(map[string]struct{})
	var out []string
	note := func(t Term) {
		if t.IsBlank() {
			if _, ok := seen[t.Value]; !ok {
				seen[t.Value] = struct{}{}
				out = append(out, t.Value)
			}
		}
	}
	for _, t := range g.order {
		note(t.Subject)
		note(t.Object)
	}
	return out
}
