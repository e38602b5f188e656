// Package diff compares two RDF graphs and reports the statements present
// in only one of them.
//
// Ground statements are compared by plain set difference. Statements
// involving blank nodes are matched through the structural signatures from
// package canon: two statements are "the same" when they are identical
// after replacing blank labels with signatures. Because interchangeable
// blank nodes share a signature, several statements can share one canonical
// key; keys are therefore matched as multisets, so a side holding more
// copies of a key than the other reports the surplus copies. Which concrete
// statements pair up within a key is arbitrary but deterministic, a known
// approximation inherited from structural signatures.
package diff

import (
	"fmt"
	"io"
	"sort"

	"github.com/c360studio/ontosync/canon"
	"github.com/c360studio/ontosync/rdf"
)

// Report lists the differences between two graphs. Added holds statements
// present in the first graph but not the second; Removed the reverse.
// Delta is first-graph size minus second-graph size.
type Report struct {
	Added   []rdf.Triple
	Removed []rdf.Triple
	Delta   int
}

// Equal reports whether the two compared graphs were equivalent.
func (r *Report) Equal() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0
}

// Render writes a line-oriented summary: one "+ statement" line per added
// triple, one "- statement" line per removed triple, then a count summary.
func (r *Report) Render(w io.Writer) error {
	for _, t := range r.Added {
		if _, err := fmt.Fprintf(w, "+ %s\n", t.NTriples()); err != nil {
			return err
		}
	}
	for _, t := range r.Removed {
		if _, err := fmt.Fprintf(w, "- %s\n", t.NTriples()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d added, %d removed, statement count delta %+d\n",
		len(r.Added), len(r.Removed), r.Delta)
	return err
}

// Compare diffs two graphs. The result is deterministic for a given pair of
// loaded graphs, and symmetric: Compare(a, b).Added pairs with
// Compare(b, a).Removed statement for statement.
func Compare(a, b *rdf.Graph) *Report {
	aStmts, aCounts := statementKeys(a)
	bStmts, bCounts := statementKeys(b)

	report := &Report{
		Delta:   a.Len() - b.Len(),
		Added:   surplus(aStmts, bCounts),
		Removed: surplus(bStmts, aCounts),
	}
	sortTriples(report.Added)
	sortTriples(report.Removed)
	return report
}

type keyedStatement struct {
	key    string
	triple rdf.Triple
}

func statementKeys(g *rdf.Graph) ([]keyedStatement, map[string]int) {
	sigs := canon.BlankSignatures(g)
	stmts := make([]keyedStatement, 0, g.Len())
	counts := make(map[string]int, g.Len())
	for _, t := range g.Triples() {
		key := canon.CanonicalStatement(t, sigs)
		stmts = append(stmts, keyedStatement{key: key, triple: t})
		counts[key]++
	}
	return stmts, counts
}

// surplus returns the statements whose canonical key occurs more often in
// stmts than the other side holds, one triple per unmatched copy.
func surplus(stmts []keyedStatement, other map[string]int) []rdf.Triple {
	var out []rdf.Triple
	seen := make(map[string]int, len(stmts))
	for _, s := range stmts {
		seen[s.key]++
		if seen[s.key] > other[s.key] {
			out = append(out, s.triple)
		}
	}
	return out
}

func sortTriples(ts []rdf.Triple) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].NTriples() < ts[j].NTriples()
	})
}
