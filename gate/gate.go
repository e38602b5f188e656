// Package gate provides the pass/fail equivalence predicate consumed by the
// pre-commit hook and CI: do two serializations denote the same RDF graph?
package gate

import (
	"fmt"
	"os"

	"github.com/c360studio/ontosync/canon"
	"github.com/c360studio/ontosync/diff"
	"github.com/c360studio/ontosync/rdf"

	// The gate accepts any registered serialization format.
	_ "github.com/c360studio/ontosync/rdf/rdfxml"
	_ "github.com/c360studio/ontosync/rdf/turtle"
)

// Result is the gate's verdict on a file pair.
type Result struct {
	OK          bool
	Report      *diff.Report
	Fingerprint canon.Fingerprint // fingerprint of both graphs when OK
	FirstCount  int
	SecondCount int
}

// Check loads both files (formats inferred from extensions) and reports
// whether they are semantically equivalent. It never writes anything; parse
// and I/O failures are returned as errors, not verdicts.
func Check(path1, path2 string) (*Result, error) {
	g1, err := loadPath(path1)
	if err != nil {
		return nil, err
	}
	g2, err := loadPath(path2)
	if err != nil {
		return nil, err
	}

	report := diff.Compare(g1, g2)
	res := &Result{
		OK:          report.Equal(),
		Report:      report,
		FirstCount:  g1.Len(),
		SecondCount: g2.Len(),
	}
	if res.OK {
		res.Fingerprint = canon.Canonicalize(g1)
	}
	return res, nil
}

func loadPath(path string) (*rdf.Graph, error) {
	format, err := rdf.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := rdf.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
