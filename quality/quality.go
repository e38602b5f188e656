// Package quality lints ontology graphs for the conventions the project
// enforces on its class and property definitions: documentation coverage,
// naming style, and referential consistency.
package quality

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/c360studio/ontosync/rdf"
)

// Severity classifies a finding.
type Severity string

// Finding severities. Errors fail the lint; warnings do not.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one detected quality issue.
type Finding struct {
	Severity Severity
	Rule     string
	Subject  rdf.Term
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Rule, f.Message)
}

// Report collects lint findings.
type Report struct {
	Findings []Finding
}

// ErrorCount returns the number of error-severity findings.
func (r *Report) ErrorCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Render writes one line per finding followed by a summary.
func (r *Report) Render(w io.Writer) error {
	for _, f := range r.Findings {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d errors, %d warnings\n",
		r.ErrorCount(), len(r.Findings)-r.ErrorCount())
	return err
}

// Options tunes the lint rules.
type Options struct {
	// RequireMetadata demands an owl:Ontology subject carrying rdfs:label,
	// rdfs:comment, and owl:versionInfo.
	RequireMetadata bool

	// CheckNaming enforces CamelCase class names and camelCase property
	// names.
	CheckNaming bool
}

// DefaultOptions enables every rule.
func DefaultOptions() Options {
	return Options{RequireMetadata: true, CheckNaming: true}
}

// Lint checks a graph against the ontology quality rules.
func Lint(g *rdf.Graph, opts Options) *Report {
	l := &linter{graph: g, opts: opts}
	l.metadata()
	l.documentation()
	l.naming()
	l.references()
	l.duplicateLabels()
	sort.SliceStable(l.report.Findings, func(i, j int) bool {
		if l.report.Findings[i].Rule != l.report.Findings[j].Rule {
			return l.report.Findings[i].Rule < l.report.Findings[j].Rule
		}
		return l.report.Findings[i].Message < l.report.Findings[j].Message
	})
	return &l.report
}

type linter struct {
	graph  *rdf.Graph
	opts   Options
	report Report
}

func (l *linter) add(sev Severity, rule string, subject rdf.Term, format string, args ...any) {
	l.report.Findings = append(l.report.Findings, Finding{
		Severity: sev,
		Rule:     rule,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *linter) classes() []rdf.Term {
	return l.graph.SubjectsWith(rdf.RDFType, rdf.OWLClass)
}

func (l *linter) properties() []rdf.Term {
	props := l.graph.SubjectsWith(rdf.RDFType, rdf.OWLObjectProperty)
	return append(props, l.graph.SubjectsWith(rdf.RDFType, rdf.OWLDatatypeProperty)...)
}

func (l *linter) metadata() {
	if !l.opts.RequireMetadata {
		return
	}
	ontologies := l.graph.SubjectsWith(rdf.RDFType, rdf.OWLOntology)
	if len(ontologies) == 0 {
		l.add(SeverityError, "ontology-metadata", rdf.Term{}, "no owl:Ontology declaration found")
		return
	}
	for _, ont := range ontologies {
		for _, req := range []struct {
			pred rdf.Term
			name string
		}{
			{rdf.RDFSLabel, "rdfs:label"},
			{rdf.RDFSComment, "rdfs:comment"},
			{rdf.OWLVersionInfo, "owl:versionInfo"},
		} {
			if !l.graph.HasMatch(ont, req.pred) {
				l.add(SeverityError, "ontology-metadata", ont,
					"ontology <%s> missing %s", ont.Value, req.name)
			}
		}
	}
}

func (l *linter) documentation() {
	check := func(subjects []rdf.Term, kind string) {
		for _, s := range subjects {
			if s.IsBlank() {
				// Anonymous class expressions (restrictions, unions) are
				// not documented individually.
				continue
			}
			if !l.graph.HasMatch(s, rdf.RDFSLabel) {
				l.add(SeverityError, "missing-label", s, "%s <%s> has no rdfs:label", kind, s.Value)
			}
			if !l.graph.HasMatch(s, rdf.RDFSComment) {
				l.add(SeverityError, "missing-comment", s, "%s <%s> has no rdfs:comment", kind, s.Value)
			}
		}
	}
	check(l.classes(), "class")
	check(l.properties(), "property")
}

func (l *linter) naming() {
	if !l.opts.CheckNaming {
		return
	}
	for _, c := range l.classes() {
		name := c.LocalName()
		if name == "" || c.IsBlank() {
			continue
		}
		if !startsUpper(name) {
			l.add(SeverityWarning, "class-naming", c,
				"class name %q should be CamelCase", name)
		}
	}
	for _, p := range l.properties() {
		name := p.LocalName()
		if name == "" || p.IsBlank() {
			continue
		}
		if !startsLower(name) {
			l.add(SeverityWarning, "property-naming", p,
				"property name %q should be camelCase", name)
		}
	}
}

// references flags object properties whose rdfs:domain or rdfs:range names
// a class the graph never defines, and object properties lacking both.
func (l *linter) references() {
	defined := make(map[rdf.Term]bool)
	for _, c := range l.classes() {
		defined[c] = true
	}
	for _, p := range l.graph.SubjectsWith(rdf.RDFType, rdf.OWLObjectProperty) {
		domains := l.graph.ObjectsOf(p, rdf.RDFSDomain)
		ranges := l.graph.ObjectsOf(p, rdf.RDFSRange)
		if len(domains) == 0 && len(ranges) == 0 {
			l.add(SeverityWarning, "missing-domain-range", p,
				"object property <%s> declares neither rdfs:domain nor rdfs:range", p.Value)
		}
		for _, d := range append(domains, ranges...) {
			if d.IsIRI() && !defined[d] && !isExternal(d) {
				l.add(SeverityError, "undefined-reference", p,
					"property <%s> references undefined class <%s>", p.Value, d.Value)
			}
		}
	}
}

// isExternal treats terms from the core W3C vocabularies as always defined.
func isExternal(t rdf.Term) bool {
	for _, ns := range []string{rdf.NamespaceRDF, rdf.NamespaceRDFS, rdf.NamespaceOWL, rdf.NamespaceXSD} {
		if strings.HasPrefix(t.Value, ns) {
			return true
		}
	}
	return false
}

func (l *linter) duplicateLabels() {
	byLabel := make(map[string][]rdf.Term)
	var labels []string
	for _, s := range append(l.classes(), l.properties()...) {
		for _, o := range l.graph.ObjectsOf(s, rdf.RDFSLabel) {
			if o.IsLiteral() {
				key := o.Value + "@" + o.Lang
				if len(byLabel[key]) == 0 {
					labels = append(labels, key)
				}
				byLabel[key] = append(byLabel[key], s)
			}
		}
	}
	for _, key := range labels {
		if subjects := byLabel[key]; len(subjects) > 1 {
			names := make([]string, len(subjects))
			for i, s := range subjects {
				names[i] = "<" + s.Value + ">"
			}
			label := strings.TrimSuffix(key, "@")
			l.add(SeverityWarning, "duplicate-label", subjects[0],
				"label %q shared by %s", label, strings.Join(names, ", "))
		}
	}
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func startsLower(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}
