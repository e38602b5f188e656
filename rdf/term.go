package rdf

import (
	"fmt"
	"strings"
)

// TermKind discriminates the three RDF term variants.
type TermKind int

// Term kinds.
const (
	TermIRI TermKind = iota
	TermBlank
	TermLiteral
)

func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlank:
		return "blank"
	case TermLiteral:
		return "literal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Term is a tagged RDF term: an IRI, a blank node, or a literal.
//
// For an IRI, Value holds the IRI string. For a blank node, Value holds the
// load-scoped label without the "_:" prefix. For a literal, Value holds the
// lexical form, Lang the optional language tag, and Datatype the optional
// datatype IRI. Term is comparable and safe to use as a map key.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: TermIRI, Value: iri}
}

// NewBlank returns a blank node term with the given label (no "_:" prefix).
func NewBlank(label string) Term {
	return Term{Kind: TermBlank, Value: label}
}

// NewLiteral returns a plain literal term.
func NewLiteral(lexical string) Term {
	return Term{Kind: TermLiteral, Value: lexical}
}

// NewLangLiteral returns a language-tagged literal term.
func NewLangLiteral(lexical, lang string) Term {
	return Term{Kind: TermLiteral, Value: lexical, Lang: lang}
}

// NewTypedLiteral returns a datatyped literal term.
func NewTypedLiteral(lexical, datatype string) Term {
	return Term{Kind: TermLiteral, Value: lexical, Datatype: datatype}
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == TermBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// NTriples renders the term in N-Triples syntax. Blank nodes render with
// their load-scoped label, so the output is only meaningful within one load.
func (t Term) NTriples() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlank:
		return "_:" + t.Value
	case TermLiteral:
		s := "\"" + escapeLiteral(t.Value) + "\""
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return fmt.Sprintf("?%s", t.Value)
	}
}

func (t Term) String() string { return t.NTriples() }

// LocalName returns the fragment or final path segment of an IRI term, or
// the empty string for non-IRI terms. Used by quality checks that inspect
// naming conventions.
func (t Term) LocalName() string {
	if t.Kind != TermIRI {
		return ""
	}
	if i := strings.LastIndex(t.Value, "#"); i >= 0 {
		return t.Value[i+1:]
	}
	if i := strings.LastIndex(t.Value, "/"); i >= 0 {
		return t.Value[i+1:]
	}
	return t.Value
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Triple is a single RDF statement. Valid triples have an IRI or blank node
// subject, an IRI predicate, and any term as object; Graph.Add enforces this.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NTriples renders the triple as one N-Triples statement without trailing
// newline.
func (t Triple) NTriples() string {
	return t.Subject.NTriples() + " " + t.Predicate.NTriples() + " " + t.Object.NTriples() + " ."
}

func (t Triple) String() string { return t.NTriples() }

// HasBlank reports whether the subject or object is a blank node.
func (t Triple) HasBlank() bool {
	return t.Subject.IsBlank() || t.Object.IsBlank()
}

// Validate checks the positional constraints on the triple's terms.
func (t Triple) Validate() error {
	if t.Subject.Kind == TermLiteral {
		return fmt.Errorf("subject must be an IRI or blank node, got literal %q", t.Subject.Value)
	}
	if t.Predicate.Kind != TermIRI {
		return fmt.Errorf("predicate must be an IRI, got %s %q", t.Predicate.Kind, t.Predicate.Value)
	}
	return nil
}
