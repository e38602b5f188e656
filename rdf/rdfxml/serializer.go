package rdfxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/c360studio/ontosync/rdf"
)

// Serialize encodes a graph as RDF/XML. Output is deterministic: namespace
// declarations, subjects, and properties are emitted in sorted order. All
// subjects are written as rdf:Description elements; blank nodes use
// rdf:nodeID so no structure is inlined.
func (Codec) Serialize(g *rdf.Graph) ([]byte, error) {
	prefixes, err := xmlPrefixes(g)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<rdf:RDF")
	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "\n    xmlns:%s=\"%s\"", name, escapeAttr(prefixes[name]))
	}
	buf.WriteString(">\n")

	bySubject := make(map[rdf.Term][]rdf.Triple)
	var subjects []rdf.Term
	for _, t := range g.SortedTriples() {
		if _, ok := bySubject[t.Subject]; !ok {
			subjects = append(subjects, t.Subject)
		}
		bySubject[t.Subject] = append(bySubject[t.Subject], t)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjectSortKey(subjects[i]) < subjectSortKey(subjects[j])
	})

	for _, subj := range subjects {
		if err := writeDescription(&buf, subj, bySubject[subj], prefixes); err != nil {
			return nil, err
		}
	}
	buf.WriteString("</rdf:RDF>\n")
	return buf.Bytes(), nil
}

func subjectSortKey(t rdf.Term) string {
	if t.IsBlank() {
		return "~" + t.Value
	}
	return " " + t.Value
}

func writeDescription(buf *bytes.Buffer, subj rdf.Term, triples []rdf.Triple, prefixes map[string]string) error {
	buf.WriteString("  <rdf:Description ")
	if subj.IsBlank() {
		fmt.Fprintf(buf, "rdf:nodeID=\"%s\">\n", subj.Value)
	} else {
		fmt.Fprintf(buf, "rdf:about=\"%s\">\n", escapeAttr(subj.Value))
	}

	sort.Slice(triples, func(i, j int) bool {
		if triples[i].Predicate != triples[j].Predicate {
			return triples[i].Predicate.Value < triples[j].Predicate.Value
		}
		return triples[i].Object.NTriples() < triples[j].Object.NTriples()
	})

	for _, t := range triples {
		q, err := qualify(t.Predicate.Value, prefixes)
		if err != nil {
			return err
		}
		switch t.Object.Kind {
		case rdf.TermIRI:
			fmt.Fprintf(buf, "    <%s rdf:resource=\"%s\"/>\n", q, escapeAttr(t.Object.Value))
		case rdf.TermBlank:
			fmt.Fprintf(buf, "    <%s rdf:nodeID=\"%s\"/>\n", q, t.Object.Value)
		case rdf.TermLiteral:
			buf.WriteString("    <" + q)
			if t.Object.Lang != "" {
				fmt.Fprintf(buf, " xml:lang=\"%s\"", escapeAttr(t.Object.Lang))
			}
			if t.Object.Datatype != "" {
				fmt.Fprintf(buf, " rdf:datatype=\"%s\"", escapeAttr(t.Object.Datatype))
			}
			buf.WriteString(">")
			buf.WriteString(escapeText(t.Object.Value))
			buf.WriteString("</" + q + ">\n")
		}
	}
	buf.WriteString("  </rdf:Description>\n")
	return nil
}

// qualify compacts a predicate IRI to prefix:local, which RDF/XML requires
// for element names.
func qualify(iri string, prefixes map[string]string) (string, error) {
	ns, local, ok := splitForXML(iri)
	if !ok {
		return "", fmt.Errorf("cannot serialize predicate <%s> as an XML element name", iri)
	}
	for name, p := range prefixes {
		if p == ns {
			return name + ":" + local, nil
		}
	}
	return "", fmt.Errorf("no namespace prefix for predicate <%s>", iri)
}

// xmlPrefixes assigns prefixes to every namespace needed for element names:
// rdf always, defaults when used, generated nsN otherwise.
func xmlPrefixes(g *rdf.Graph) (map[string]string, error) {
	needed := make(map[string]bool)
	for _, t := range g.Triples() {
		ns, _, ok := splitForXML(t.Predicate.Value)
		if !ok {
			return nil, fmt.Errorf("cannot serialize predicate <%s> as an XML element name", t.Predicate.Value)
		}
		needed[ns] = true
	}

	out := map[string]string{"rdf": rdfNS}
	claimed := map[string]bool{rdfNS: true}
	for name, ns := range rdf.DefaultPrefixes() {
		if needed[ns] && !claimed[ns] {
			out[name] = ns
			claimed[ns] = true
		}
	}
	var rest []string
	for ns := range needed {
		if !claimed[ns] {
			rest = append(rest, ns)
		}
	}
	sort.Strings(rest)
	for i, ns := range rest {
		out[fmt.Sprintf("ns%d", i+1)] = ns
	}
	return out, nil
}

// splitForXML splits an IRI into namespace and an XML-name-safe local part.
func splitForXML(iri string) (ns, local string, ok bool) {
	i := strings.LastIndexAny(iri, "#/")
	if i < 0 || i+1 >= len(iri) {
		return "", "", false
	}
	ns, local = iri[:i+1], iri[i+1:]
	if !isNCName(local) {
		return "", "", false
	}
	return ns, local, true
}

// isNCName reports whether s is a valid XML NCName.
func isNCName(s string) bool {
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return s != ""
}

func escapeText(s string) string {
	var b bytes.Buffer
	// xml.EscapeText never fails on a bytes.Buffer.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func escapeAttr(s string) string {
	return escapeText(s)
}
