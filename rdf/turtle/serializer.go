package turtle

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/ontosync/rdf"
)

// Serialize encodes a graph as Turtle. Output is deterministic: prefixes,
// subjects, predicates, and objects are emitted in sorted order, rdf:type
// always first as "a". Blank nodes keep their load-scoped labels rather
// than being inlined, which keeps the writer simple and the output stable.
func (Codec) Serialize(g *rdf.Graph) ([]byte, error) {
	prefixes := usedPrefixes(g)
	var buf bytes.Buffer

	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "@prefix %s: <%s> .\n", name, prefixes[name])
	}
	if len(names) > 0 {
		buf.WriteString("\n")
	}

	bySubject := make(map[rdf.Term][]rdf.Triple)
	var subjects []rdf.Term
	for _, t := range g.SortedTriples() {
		if _, ok := bySubject[t.Subject]; !ok {
			subjects = append(subjects, t.Subject)
		}
		bySubject[t.Subject] = append(bySubject[t.Subject], t)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return termSortKey(subjects[i]) < termSortKey(subjects[j])
	})

	for i, subj := range subjects {
		if i > 0 {
			buf.WriteString("\n")
		}
		writeSubjectBlock(&buf, subj, bySubject[subj], prefixes)
	}
	return buf.Bytes(), nil
}

// termSortKey orders IRIs before blank nodes so named subjects lead the
// document.
func termSortKey(t rdf.Term) string {
	if t.IsBlank() {
		return "~" + t.NTriples()
	}
	return " " + t.NTriples()
}

func writeSubjectBlock(buf *bytes.Buffer, subj rdf.Term, triples []rdf.Triple, prefixes map[string]string) {
	byPred := make(map[rdf.Term][]rdf.Term)
	var preds []rdf.Term
	for _, t := range triples {
		if _, ok := byPred[t.Predicate]; !ok {
			preds = append(preds, t.Predicate)
		}
		byPred[t.Predicate] = append(byPred[t.Predicate], t.Object)
	}
	sort.Slice(preds, func(i, j int) bool {
		return predSortKey(preds[i]) < predSortKey(preds[j])
	})

	buf.WriteString(renderTerm(subj, prefixes))
	for pi, pred := range preds {
		if pi == 0 {
			buf.WriteString(" ")
		} else {
			buf.WriteString(" ;\n    ")
		}
		if pred == rdf.RDFType {
			buf.WriteString("a")
		} else {
			buf.WriteString(renderTerm(pred, prefixes))
		}
		objects := byPred[pred]
		sort.Slice(objects, func(i, j int) bool {
			return objects[i].NTriples() < objects[j].NTriples()
		})
		for oi, obj := range objects {
			if oi == 0 {
				buf.WriteString(" ")
			} else {
				buf.WriteString(" , ")
			}
			buf.WriteString(renderTerm(obj, prefixes))
		}
	}
	buf.WriteString(" .\n")
}

// predSortKey puts rdf:type first within a subject block.
func predSortKey(t rdf.Term) string {
	if t == rdf.RDFType {
		return ""
	}
	return t.Value
}

func renderTerm(t rdf.Term, prefixes map[string]string) string {
	switch t.Kind {
	case rdf.TermIRI:
		if q, ok := qname(t.Value, prefixes); ok {
			return q
		}
		return "<" + t.Value + ">"
	case rdf.TermBlank:
		return "_:" + t.Value
	case rdf.TermLiteral:
		s := renderLexical(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			if q, ok := qname(t.Datatype, prefixes); ok {
				return s + "^^" + q
			}
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return t.NTriples()
	}
}

func renderLexical(s string) string {
	var b strings.Builder
	b.WriteByte('"')
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
	b.WriteByte('"')
	return b.String()
}

// qname compacts an IRI to prefix:local if a prefix covers it and the local
// part is safe to emit unescaped.
func qname(iri string, prefixes map[string]string) (string, bool) {
	var bestName, bestNS string
	for name, ns := range prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			bestName, bestNS = name, ns
		}
	}
	if bestNS == "" {
		return "", false
	}
	local := iri[len(bestNS):]
	if !safeLocal(local) {
		return "", false
	}
	return bestName + ":" + local, true
}

// safeLocal accepts local names containing only PN characters, so the
// writer never needs local-name escaping.
func safeLocal(local string) bool {
	if local == "" {
		return false
	}
	for _, r := range local {
		if !isPNChar(r) || r == '%' {
			return false
		}
	}
	return true
}

// usedPrefixes returns the default prefixes whose namespaces actually occur
// in the graph, plus generated nsN prefixes for other namespaces that occur
// more than once.
func usedPrefixes(g *rdf.Graph) map[string]string {
	counts := make(map[string]int)
	note := func(t rdf.Term) {
		switch t.Kind {
		case rdf.TermIRI:
			if ns, _, ok := splitIRI(t.Value); ok {
				counts[ns]++
			}
		case rdf.TermLiteral:
			if t.Datatype != "" {
				if ns, _, ok := splitIRI(t.Datatype); ok {
					counts[ns]++
				}
			}
		}
	}
	for _, t := range g.Triples() {
		note(t.Subject)
		note(t.Predicate)
		note(t.Object)
	}

	out := make(map[string]string)
	claimed := make(map[string]bool)
	for name, ns := range rdf.DefaultPrefixes() {
		if counts[ns] > 0 {
			out[name] = ns
			claimed[ns] = true
		}
	}
	var rest []string
	for ns, n := range counts {
		if !claimed[ns] && n > 1 {
			rest = append(rest, ns)
		}
	}
	sort.Strings(rest)
	for i, ns := range rest {
		out[fmt.Sprintf("ns%d", i+1)] = ns
	}
	return out
}

// splitIRI splits an IRI at the last '#' or '/' into namespace and local
// part, requiring a non-empty safe local part.
func splitIRI(iri string) (ns, local string, ok bool) {
	i := strings.LastIndexAny(iri, "#/")
	if i < 0 || i+1 >= len(iri) {
		return "", "", false
	}
	ns, local = iri[:i+1], iri[i+1:]
	if !safeLocal(local) {
		return "", "", false
	}
	return ns, local, true
}
