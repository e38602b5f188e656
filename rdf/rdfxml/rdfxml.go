// Package rdfxml implements the RDF/XML serialization of RDF graphs on top
// of encoding/xml.
//
// The parser covers the striped syntax used by ontology editors:
// rdf:Description and typed node elements, rdf:about / rdf:resource /
// rdf:nodeID, nested node elements, property attributes, xml:lang
// inheritance, rdf:datatype, and rdf:parseType="Resource" and
// rdf:parseType="Collection". Reification and rdf:li containers are not
// supported and fail with a ParseError naming the construct.
package rdfxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/ontosync/rdf"
)

const (
	rdfNS    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS    = "http://www.w3.org/XML/1998/namespace"
	xmlSpace = "xml"
)

func init() {
	rdf.RegisterCodec(Codec{})
}

// Codec is the RDF/XML implementation of rdf.Codec.
type Codec struct{}

// Format returns rdf.FormatRDFXML.
func (Codec) Format() rdf.Format { return rdf.FormatRDFXML }

// Parse decodes RDF/XML text into a graph.
func (Codec) Parse(text []byte) (*rdf.Graph, error) {
	p := &parser{
		src:    text,
		dec:    xml.NewDecoder(bytes.NewReader(text)),
		graph:  rdf.NewGraph(),
		labels: make(map[string]string),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type parser struct {
	src    []byte
	dec    *xml.Decoder
	graph  *rdf.Graph
	base   string
	labels map[string]string
	nblank int
}

// errf builds a ParseError positioned at the decoder's current line.
func (p *parser) errf(format string, args ...any) error {
	return &rdf.ParseError{
		Format: rdf.FormatRDFXML,
		Line:   p.lineAt(p.dec.InputOffset()),
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) lineAt(offset int64) int {
	if offset > int64(len(p.src)) {
		offset = int64(len(p.src))
	}
	return 1 + bytes.Count(p.src[:offset], []byte{'\n'})
}

func (p *parser) wrapXML(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &rdf.ParseError{Format: rdf.FormatRDFXML, Line: syn.Line, Msg: syn.Msg, Err: err}
	}
	return &rdf.ParseError{Format: rdf.FormatRDFXML, Line: p.lineAt(p.dec.InputOffset()), Msg: err.Error(), Err: err}
}

func (p *parser) run() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return p.wrapXML(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space == rdfNS && start.Name.Local == "RDF" {
			p.noteBase(start.Attr)
			return p.nodeElements(p.langOf(start.Attr, ""))
		}
		// Document without an rdf:RDF wrapper: the root is a node element.
		if _, err := p.nodeElement(start, ""); err != nil {
			return err
		}
		return p.drain()
	}
}

func (p *parser) drain() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return p.wrapXML(err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			return p.errf("unexpected element after document root")
		}
	}
}

func (p *parser) noteBase(attrs []xml.Attr) {
	for _, a := range attrs {
		if (a.Name.Space == xmlNS || a.Name.Space == xmlSpace) && a.Name.Local == "base" {
			p.base = a.Value
		}
	}
}

// nodeElements consumes children of rdf:RDF until its end element.
func (p *parser) nodeElements(lang string) error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.nodeElement(t, lang); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// nodeElement parses one node element and returns its subject term.
func (p *parser) nodeElement(start xml.StartElement, lang string) (rdf.Term, error) {
	var subject rdf.Term
	haveSubject := false
	lang = p.langOf(start.Attr, lang)

	var propAttrs []xml.Attr
	var typeFromAttr string
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == rdfNS && a.Name.Local == "about":
			subject = rdf.NewIRI(p.resolve(a.Value))
			haveSubject = true
		case a.Name.Space == rdfNS && a.Name.Local == "ID":
			subject = rdf.NewIRI(p.resolve("#" + a.Value))
			haveSubject = true
		case a.Name.Space == rdfNS && a.Name.Local == "nodeID":
			subject = p.blankFor(a.Value)
			haveSubject = true
		case a.Name.Space == rdfNS && a.Name.Local == "type":
			typeFromAttr = a.Value
		case isSyntaxAttr(a):
			// xmlns and xml:* handled elsewhere.
		case a.Name.Space == rdfNS:
			return rdf.Term{}, p.errf("unsupported rdf:%s attribute on node element", a.Name.Local)
		default:
			propAttrs = append(propAttrs, a)
		}
	}
	if !haveSubject {
		subject = p.freshBlank()
	}

	if start.Name.Space != rdfNS || start.Name.Local != "Description" {
		if err := p.emit(subject, rdf.RDFType, rdf.NewIRI(start.Name.Space+start.Name.Local)); err != nil {
			return rdf.Term{}, err
		}
	}
	if typeFromAttr != "" {
		if err := p.emit(subject, rdf.RDFType, rdf.NewIRI(p.resolve(typeFromAttr))); err != nil {
			return rdf.Term{}, err
		}
	}
	for _, a := range propAttrs {
		obj := rdf.NewLiteral(a.Value)
		if lang != "" {
			obj = rdf.NewLangLiteral(a.Value, lang)
		}
		if err := p.emit(subject, rdf.NewIRI(a.Name.Space+a.Name.Local), obj); err != nil {
			return rdf.Term{}, err
		}
	}

	// Property elements until this node's end element.
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return rdf.Term{}, p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.propertyElement(subject, t, lang); err != nil {
				return rdf.Term{}, err
			}
		case xml.EndElement:
			return subject, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return rdf.Term{}, p.errf("unexpected text content %q in node element", strings.TrimSpace(string(t)))
			}
		}
	}
}

// propertyElement parses one property element of the given subject.
func (p *parser) propertyElement(subject rdf.Term, start xml.StartElement, lang string) error {
	if start.Name.Space == rdfNS && start.Name.Local == "li" {
		return p.errf("rdf:li container membership is not supported")
	}
	pred := rdf.NewIRI(start.Name.Space + start.Name.Local)
	lang = p.langOf(start.Attr, lang)

	var resource, nodeID, datatype, parseType string
	var propAttrs []xml.Attr
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == rdfNS && a.Name.Local == "resource":
			resource = a.Value
		case a.Name.Space == rdfNS && a.Name.Local == "nodeID":
			nodeID = a.Value
		case a.Name.Space == rdfNS && a.Name.Local == "datatype":
			datatype = a.Value
		case a.Name.Space == rdfNS && a.Name.Local == "parseType":
			parseType = a.Value
		case isSyntaxAttr(a):
		case a.Name.Space == rdfNS:
			return p.errf("unsupported rdf:%s attribute on property element", a.Name.Local)
		default:
			propAttrs = append(propAttrs, a)
		}
	}

	switch parseType {
	case "":
	case "Resource":
		inner := p.freshBlank()
		if err := p.emit(subject, pred, inner); err != nil {
			return err
		}
		return p.parseTypeResource(inner, lang)
	case "Collection":
		items, err := p.collectNodeElements(lang)
		if err != nil {
			return err
		}
		return p.emitCollection(subject, pred, items)
	default:
		return p.errf("unsupported rdf:parseType=%q", parseType)
	}

	if resource != "" || nodeID != "" {
		var obj rdf.Term
		if resource != "" {
			obj = rdf.NewIRI(p.resolve(resource))
		} else {
			obj = p.blankFor(nodeID)
		}
		if err := p.emit(subject, pred, obj); err != nil {
			return err
		}
		for _, a := range propAttrs {
			if err := p.emit(obj, rdf.NewIRI(a.Name.Space+a.Name.Local), rdf.NewLiteral(a.Value)); err != nil {
				return err
			}
		}
		return p.expectEnd()
	}

	if len(propAttrs) > 0 {
		// Property attributes without rdf:resource describe an implied
		// blank node object.
		obj := p.freshBlank()
		if err := p.emit(subject, pred, obj); err != nil {
			return err
		}
		for _, a := range propAttrs {
			if err := p.emit(obj, rdf.NewIRI(a.Name.Space+a.Name.Local), rdf.NewLiteral(a.Value)); err != nil {
				return err
			}
		}
		return p.expectEnd()
	}

	// Either a literal or a nested node element.
	var text strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write([]byte(t))
		case xml.StartElement:
			if strings.TrimSpace(text.String()) != "" {
				return p.errf("mixed text and element content under property %s", start.Name.Local)
			}
			obj, err := p.nodeElement(t, lang)
			if err != nil {
				return err
			}
			if err := p.emit(subject, pred, obj); err != nil {
				return err
			}
			return p.expectEnd()
		case xml.EndElement:
			lexical := text.String()
			var obj rdf.Term
			switch {
			case datatype != "":
				obj = rdf.NewTypedLiteral(lexical, p.resolve(datatype))
			case lang != "":
				obj = rdf.NewLangLiteral(lexical, lang)
			default:
				obj = rdf.NewLiteral(lexical)
			}
			return p.emit(subject, pred, obj)
		}
	}
}

// parseTypeResource parses property elements of an implied blank node until
// the enclosing property element closes.
func (p *parser) parseTypeResource(subject rdf.Term, lang string) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.propertyElement(subject, t, lang); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return p.errf("unexpected text in parseType=Resource content")
			}
		}
	}
}

// collectNodeElements parses node elements until the enclosing property
// element closes, returning their subjects in order.
func (p *parser) collectNodeElements(lang string) ([]rdf.Term, error) {
	var items []rdf.Term
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			item, err := p.nodeElement(t, lang)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case xml.EndElement:
			return items, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, p.errf("unexpected text in Collection content")
			}
		}
	}
}

func (p *parser) emitCollection(subject, pred rdf.Term, items []rdf.Term) error {
	if len(items) == 0 {
		return p.emit(subject, pred, rdf.RDFNil)
	}
	head := p.freshBlank()
	if err := p.emit(subject, pred, head); err != nil {
		return err
	}
	node := head
	for i, item := range items {
		if err := p.emit(node, rdf.RDFFirst, item); err != nil {
			return err
		}
		if i == len(items)-1 {
			return p.emit(node, rdf.RDFRest, rdf.RDFNil)
		}
		next := p.freshBlank()
		if err := p.emit(node, rdf.RDFRest, next); err != nil {
			return err
		}
		node = next
	}
	return nil
}

// expectEnd consumes whitespace up to the current element's end tag.
func (p *parser) expectEnd() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrapXML(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return p.errf("unexpected text %q before element end", strings.TrimSpace(string(t)))
			}
		case xml.StartElement:
			return p.errf("unexpected element <%s> in empty property", t.Name.Local)
		}
	}
}

func (p *parser) emit(s, pred, o rdf.Term) error {
	if err := p.graph.Add(rdf.Triple{Subject: s, Predicate: pred, Object: o}); err != nil {
		return p.errf("%v", err)
	}
	return nil
}

func (p *parser) freshBlank() rdf.Term {
	p.nblank++
	return rdf.NewBlank(fmt.Sprintf("b%d", p.nblank))
}

func (p *parser) blankFor(nodeID string) rdf.Term {
	if label, ok := p.labels[nodeID]; ok {
		return rdf.NewBlank(label)
	}
	t := p.freshBlank()
	p.labels[nodeID] = t.Value
	return t
}

func (p *parser) langOf(attrs []xml.Attr, inherited string) string {
	for _, a := range attrs {
		if (a.Name.Space == xmlNS || a.Name.Space == xmlSpace) && a.Name.Local == "lang" {
			return a.Value
		}
	}
	return inherited
}

// resolve resolves a reference against xml:base the same minimal way the
// Turtle parser does.
func (p *parser) resolve(ref string) string {
	if p.base == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "urn:") || strings.HasPrefix(ref, "mailto:") {
		return ref
	}
	if ref == "" {
		return p.base
	}
	if strings.HasPrefix(ref, "#") {
		return strings.TrimSuffix(p.base, "#") + ref
	}
	if i := strings.LastIndex(p.base, "/"); i >= 0 {
		return p.base[:i+1] + ref
	}
	return p.base + ref
}

func isSyntaxAttr(a xml.Attr) bool {
	if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
		return true
	}
	if a.Name.Space == xmlNS || a.Name.Space == xmlSpace {
		return true
	}
	return false
}
